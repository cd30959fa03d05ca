package formation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], eps, "component %d of %v", i, got)
	}
}

func TestHalfCircleProfile_ThreePoints(t *testing.T) {
	pts, err := HalfCircleProfile(3, 3)
	require.NoError(t, err)
	require.Len(t, pts, 3)

	assertVec(t, mgl64.Vec3{3, 0, 0}, pts[0].Position)
	assertVec(t, mgl64.Vec3{0, 3, 0}, pts[1].Position)
	assertVec(t, mgl64.Vec3{-3, 0, 0}, pts[2].Position)
	for _, p := range pts {
		assert.Equal(t, ProfileSwatch, p.Swatch)
		assert.Equal(t, 0, p.Meridian)
	}
}

func TestHalfCircleProfile_PointsLieOnCircle(t *testing.T) {
	pts, err := HalfCircleProfile(17, 2.5)
	require.NoError(t, err)
	for i, p := range pts {
		assert.InDelta(t, 2.5, p.Position.Len(), eps, "point %d", i)
		assert.GreaterOrEqual(t, p.Position.Y(), -eps, "point %d below the x-axis", i)
		assert.Zero(t, p.Position.Z())
	}
}

func TestHalfCircleProfile_RejectsDegenerateCounts(t *testing.T) {
	for _, n := range []int{1, 0, -4} {
		pts, err := HalfCircleProfile(n, 3)
		assert.ErrorIs(t, err, ErrDegenerateGeometry, "count %d", n)
		assert.Nil(t, pts)
	}
}

func TestHalfCircleProfile_RejectsNonFiniteRadius(t *testing.T) {
	_, err := HalfCircleProfile(4, math.NaN())
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
	_, err = HalfCircleProfile(4, math.Inf(1))
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestSphereFormation_Count(t *testing.T) {
	set, err := SphereFormation(10, 3, 7)
	require.NoError(t, err)
	// 10 profile points plus 6 meridians of 9 points each.
	assert.Equal(t, 64, set.Len())
	assert.Equal(t, ExpectedCount(10, 7), set.Len())
	assert.Len(t, set.Meridian(0), 10)
	for m := 1; m < 7; m++ {
		assert.Len(t, set.Meridian(m), 9, "meridian %d", m)
	}
}

func TestSphereFormation_RotatesAboutXAxis(t *testing.T) {
	set, err := SphereFormation(3, 3, 4)
	require.NoError(t, err)
	require.Equal(t, 3+3*2, set.Len())

	// Meridian 1 is a quarter turn: the apex (0,3,0) goes to (0,0,3).
	m1 := set.Meridian(1)
	require.Len(t, m1, 2)
	assertVec(t, mgl64.Vec3{0, 0, 3}, m1[0].Position)
	assertVec(t, mgl64.Vec3{-3, 0, 0}, m1[1].Position)

	// Meridian 2 is a half turn: the apex goes to (0,-3,0).
	m2 := set.Meridian(2)
	assertVec(t, mgl64.Vec3{0, -3, 0}, m2[0].Position)

	for _, p := range set.Points {
		assert.InDelta(t, 3, p.Position.Len(), eps)
	}
}

func TestSphereFormation_PaletteCyclesPerMeridian(t *testing.T) {
	set, err := SphereFormation(5, 1, 11)
	require.NoError(t, err)

	wantIdx := []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	for m := 1; m < 11; m++ {
		pts := set.Meridian(m)
		require.Len(t, pts, 4)
		for _, p := range pts {
			assert.Equal(t, Palette[wantIdx[m-1]], p.Swatch, "meridian %d", m)
		}
	}
}

func TestSphereFormation_Boundaries(t *testing.T) {
	t.Run("no points", func(t *testing.T) {
		set, err := SphereFormation(0, 3, 7)
		require.NoError(t, err)
		assert.Zero(t, set.Len())
	})
	t.Run("single point", func(t *testing.T) {
		_, err := SphereFormation(1, 3, 7)
		assert.ErrorIs(t, err, ErrDegenerateGeometry)
	})
	t.Run("no meridians", func(t *testing.T) {
		for _, m := range []int{-1, 0, 1} {
			set, err := SphereFormation(6, 3, m)
			require.NoError(t, err)
			assert.Equal(t, 6, set.Len(), "meridians %d", m)
		}
	})
}

func TestSphereFormation_Idempotent(t *testing.T) {
	a, err := SphereFormation(10, 3, 7)
	require.NoError(t, err)
	b, err := SphereFormation(10, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// The sets are independent copies.
	a.Points[0].Position = mgl64.Vec3{}
	assert.NotEqual(t, a.Points[0].Position, b.Points[0].Position)
}

func TestMeridianSwatch(t *testing.T) {
	assert.Equal(t, ProfileSwatch, MeridianSwatch(0))
	assert.Equal(t, Palette[0], MeridianSwatch(1))
	assert.Equal(t, Palette[3], MeridianSwatch(4))
	assert.Equal(t, Palette[0], MeridianSwatch(5))
}

func TestExpectedCount(t *testing.T) {
	assert.Equal(t, 0, ExpectedCount(1, 7))
	assert.Equal(t, 4, ExpectedCount(4, 1))
	assert.Equal(t, 64, ExpectedCount(10, 7))
}

// Package formation builds the static sphere-like marker layout: a half-circle
// profile in the XY plane revolved about the x-axis in equal steps.
package formation

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateGeometry is returned when the requested shape cannot be
// computed without dividing by zero or producing non-finite coordinates.
var ErrDegenerateGeometry = errors.New("degenerate formation geometry")

// Point is one marker position with its color tag. Meridian 0 is the profile.
type Point struct {
	Position mgl64.Vec3
	Swatch   Swatch
	Meridian int
}

// Set is the write-once output of one SphereFormation call: profile points
// first, then each revolved meridian in order.
type Set struct {
	PointCount int
	Radius     float64
	Meridians  int
	Points     []Point
}

func (s Set) Len() int { return len(s.Points) }

// Meridian returns the points generated for meridian m (0 = profile).
func (s Set) Meridian(m int) []Point {
	var out []Point
	for _, p := range s.Points {
		if p.Meridian == m {
			out = append(out, p)
		}
	}
	return out
}

// HalfCircleProfile places pointCount points evenly on the upper half of a
// circle of the given radius, from angle 0 to PI, all in the z = 0 plane.
func HalfCircleProfile(pointCount int, radius float64) ([]Point, error) {
	if pointCount < 2 {
		return nil, fmt.Errorf("%w: profile needs at least 2 points, got %d", ErrDegenerateGeometry, pointCount)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius %v is not finite", ErrDegenerateGeometry, radius)
	}

	pieces := float64(pointCount - 1)
	points := make([]Point, pointCount)
	for i := range points {
		theta := math.Pi * float64(i) / pieces
		points[i] = Point{
			Position: mgl64.Vec3{radius * math.Cos(theta), radius * math.Sin(theta), 0},
			Swatch:   ProfileSwatch,
		}
	}
	return points, nil
}

// SphereFormation revolves the half-circle profile about the x-axis.
//
// Meridian m in [1, meridianCount) is the profile rotated by 2*PI*m/meridianCount;
// the profile itself stands in for meridian 0. Each meridian reuses profile
// points 1..pointCount-1, leaving out the pole at index 0. Both skips are kept
// from the layout this generator reproduces; they are not a guarantee that the
// seam and poles are de-duplicated.
//
// Colors advance through Palette once per meridian. pointCount < 1 yields an
// empty set and meridianCount < 2 yields the profile alone. pointCount == 1 is
// rejected with ErrDegenerateGeometry.
func SphereFormation(pointCount int, radius float64, meridianCount int) (Set, error) {
	set := Set{PointCount: pointCount, Radius: radius, Meridians: meridianCount}
	if pointCount < 1 {
		return set, nil
	}

	profile, err := HalfCircleProfile(pointCount, radius)
	if err != nil {
		return Set{}, err
	}

	total := len(profile)
	if meridianCount > 1 {
		total += (meridianCount - 1) * (pointCount - 1)
	}
	set.Points = make([]Point, 0, total)
	set.Points = append(set.Points, profile...)

	for m := 1; m < meridianCount; m++ {
		phi := 2 * math.Pi * (float64(m) / float64(meridianCount))
		rot := mgl64.Rotate3DX(phi)
		swatch := MeridianSwatch(m)
		for j := 1; j < pointCount; j++ {
			set.Points = append(set.Points, Point{
				Position: rot.Mul3x1(profile[j].Position),
				Swatch:   swatch,
				Meridian: m,
			})
		}
	}
	return set, nil
}

// ExpectedCount reports how many points SphereFormation produces for the
// given arguments without generating them. It returns 0 for rejected input.
func ExpectedCount(pointCount, meridianCount int) int {
	if pointCount < 2 {
		return 0
	}
	if meridianCount < 2 {
		return pointCount
	}
	return pointCount + (meridianCount-1)*(pointCount-1)
}

package formation

import colorful "github.com/lucasb-eyer/go-colorful"

// Swatch is a named color tag attached to every formation point.
type Swatch struct {
	Name  string
	Color colorful.Color
}

// ProfileSwatch tags every point of the half-circle profile.
var ProfileSwatch = Swatch{Name: "green", Color: colorful.Color{R: 0, G: 1, B: 0}}

// Palette is cycled once per meridian, wrapping after the last entry.
var Palette = [...]Swatch{
	{Name: "black", Color: colorful.Color{R: 0, G: 0, B: 0}},
	{Name: "blue", Color: colorful.Color{R: 0, G: 0, B: 1}},
	{Name: "red", Color: colorful.Color{R: 1, G: 0, B: 0}},
	{Name: "yellow", Color: colorful.Color{R: 1, G: 0.92, B: 0.016}},
}

// MeridianSwatch returns the palette entry used by meridian m (m >= 1).
func MeridianSwatch(m int) Swatch {
	if m < 1 {
		return ProfileSwatch
	}
	return Palette[(m-1)%len(Palette)]
}

package graphics

import "math"

// EnvironmentMap is a decoded environment texture. The core only reads its
// size; Texture is the device handle and may be zero when the device
// substitutes a neutral environment.
type EnvironmentMap struct {
	Name    string
	Width   int
	Height  int
	Texture uint32
}

// EnvironmentConstants are the sampling constants compiled into the
// raymarcher for a given environment map.
type EnvironmentConstants struct {
	MaxMip      float64
	TexelWidth  float64
	TexelHeight float64
}

// Constants derives the mip and texel constants from the map size.
// MaxMip is log2(height) - 2, floored at zero. Degenerate sizes yield a
// single-texel map.
func (e EnvironmentMap) Constants() EnvironmentConstants {
	w, h := max(e.Width, 1), max(e.Height, 1)
	return EnvironmentConstants{
		MaxMip:      math.Max(math.Log2(float64(h))-2, 0),
		TexelWidth:  1 / float64(w),
		TexelHeight: 1 / float64(h),
	}
}

package utils

import (
	"image/color"
)

// InterpolateUint8 interpolates a byte between 'a' and 'b' at position
// 'i' along a section of the given length.
func InterpolateUint8(a, b uint8, i, sectionLength int) uint8 {
	return a + uint8((i * (int(b) - int(a)) / sectionLength))
}

// InterpolateColor returns an RGBA color where the R, G, and B
// components have been interpolated from the 'a' and 'b' colors.
func InterpolateColor(a, b color.RGBA, i, sectionLength int) color.RGBA {
	return color.RGBA{InterpolateUint8(a.R, b.R, i, sectionLength),
		InterpolateUint8(a.G, b.G, i, sectionLength),
		InterpolateUint8(a.B, b.B, i, sectionLength),
		255}
}

// GradientRGBAPalette builds the 256-color ramp the index and
// classification layers are rendered with, interpolating through the
// configured colours when the palette asks for it.
func GradientRGBAPalette(palette *Palette) ([]color.RGBA, error) {
	if palette == nil {
		return nil, nil
	}

	colours := palette.RGBA()
	ramp := make([]color.RGBA, 256)

	if palette.Interpolate {
		bins := len(colours) - 1
		sectionLength := 256 / bins
		bonus := 256 - (sectionLength * bins)
		bonusArr := make([]int, bins)
		for i := 0; i < bonus; i++ {
			bonusArr[i] = 1
		}

		index := 0
		for section, upperColour := range colours[1:] {
			for i := 0; i < sectionLength+bonusArr[section]; i++ {
				ramp[index] = InterpolateColor(colours[section], upperColour, i, sectionLength)
				index++
			}
		}
	} else {
		bins := len(colours)
		sectionLength := 256 / bins
		bonus := 256 - (sectionLength * bins)
		bonusArr := make([]int, bins)
		for i := 0; i < bonus; i++ {
			bonusArr[i] = 1
		}

		index := 0
		for section, colour := range colours {
			for i := 0; i < sectionLength+bonusArr[section]; i++ {
				ramp[index] = colour
				index++
			}
		}
	}

	return ramp, nil
}

package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"gonum.org/v1/gonum/floats"

	"landanalyzer/bandstore"
)

// NoDataByte marks pixels with no renderable value (NaN or infinite
// index results); EncodePNG leaves them transparent.
const NoDataByte = 0xFF

// ByteRaster is a display-scaled raster, one byte per pixel per
// channel.
type ByteRaster struct {
	Data          []uint8
	Height, Width int
}

// ScaleFloat64 normalises float pixels onto the 0..254 display range
// anchored at [lo, hi]. Values outside the anchors are clipped;
// non-finite values become NoDataByte.
func ScaleFloat64(data []float64, height, width int, lo, hi float64) *ByteRaster {
	out := &ByteRaster{Data: make([]uint8, len(data)), Height: height, Width: width}

	span := hi - lo
	for i, value := range data {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			out.Data[i] = NoDataByte
			continue
		}
		if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) {
			out.Data[i] = 0
			continue
		}
		scaled := (value - lo) / span * 254.0
		if scaled > 254 {
			scaled = 254
		}
		if scaled < 0 {
			scaled = 0
		}
		out.Data[i] = uint8(scaled)
	}

	return out
}

// EncodePNG renders one byte raster through a 256-colour palette (or as
// grayscale when plt is nil), or three byte rasters as an RGB image.
// NoDataByte pixels stay transparent.
func EncodePNG(br []*ByteRaster, plt []color.RGBA) ([]byte, error) {
	buf := new(bytes.Buffer)
	canvas := image.NewRGBA(image.Rect(0, 0, br[0].Width, br[0].Height))

	switch len(br) {
	case 1:
		if plt != nil {
			for i, val := range br[0].Data {
				if val != NoDataByte {
					start := i * 4
					c := plt[val]
					canvas.Pix[start] = c.R
					canvas.Pix[start+1] = c.G
					canvas.Pix[start+2] = c.B
					canvas.Pix[start+3] = 0xff
				}
			}
		} else {
			for i, val := range br[0].Data {
				if val != NoDataByte {
					start := i * 4
					canvas.Pix[start] = val
					canvas.Pix[start+1] = val
					canvas.Pix[start+2] = val
					canvas.Pix[start+3] = 0xff
				}
			}
		}

	case 3:
		rasterR := br[0]
		rasterG := br[1]
		rasterB := br[2]

		if rasterR == nil || rasterG == nil || rasterB == nil {
			return []byte{}, fmt.Errorf("at least one of the bands is nil")
		}

		for i := 0; i < rasterR.Width*rasterR.Height; i++ {
			if rasterR.Data[i] != NoDataByte || rasterG.Data[i] != NoDataByte || rasterB.Data[i] != NoDataByte {
				start := i * 4
				canvas.Pix[start] = rasterR.Data[i]
				canvas.Pix[start+1] = rasterG.Data[i]
				canvas.Pix[start+2] = rasterB.Data[i]
				canvas.Pix[start+3] = 0xff
			}
		}

	default:
		return []byte{}, fmt.Errorf("cannot encode other than 1 or 3 rasters into a PNG: received %d", len(br))
	}

	err := png.Encode(buf, canvas)

	return buf.Bytes(), err
}

// EncodeCompositePNG renders the true-colour composite, normalising all
// channels jointly over the composite's own value range.
func EncodeCompositePNG(c *bandstore.Composite) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("no composite raster loaded")
	}
	if c.Channels < 3 {
		return nil, fmt.Errorf("composite has %d channels, need at least 3", c.Channels)
	}

	lo := floats.Min(c.Data)
	hi := floats.Max(c.Data)

	channels := make([]*ByteRaster, 3)
	plane := make([]float64, c.Height*c.Width)
	for ch := 0; ch < 3; ch++ {
		for i := range plane {
			plane[i] = c.Data[i*c.Channels+ch]
		}
		channels[ch] = ScaleFloat64(plane, c.Height, c.Width, lo, hi)
	}

	return EncodePNG(channels, nil)
}

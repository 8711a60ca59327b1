package utils

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"landanalyzer/bandstore"
)

func TestScaleFloat64(t *testing.T) {
	data := []float64{0, 0.5, 1, -1, 2, math.NaN(), math.Inf(1)}
	out := ScaleFloat64(data, 1, 7, 0, 1)

	expected := []uint8{0, 127, 254, 0, 254, NoDataByte, NoDataByte}
	for i := range expected {
		if out.Data[i] != expected[i] {
			t.Errorf("pixel %d: expected %d, actual %d", i, expected[i], out.Data[i])
		}
	}
}

func TestScaleFloat64DegenerateRange(t *testing.T) {
	data := []float64{1, 1, 1}
	out := ScaleFloat64(data, 1, 3, 1, 1)
	for i, v := range out.Data {
		if v != 0 {
			t.Errorf("pixel %d: expected 0 for a degenerate range, actual %d", i, v)
		}
	}
}

func TestEncodePNGGrayscale(t *testing.T) {
	br := &ByteRaster{Data: []uint8{0, 100, 200, NoDataByte}, Height: 2, Width: 2}
	out, err := EncodePNG([]*ByteRaster{br}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}

	r, g, b, a := img.At(1, 0).RGBA()
	if r>>8 != 100 || g>>8 != 100 || b>>8 != 100 || a>>8 != 255 {
		t.Errorf("pixel (1,0): expected gray 100, actual (%d, %d, %d, %d)", r>>8, g>>8, b>>8, a>>8)
	}
	_, _, _, a = img.At(1, 1).RGBA()
	if a != 0 {
		t.Errorf("nodata pixel: expected transparency, actual alpha %d", a)
	}
}

func TestEncodePNGPalette(t *testing.T) {
	plt, err := GradientRGBAPalette(DefaultPalette())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plt) != 256 {
		t.Fatalf("expected a 256 colour ramp, actual %d", len(plt))
	}
	if (plt[0] != color.RGBA{0, 0, 255, 255}) {
		t.Errorf("ramp start: expected blue, actual %v", plt[0])
	}

	br := &ByteRaster{Data: []uint8{0, 254}, Height: 1, Width: 2}
	out, err := EncodePNG([]*ByteRaster{br}, plt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 0 || g>>8 != 0 || b>>8 != 255 {
		t.Errorf("pixel (0,0): expected blue, actual (%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNGRejectsBadChannelCount(t *testing.T) {
	br := &ByteRaster{Data: []uint8{0}, Height: 1, Width: 1}
	if _, err := EncodePNG([]*ByteRaster{br, br}, nil); err == nil {
		t.Error("expected an error for 2 rasters, got none")
	}
}

func TestEncodeCompositePNG(t *testing.T) {
	// 1x2 composite, channel axis last
	composite := &bandstore.Composite{
		Data:     []float64{0, 50, 100, 100, 50, 0},
		Height:   1,
		Width:    2,
		Channels: 3,
	}
	out, err := EncodeCompositePNG(composite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 0 || g>>8 != 127 || b>>8 != 254 {
		t.Errorf("pixel (0,0): expected (0, 127, 254), actual (%d, %d, %d)", r>>8, g>>8, b>>8)
	}

	if _, err := EncodeCompositePNG(nil); err == nil {
		t.Error("nil composite: expected an error, got none")
	}
}

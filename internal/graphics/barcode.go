package graphics

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// Code128 renders text in the Code 128 symbology, scaled to a target size.
type Code128 struct {
	Text   string
	Width  int
	Height int
}

// Name identifies the tier in logs.
func (s Code128) Name() string { return "barcode_code128" }

// Attempt encodes and rasterizes the barcode.
func (s Code128) Attempt(context.Context) (Asset, error) {
	if s.Text == "" {
		return Asset{}, fmt.Errorf("barcode: empty text")
	}
	width, height := s.Width, s.Height
	if width < 200 {
		width = 200
	}
	if height < 60 {
		height = 60
	}
	encoded, err := code128.Encode(s.Text)
	if err != nil {
		return Asset{}, fmt.Errorf("barcode: encode: %w", err)
	}
	scaled, err := barcode.Scale(encoded, width, height)
	if err != nil {
		return Asset{}, fmt.Errorf("barcode: scale: %w", err)
	}
	// Re-draw into NRGBA so the PNG carries a widely supported pixel format.
	flat := image.NewNRGBA(scaled.Bounds())
	draw.Draw(flat, flat.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return Asset{}, fmt.Errorf("barcode: rasterize: %w", err)
	}
	return Asset{PNG: buf.Bytes(), Width: width, Height: height}, nil
}

package graphics

import (
	"context"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/revo-studio/storefront/internal/assets"
)

// RemoteQR asks a charting endpoint to render the payload as a QR image.
// The endpoint is a URL prefix the url-encoded payload is appended to.
type RemoteQR struct {
	Loader   *assets.Loader
	Endpoint string
	Payload  string
}

// Name identifies the tier in logs.
func (s RemoteQR) Name() string { return "qr_remote" }

// Attempt fetches the rendered QR through the resource loader.
func (s RemoteQR) Attempt(ctx context.Context) (Asset, error) {
	if s.Loader == nil || s.Endpoint == "" {
		return Asset{}, fmt.Errorf("qr remote tier not configured")
	}
	res, err := s.Loader.Load(ctx, s.Endpoint+url.QueryEscape(s.Payload), assets.KindImage)
	if err != nil {
		return Asset{}, err
	}
	data, err := NormalizePNG(res.Data)
	if err != nil {
		return Asset{}, err
	}
	return Asset{PNG: data, Width: res.Width, Height: res.Height}, nil
}

// LocalQR encodes the payload with the bundled QR library.
type LocalQR struct {
	Payload string
	Size    int
}

// Name identifies the tier in logs.
func (s LocalQR) Name() string { return "qr_local" }

// Attempt renders the payload to a PNG. Oversized payloads exceed QR
// capacity and fail the tier.
func (s LocalQR) Attempt(context.Context) (Asset, error) {
	size := s.Size
	if size <= 0 {
		size = 200
	}
	png, err := qrcode.Encode(s.Payload, qrcode.Low, size)
	if err != nil {
		return Asset{}, fmt.Errorf("encode qr: %w", err)
	}
	return Asset{PNG: png, Width: size, Height: size}, nil
}

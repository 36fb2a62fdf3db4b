package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	reporterrors "github.com/vigiaops/fieldreport/internal/errors"
)

func servePNG(t *testing.T, w, h int) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7 % 256), G: uint8(y * 3 % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "image/png")
		rw.Write(buf.Bytes())
	}))
}

func TestHTTPPhotoLoaderReencodesToJPEG(t *testing.T) {
	srv := servePNG(t, 640, 480)
	defer srv.Close()

	loader := NewHTTPPhotoLoader(WithHTTPClient(srv.Client()))
	data, err := loader.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode fetched photo: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg re-encode, got %s", format)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("small photo must keep its dimensions, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestHTTPPhotoLoaderDownsizesOversized(t *testing.T) {
	srv := servePNG(t, 2000, 1000)
	defer srv.Close()

	loader := NewHTTPPhotoLoader(WithHTTPClient(srv.Client()), WithMaxDimension(1600))
	data, err := loader.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode fetched photo: %v", err)
	}
	if cfg.Width != 1600 || cfg.Height != 800 {
		t.Errorf("expected aspect-preserving fit to 1600x800, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestHTTPPhotoLoaderNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		http.Error(rw, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewHTTPPhotoLoader(WithHTTPClient(srv.Client()))
	_, err := loader.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !errors.Is(err, reporterrors.ErrPhotoUnavailable) {
		t.Errorf("expected photo-unavailable classification, got %v", err)
	}

	var re *reporterrors.ReportError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReportError, got %T", err)
	}
	if re.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 on error, got %d", re.StatusCode)
	}
	if re.Retryable {
		t.Error("404 must not be retryable")
	}
}

func TestHTTPPhotoLoaderUndecodablePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Write([]byte("this is not an image"))
	}))
	defer srv.Close()

	loader := NewHTTPPhotoLoader(WithHTTPClient(srv.Client()))
	_, err := loader.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected decode error")
	}

	var re *reporterrors.ReportError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReportError, got %T", err)
	}
	if re.Type != reporterrors.TypeDecode {
		t.Errorf("expected decode error type, got %s", re.Type)
	}
	if !reporterrors.Recoverable(err) {
		t.Error("decode failures are recoverable at the photo level")
	}
}

func TestHTTPPhotoLoaderQuality(t *testing.T) {
	srv := servePNG(t, 800, 600)
	defer srv.Close()

	high := NewHTTPPhotoLoader(WithHTTPClient(srv.Client()), WithJPEGQuality(95))
	low := NewHTTPPhotoLoader(WithHTTPClient(srv.Client()), WithJPEGQuality(20))

	highData, err := high.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	lowData, err := low.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(lowData) >= len(highData) {
		t.Errorf("lower quality should produce smaller output: %d vs %d", len(lowData), len(highData))
	}
	if _, err := jpeg.Decode(bytes.NewReader(lowData)); err != nil {
		t.Errorf("low-quality output not decodable: %v", err)
	}
}

package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	reporterrors "github.com/vigiaops/fieldreport/internal/errors"
)

// PhotoLoader resolves a photo URL into embeddable JPEG bytes. The
// composer is the only caller and isolates every Fetch in its own
// failure boundary, so implementations just report errors.
type PhotoLoader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

const (
	// defaultMaxDimension bounds either side of an embedded photo so a
	// handful of camera uploads cannot balloon the document.
	defaultMaxDimension = 1600
	// defaultJPEGQuality is the fixed re-encode quality setting.
	defaultJPEGQuality = 80
	// maxPhotoBytes caps how much of a response body is read.
	maxPhotoBytes = 20 << 20
)

// HTTPPhotoLoader fetches photos over HTTP(S), decodes them, downsizes
// oversized bitmaps and re-encodes everything as JPEG at a fixed
// quality. Photos are treated as opaque fetchable resources; there is
// no per-fetch timeout beyond the client's own (a hanging fetch stalls
// the pipeline, an accepted limitation).
type HTTPPhotoLoader struct {
	client       *http.Client
	maxDimension int
	quality      int
	log          zerolog.Logger
}

// PhotoLoaderOption customizes an HTTPPhotoLoader.
type PhotoLoaderOption func(*HTTPPhotoLoader)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) PhotoLoaderOption {
	return func(l *HTTPPhotoLoader) { l.client = c }
}

// WithMaxDimension bounds the longer side of embedded photos.
func WithMaxDimension(px int) PhotoLoaderOption {
	return func(l *HTTPPhotoLoader) { l.maxDimension = px }
}

// WithJPEGQuality sets the re-encode quality (1-100).
func WithJPEGQuality(q int) PhotoLoaderOption {
	return func(l *HTTPPhotoLoader) { l.quality = q }
}

// WithPhotoLogger sets the loader's logger.
func WithPhotoLogger(log zerolog.Logger) PhotoLoaderOption {
	return func(l *HTTPPhotoLoader) { l.log = log }
}

// NewHTTPPhotoLoader creates a loader with bounded output dimensions
// and fixed JPEG quality.
func NewHTTPPhotoLoader(opts ...PhotoLoaderOption) *HTTPPhotoLoader {
	l := &HTTPPhotoLoader{
		client:       http.DefaultClient,
		maxDimension: defaultMaxDimension,
		quality:      defaultJPEGQuality,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fetch loads, decodes and re-encodes one photo. Network errors,
// non-200 responses and undecodable payloads all come back as
// structured errors for the composer's placeholder path.
func (l *HTTPPhotoLoader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, reporterrors.New(reporterrors.TypeFetch, "build_photo_request", url, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, reporterrors.New(reporterrors.TypeFetch, "fetch_photo", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		return nil, reporterrors.New(reporterrors.TypeFetch, "fetch_photo", url, err).
			WithStatusCode(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, reporterrors.New(reporterrors.TypeFetch, "read_photo", url, err)
	}

	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, reporterrors.New(reporterrors.TypeDecode, "decode_photo", url, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > l.maxDimension || bounds.Dy() > l.maxDimension {
		img = imaging.Fit(img, l.maxDimension, l.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(l.quality)); err != nil {
		return nil, reporterrors.New(reporterrors.TypeDecode, "encode_photo", url, err)
	}

	l.log.Debug().Str("url", url).Int("bytes", buf.Len()).Msg("Photo fetched and re-encoded")
	return buf.Bytes(), nil
}

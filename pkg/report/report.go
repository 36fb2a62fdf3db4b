// Package report turns a fully-resolved service-ticket snapshot into a
// paginated A4 PDF document (or a CSV summary), entirely in-process.
// The document is a pure function of the snapshot plus the fetched
// photo bytes: with a pinned clock, identical input yields identical
// output bytes.
package report

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	reporterrors "github.com/vigiaops/fieldreport/internal/errors"
)

// Format represents the output format of a report
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// Generator renders ticket reports. It holds no per-call state, so
// concurrent Generate calls for different tickets are independent.
type Generator struct {
	branding Branding
	theme    Theme
	loader   PhotoLoader
	now      func() time.Time
	log      zerolog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithTheme selects the visual theme.
func WithTheme(t Theme) Option {
	return func(g *Generator) { g.theme = t }
}

// WithPhotoLoader replaces the photo loader.
func WithPhotoLoader(l PhotoLoader) Option {
	return func(g *Generator) { g.loader = l }
}

// WithClock pins the generation timestamp source. The timestamp feeds
// only the footer line and the PDF metadata dates, keeping everything
// else byte-comparable.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the generator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// NewGenerator creates a report generator for one issuing company.
// Branding is injected rather than read from package state so the core
// stays tenant-neutral and testable.
func NewGenerator(branding Branding, opts ...Option) *Generator {
	g := &Generator{
		branding: branding,
		theme:    ThemeNavy(),
		loader:   NewHTTPPhotoLoader(),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the full paginated document for one ticket snapshot.
// Missing optional fields, overflowing text and failed photo fetches
// all degrade to visual fallbacks; the only error paths are failure to
// drive the drawing surface or to flush the output stream.
func (g *Generator) Generate(ctx context.Context, in *ReportInput) ([]byte, error) {
	generatedAt := g.now()

	pdf := g.newDocument(in, generatedAt)
	if err := g.compose(ctx, pdf, in, generatedAt); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, reporterrors.New(reporterrors.TypeEmit, "output_pdf", "", err)
	}

	g.log.Info().
		Str("code", strOrPlaceholder(in.Code)).
		Int("pages", pdf.PageCount()).
		Int("photos", len(in.Photos)).
		Int("bytes", buf.Len()).
		Msg("Report generated")
	return buf.Bytes(), nil
}

// newDocument prepares the drawing surface with pinned metadata dates.
func (g *Generator) newDocument(in *ReportInput, generatedAt time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	// Pagination is driven explicitly by the composer's cursor.
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")

	pdf.SetTitle("Relatório de Atendimento "+strOrPlaceholder(in.Code), true)
	pdf.SetAuthor(g.branding.CompanyName, true)
	pdf.SetCreator("fieldreport", true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	return pdf
}

// compose runs the page state machine against an existing surface.
func (g *Generator) compose(ctx context.Context, pdf *fpdf.Fpdf, in *ReportInput, generatedAt time.Time) error {
	cp := &composer{
		pdf:         pdf,
		cv:          newCanvas(pdf, g.theme, g.branding),
		in:          in,
		loader:      g.loader,
		log:         g.log,
		generatedAt: FormatDateTime(generatedAt),
	}
	return cp.compose(ctx)
}

// Filename builds the deterministic download name
// Relatorio_<code>.<ext>, falling back to "sem-codigo" for tickets
// without a code.
func Filename(code *string, format Format) string {
	base := "sem-codigo"
	if code != nil && strings.TrimSpace(*code) != "" {
		base = sanitizeFilename(strings.TrimSpace(*code))
	}
	return "Relatorio_" + base + "." + string(format)
}

// sanitizeFilename removes or replaces characters that could cause
// issues in filenames or Content-Disposition headers
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.ReplaceAll(s, "\\", "")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, " ", "_")

	if len(s) > 64 {
		s = s[:64]
	}
	return s
}

package report

import (
	"bytes"
	"strconv"

	"github.com/go-pdf/fpdf"
)

// Page geometry (mm, A4 portrait).
const (
	pageMargin   = 15.0
	contentWidth = 210.0 - 2*pageMargin
	footerHeight = 16.0
	lineHeight   = 5.0
	rowHeight    = 5.5
)

// Theme parametrizes the visual identity of a report. Both stock themes
// go through the same composer; there is no second code path.
type Theme struct {
	Name string

	Primary    [3]int // section bars, accents
	Secondary  [3]int // badges, highlights
	TextDark   [3]int
	TextMuted  [3]int
	Background [3]int // card fill
	GridLine   [3]int // borders
	Shadow     [3]int // stacked-offset card shadow

	CardRadius float64
}

// ThemeNavy is the default dark-blue theme.
func ThemeNavy() Theme {
	return Theme{
		Name:       "navy",
		Primary:    [3]int{30, 58, 95},
		Secondary:  [3]int{52, 152, 219},
		TextDark:   [3]int{44, 62, 80},
		TextMuted:  [3]int{127, 140, 141},
		Background: [3]int{248, 249, 250},
		GridLine:   [3]int{220, 220, 220},
		Shadow:     [3]int{205, 210, 214},
		CardRadius: 2.5,
	}
}

// ThemeGraphite is a neutral gray variant.
func ThemeGraphite() Theme {
	return Theme{
		Name:       "graphite",
		Primary:    [3]int{55, 65, 75},
		Secondary:  [3]int{120, 130, 140},
		TextDark:   [3]int{40, 44, 48},
		TextMuted:  [3]int{130, 135, 140},
		Background: [3]int{247, 247, 247},
		GridLine:   [3]int{215, 215, 215},
		Shadow:     [3]int{208, 208, 208},
		CardRadius: 1.5,
	}
}

// ThemeByName resolves a configured theme name, defaulting to navy.
func ThemeByName(name string) Theme {
	switch name {
	case "graphite":
		return ThemeGraphite()
	default:
		return ThemeNavy()
	}
}

// canvas bundles the drawing surface with the theme and branding for
// one generation call. Primitives are stateless with respect to
// pagination: they take explicit coordinates, return the next y, and
// never add a page themselves.
type canvas struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	theme    Theme
	branding Branding
	hasLogo  bool
}

const brandingLogoName = "branding-logo"

func newCanvas(pdf *fpdf.Fpdf, theme Theme, branding Branding) *canvas {
	c := &canvas{
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
		theme:    theme,
		branding: branding,
	}
	if len(branding.Logo) > 0 {
		info := pdf.RegisterImageOptionsReader(brandingLogoName,
			fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(branding.Logo))
		c.hasLogo = info != nil && pdf.Ok()
	}
	return c
}

// drawCard draws a bordered rounded rectangle with a stacked-offset
// shadow fill, the visual container for every info section.
func (c *canvas) drawCard(x, y, w, h float64) {
	t := c.theme
	c.pdf.SetFillColor(t.Shadow[0], t.Shadow[1], t.Shadow[2])
	c.pdf.RoundedRect(x+0.8, y+0.8, w, h, t.CardRadius, "1234", "F")

	c.pdf.SetFillColor(255, 255, 255)
	c.pdf.SetDrawColor(t.GridLine[0], t.GridLine[1], t.GridLine[2])
	c.pdf.SetLineWidth(0.3)
	c.pdf.RoundedRect(x, y, w, h, t.CardRadius, "1234", "FD")
}

// drawSectionTitle draws a labeled bar and returns the y immediately
// below it.
func (c *canvas) drawSectionTitle(title string, x, y, w float64) float64 {
	const barHeight = 8.0
	t := c.theme

	c.pdf.SetFillColor(t.Primary[0], t.Primary[1], t.Primary[2])
	c.pdf.RoundedRect(x, y, w, barHeight, 1, "1234", "F")

	c.pdf.SetXY(x+3, y)
	c.pdf.SetFont("Arial", "B", 10)
	c.pdf.SetTextColor(255, 255, 255)
	c.pdf.CellFormat(w-6, barHeight, c.tr(title), "", 0, "L", false, 0, "")

	return y + barHeight + 2
}

// drawCardTitle draws the small muted heading inside a card.
func (c *canvas) drawCardTitle(title string, x, y, w float64) float64 {
	t := c.theme
	c.pdf.SetXY(x, y)
	c.pdf.SetFont("Arial", "B", 8)
	c.pdf.SetTextColor(t.Secondary[0], t.Secondary[1], t.Secondary[2])
	c.pdf.CellFormat(w, 5, c.tr(title), "", 0, "L", false, 0, "")

	c.pdf.SetDrawColor(t.GridLine[0], t.GridLine[1], t.GridLine[2])
	c.pdf.SetLineWidth(0.2)
	c.pdf.Line(x, y+5.5, x+w, y+5.5)
	return y + 7
}

// drawLabelValueRow draws a muted label at a fixed offset and a bold
// value truncated to fit maxValueWidth, returning the next row y.
func (c *canvas) drawLabelValueRow(label, value string, x, y, labelWidth, maxValueWidth float64) float64 {
	t := c.theme

	c.pdf.SetXY(x, y)
	c.pdf.SetFont("Arial", "", 8)
	c.pdf.SetTextColor(t.TextMuted[0], t.TextMuted[1], t.TextMuted[2])
	c.pdf.CellFormat(labelWidth, rowHeight, c.tr(label), "", 0, "L", false, 0, "")

	c.pdf.SetFont("Arial", "B", 8)
	c.pdf.SetTextColor(t.TextDark[0], t.TextDark[1], t.TextDark[2])
	c.pdf.CellFormat(maxValueWidth, rowHeight, c.fitText(value, maxValueWidth), "", 0, "L", false, 0, "")

	return y + rowHeight
}

// fitText returns the translated value, shrunk with a trailing ellipsis
// until it measures within maxWidth under the current font. Truncation
// is measured, never a fixed character count: glyph widths vary per
// string. The caller must have the target font active.
func (c *canvas) fitText(value string, maxWidth float64) string {
	const ellipsis = "..."

	tv := c.tr(value)
	if c.pdf.GetStringWidth(tv) <= maxWidth {
		return tv
	}
	r := []rune(tv)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if c.pdf.GetStringWidth(string(r)+ellipsis) <= maxWidth {
			break
		}
	}
	return string(r) + ellipsis
}

// drawHeader draws the branding chrome repeated on every page and
// returns the y where content may start. A missing logo degrades to
// text-only branding.
func (c *canvas) drawHeader() float64 {
	t := c.theme
	pageWidth, _ := c.pdf.GetPageSize()

	c.pdf.SetFillColor(t.Primary[0], t.Primary[1], t.Primary[2])
	c.pdf.Rect(0, 0, pageWidth, 5, "F")

	textX := pageMargin
	if c.hasLogo {
		c.pdf.ImageOptions(brandingLogoName, pageMargin, 9, 16, 0, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		textX += 20
	}

	c.pdf.SetXY(textX, 10)
	c.pdf.SetFont("Arial", "B", 13)
	c.pdf.SetTextColor(t.Primary[0], t.Primary[1], t.Primary[2])
	c.pdf.CellFormat(100, 7, c.fitText(c.branding.CompanyName, 100), "", 1, "L", false, 0, "")

	c.pdf.SetX(textX)
	c.pdf.SetFont("Arial", "", 7.5)
	c.pdf.SetTextColor(t.TextMuted[0], t.TextMuted[1], t.TextMuted[2])
	c.pdf.CellFormat(100, 4, c.fitText(c.branding.Address, 100), "", 1, "L", false, 0, "")

	contact := c.branding.Phone
	if c.branding.Email != "" {
		if contact != "" {
			contact += "  |  "
		}
		contact += c.branding.Email
	}
	c.pdf.SetXY(pageMargin, 10)
	c.pdf.CellFormat(contentWidth, 4, c.fitText(contact, 80), "", 1, "R", false, 0, "")
	if c.branding.Website != "" {
		c.pdf.SetX(pageMargin)
		c.pdf.CellFormat(contentWidth, 4, c.fitText(c.branding.Website, 80), "", 1, "R", false, 0, "")
	}

	c.pdf.SetDrawColor(t.Primary[0], t.Primary[1], t.Primary[2])
	c.pdf.SetLineWidth(0.4)
	c.pdf.Line(pageMargin, 24, pageWidth-pageMargin, 24)

	return 28
}

// drawFooter draws the fixed band anchored to the bottom of every page.
// The generation timestamp is confined to a single cell on the right so
// the rest of the document stays comparable across runs.
func (c *canvas) drawFooter(generatedAt string) {
	t := c.theme
	pageWidth, pageHeight := c.pdf.GetPageSize()
	y := pageHeight - footerHeight

	c.pdf.SetDrawColor(t.GridLine[0], t.GridLine[1], t.GridLine[2])
	c.pdf.SetLineWidth(0.3)
	c.pdf.Line(pageMargin, y, pageWidth-pageMargin, y)

	c.pdf.SetXY(pageMargin, y+2)
	c.pdf.SetFont("Arial", "", 7)
	c.pdf.SetTextColor(t.TextMuted[0], t.TextMuted[1], t.TextMuted[2])
	c.pdf.CellFormat(contentWidth/2, 4, c.fitText(c.branding.CompanyName, contentWidth/2), "", 0, "L", false, 0, "")
	c.pdf.CellFormat(contentWidth/2, 4, c.tr("Página "+pageNoString(c.pdf)), "", 1, "R", false, 0, "")

	c.pdf.SetX(pageMargin)
	c.pdf.CellFormat(contentWidth/2, 4, c.fitText(c.branding.Address, contentWidth/2), "", 0, "L", false, 0, "")
	c.pdf.CellFormat(contentWidth/2, 4, c.tr("Gerado em "+generatedAt), "", 1, "R", false, 0, "")
}

// pageNoString formats "current de {nb}" using the fpdf total-pages
// alias, replaced at close time.
func pageNoString(pdf *fpdf.Fpdf) string {
	return strconv.Itoa(pdf.PageNo()) + " de {nb}"
}

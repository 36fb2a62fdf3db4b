package report

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	reporterrors "github.com/vigiaops/fieldreport/internal/errors"
)

const (
	cardGap       = 6.0
	cardPadding   = 4.0
	photosPerPage = 4
)

// composer sequences primitives and derived metrics into finished
// pages. Pages advance strictly forward: summary, narrative, photo
// pages, done. The only mutable layout state is the running y cursor
// threaded through the methods; primitives never paginate.
type composer struct {
	pdf         *fpdf.Fpdf
	cv          *canvas
	in          *ReportInput
	loader      PhotoLoader
	log         zerolog.Logger
	generatedAt string
}

func (cp *composer) compose(ctx context.Context) error {
	cp.summaryPage()
	cp.narrativePages()
	cp.photoPages(ctx)

	if !cp.pdf.Ok() {
		return reporterrors.New(reporterrors.TypeRender, "compose", "", cp.pdf.Error())
	}
	return nil
}

// bottom returns the last usable content y on the current page.
func (cp *composer) bottom() float64 {
	_, pageHeight := cp.pdf.GetPageSize()
	return pageHeight - footerHeight - 4
}

// summaryPage lays out the fixed entity cards. Card heights are
// constants sized for worst-case content (three trailer lines); content
// past a card's fixed height overflows visually instead of paginating,
// so this is always exactly one page.
func (cp *composer) summaryPage() {
	in := cp.in
	cv := cp.cv

	cp.pdf.AddPage()
	y := cv.drawHeader()

	cp.pdf.SetXY(pageMargin, y)
	cp.pdf.SetFont("Arial", "B", 16)
	cp.pdf.SetTextColor(cv.theme.Primary[0], cv.theme.Primary[1], cv.theme.Primary[2])
	cp.pdf.CellFormat(contentWidth, 9, cv.tr("Relatório de Atendimento"), "", 1, "L", false, 0, "")

	cp.pdf.SetX(pageMargin)
	cp.pdf.SetFont("Arial", "", 9)
	cp.pdf.SetTextColor(cv.theme.TextMuted[0], cv.theme.TextMuted[1], cv.theme.TextMuted[2])
	subtitle := fmt.Sprintf("Chamado %s  |  %s  |  %s",
		strOrPlaceholder(in.Code), ServiceTypeDisplayName(in.ServiceType), orPlaceholder(in.Status))
	cp.pdf.CellFormat(contentWidth, 5, cv.fitText(subtitle, contentWidth), "", 1, "L", false, 0, "")
	y += 17

	cardWidth := (contentWidth - cardGap) / 2
	const cardHeight = 44.0

	cp.requesterCard(pageMargin, y, cardWidth, cardHeight)
	cp.locationCard(pageMargin+cardWidth+cardGap, y, cardWidth, cardHeight)
	y += cardHeight + cardGap
	cp.timingCard(pageMargin, y, cardWidth, cardHeight)
	cp.vehicleCard(pageMargin+cardWidth+cardGap, y, cardWidth, cardHeight)
	y += cardHeight + cardGap

	y = cp.teamCard(pageMargin, y, contentWidth) + 5
	y = cp.costsCard(pageMargin, y, contentWidth) + 5
	cp.supportCards(y, cardWidth)

	cv.drawFooter(cp.generatedAt)
}

func (cp *composer) requesterCard(x, y, w, h float64) {
	cv := cp.cv
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle("SOLICITANTE", x+cardPadding, y+3, w-2*cardPadding)

	labelW := 24.0
	valueW := w - 2*cardPadding - labelW
	cy = cv.drawLabelValueRow("Cliente", orPlaceholder(cp.in.Client.Name), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Telefone", orPlaceholder(cp.in.Client.ContactPhone), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Plano", orPlaceholder(cp.in.Plan.Name), x+cardPadding, cy, labelW, valueW)
	cv.drawLabelValueRow("Operador", strOrPlaceholder(cp.in.OperatorName), x+cardPadding, cy, labelW, valueW)
}

func (cp *composer) locationCard(x, y, w, h float64) {
	cv := cp.cv
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle("LOCAL", x+cardPadding, y+3, w-2*cardPadding)

	labelW := 28.0
	valueW := w - 2*cardPadding - labelW
	cy = cv.drawLabelValueRow("Cidade", orPlaceholder(cp.in.City), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("UF", orPlaceholder(cp.in.State), x+cardPadding, cy, labelW, valueW)
	cv.drawLabelValueRow("Coordenadas", FormatCoordinates(cp.in.Lat, cp.in.Lng), x+cardPadding, cy, labelW, valueW)
}

func (cp *composer) timingCard(x, y, w, h float64) {
	cv := cp.cv
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle("DATA E HORA", x+cardPadding, y+3, w-2*cardPadding)

	labelW := 24.0
	valueW := w - 2*cardPadding - labelW
	start := cp.in.StartDatetime
	cy = cv.drawLabelValueRow("Início", FormatDateTime(start), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Término", FormatDateTimePtr(cp.in.EndDatetime), x+cardPadding, cy, labelW, valueW)
	cv.drawLabelValueRow("Duração", FormatMinutes(ElapsedMinutes(&start, cp.in.EndDatetime)), x+cardPadding, cy, labelW, valueW)
}

func (cp *composer) vehicleCard(x, y, w, h float64) {
	cv := cp.cv
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle("VEÍCULO", x+cardPadding, y+3, w-2*cardPadding)

	labelW := 24.0
	valueW := w - 2*cardPadding - labelW
	v := cp.in.Vehicle
	cy = cv.drawLabelValueRow("Descrição", orPlaceholder(v.Description), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Cavalo", orPlaceholder(v.TractorPlate), x+cardPadding, cy, labelW, valueW)

	brandModel := strings.TrimSpace(v.TractorBrand + " " + v.TractorModel)
	cy = cv.drawLabelValueRow("Marca/Modelo", orPlaceholder(brandModel), x+cardPadding, cy, labelW, valueW)

	for i, t := range v.Trailers {
		if i >= 3 {
			break
		}
		desc := strings.TrimSpace(t.Plate + " · " + t.BodyType)
		cy = cv.drawLabelValueRow(fmt.Sprintf("Reboque %d", i+1), orPlaceholder(desc), x+cardPadding, cy, labelW, valueW)
	}
}

func (cp *composer) teamCard(x, y, w float64) float64 {
	cv := cp.cv
	const h = 28.0
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle("EQUIPE MOBILIZADA", x+cardPadding, y+3, w-2*cardPadding)

	labelW := 34.0
	valueW := w - 2*cardPadding - labelW

	primary := cp.in.PrimaryAgent
	armament := "desarmado"
	if primary.Armed {
		armament = "armado"
	}
	agentLine := orPlaceholder(primary.Name)
	if primary.Name != "" {
		agentLine = fmt.Sprintf("%s (%s)", primary.Name, armament)
	}
	cy = cv.drawLabelValueRow("Agente principal", agentLine, x+cardPadding, cy, labelW, valueW)

	summary := MobilizedSummary(&primary, supportAgentRef(cp.in.SupportAgent1), supportAgentRef(cp.in.SupportAgent2))
	cy = cv.drawLabelValueRow("Efetivo", summary, x+cardPadding, cy, labelW, valueW)

	start := cp.in.StartDatetime
	sentence := FormatDurationSentence(ElapsedMinutes(&start, cp.in.EndDatetime))
	cv.drawLabelValueRow("Situação", sentence, x+cardPadding, cy, labelW, valueW)

	return y + h
}

// supportAgentRef extracts the agent reference from a support slot for
// the mobilized summary; inactive slots contribute nothing.
func supportAgentRef(s *SupportAgent) *AgentRef {
	if s == nil {
		return nil
	}
	return s.Agent
}

func (cp *composer) costsCard(x, y, w float64) float64 {
	cv := cp.cv
	in := cp.in
	const h = 26.0
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle("DESLOCAMENTO E CUSTOS", x+cardPadding, y+3, w-2*cardPadding)

	colW := (w - 2*cardPadding) / 2
	labelW := 28.0
	valueW := colW - labelW
	leftX := x + cardPadding
	rightX := x + cardPadding + colW

	ly := cv.drawLabelValueRow("Distância", FormatKm(DistanceKm(in.KmStart, in.KmEnd)), leftX, cy, labelW, valueW)
	ly = cv.drawLabelValueRow("Pedágio", FormatCurrency(TotalCost(in.TollCost, nil, nil)), leftX, ly, labelW, valueW)
	cv.drawLabelValueRow("Alimentação", FormatCurrency(TotalCost(in.FoodCost, nil, nil)), leftX, ly, labelW, valueW)

	ry := cv.drawLabelValueRow("Outros", FormatCurrency(TotalCost(in.OtherCosts, nil, nil)), rightX, cy, labelW, valueW)
	cv.drawLabelValueRow("Total geral", FormatCurrency(grandTotalCost(in)), rightX, ry, labelW, valueW)

	return y + h
}

// supportCards renders one card per active support slot. A slot with no
// agent and no km/cost activity produces no card at all.
func (cp *composer) supportCards(y, cardWidth float64) {
	type slot struct {
		label string
		data  *SupportAgent
	}
	slots := []slot{
		{"APOIO 1", cp.in.SupportAgent1},
		{"APOIO 2", cp.in.SupportAgent2},
	}

	const h = 44.0
	col := 0
	for _, s := range slots {
		if !s.data.Active() {
			continue
		}
		x := pageMargin + float64(col)*(cardWidth+cardGap)
		cp.supportCard(s.label, s.data, x, y, cardWidth, h)
		col++
	}
}

func (cp *composer) supportCard(title string, s *SupportAgent, x, y, w, h float64) {
	cv := cp.cv
	cv.drawCard(x, y, w, h)
	cy := cv.drawCardTitle(title, x+cardPadding, y+3, w-2*cardPadding)

	labelW := 24.0
	valueW := w - 2*cardPadding - labelW

	name := placeholder
	if s.Agent != nil && s.Agent.Name != "" {
		armament := "desarmado"
		if s.Agent.Armed {
			armament = "armado"
		}
		name = fmt.Sprintf("%s (%s)", s.Agent.Name, armament)
	}
	cy = cv.drawLabelValueRow("Agente", name, x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Chegada", FormatDateTimePtr(s.Arrival), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Saída", FormatDateTimePtr(s.Departure), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Duração", FormatMinutes(ElapsedMinutes(s.Arrival, s.Departure)), x+cardPadding, cy, labelW, valueW)
	cy = cv.drawLabelValueRow("Distância", FormatKm(DistanceKm(s.KmStart, s.KmEnd)), x+cardPadding, cy, labelW, valueW)
	cv.drawLabelValueRow("Custos", FormatCurrency(TotalCost(s.TollCost, s.FoodCost, s.OtherCosts)), x+cardPadding, cy, labelW, valueW)
}

// narrativePages renders the short summary and the detailed report.
// The detailed text is reflowed against measured glyph widths; whenever
// the next line would cross the usable height the current page is
// closed (footer), a new one opened (header, continuation bar, fresh
// text frame) and emission continues, so a long report spans any number
// of visually consistent pages.
func (cp *composer) narrativePages() {
	cv := cp.cv

	cp.pdf.AddPage()
	y := cv.drawHeader()

	y = cv.drawSectionTitle("Resumo da Ocorrência", pageMargin, y, contentWidth)
	y = cp.summaryTextBlock(y) + 5

	y = cv.drawSectionTitle("Relatório Detalhado", pageMargin, y, contentWidth)
	cp.detailedTextPages(y)

	cv.drawFooter(cp.generatedAt)
}

// summaryTextBlock draws the <=500 char summary in a card sized to its
// reflowed line count. It never paginates.
func (cp *composer) summaryTextBlock(y float64) float64 {
	cv := cp.cv

	cp.pdf.SetFont("Arial", "", 9.5)
	text := cv.tr(orPlaceholder(strings.TrimSpace(cp.in.Summary)))
	lines := cp.pdf.SplitText(text, contentWidth-2*cardPadding)

	h := float64(len(lines))*lineHeight + 2*cardPadding
	cv.drawCard(pageMargin, y, contentWidth, h)

	cp.pdf.SetTextColor(cv.theme.TextDark[0], cv.theme.TextDark[1], cv.theme.TextDark[2])
	ty := y + cardPadding
	for _, line := range lines {
		cp.pdf.SetXY(pageMargin+cardPadding, ty)
		cp.pdf.CellFormat(contentWidth-2*cardPadding, lineHeight, line, "", 0, "L", false, 0, "")
		ty += lineHeight
	}
	return y + h
}

// detailedTextPages emits the detailed report with overflow-driven
// pagination. Each page gets a full-height text frame so continuation
// pages look like the first.
func (cp *composer) detailedTextPages(y float64) {
	cv := cp.cv

	cp.pdf.SetFont("Arial", "", 9.5)
	text := cv.tr(orPlaceholder(strings.TrimSpace(cp.in.DetailedReport)))
	lines := cp.pdf.SplitText(text, contentWidth-2*cardPadding)

	frame := func(top float64) float64 {
		cv.drawCard(pageMargin, top, contentWidth, cp.bottom()-top)
		return top + cardPadding
	}

	textY := frame(y)
	limit := cp.bottom() - cardPadding

	cp.pdf.SetTextColor(cv.theme.TextDark[0], cv.theme.TextDark[1], cv.theme.TextDark[2])
	for _, line := range lines {
		if textY+lineHeight > limit {
			cv.drawFooter(cp.generatedAt)
			cp.pdf.AddPage()
			top := cv.drawHeader()
			top = cv.drawSectionTitle("Relatório Detalhado (continuação)", pageMargin, top, contentWidth)
			textY = frame(top)
			cp.pdf.SetFont("Arial", "", 9.5)
			cp.pdf.SetTextColor(cv.theme.TextDark[0], cv.theme.TextDark[1], cv.theme.TextDark[2])
		}
		cp.pdf.SetXY(pageMargin+cardPadding, textY)
		cp.pdf.CellFormat(contentWidth-2*cardPadding, lineHeight, line, "", 0, "L", false, 0, "")
		textY += lineHeight
	}
}

// photoPages partitions photos into fixed groups of four and lays each
// group on a 2x2 grid. Photos are fetched strictly sequentially in
// document order; a failed fetch degrades to a placeholder cell and
// never aborts the document.
func (cp *composer) photoPages(ctx context.Context) {
	n := len(cp.in.Photos)
	if n == 0 {
		return
	}
	cv := cp.cv
	pages := (n + photosPerPage - 1) / photosPerPage

	for p := 0; p < pages; p++ {
		cp.pdf.AddPage()
		y := cv.drawHeader()
		y = cv.drawSectionTitle("Registro Fotográfico", pageMargin, y, contentWidth) + 2

		cellWidth := (contentWidth - cardGap) / 2
		cellHeight := (cp.bottom() - y - cardGap) / 2

		last := min(p*photosPerPage+photosPerPage, n)
		for idx := p * photosPerPage; idx < last; idx++ {
			i := idx % photosPerPage
			x := pageMargin + float64(i%2)*(cellWidth+cardGap)
			cy := y + float64(i/2)*(cellHeight+cardGap)
			cp.photoCell(ctx, idx, x, cy, cellWidth, cellHeight)
		}

		cv.drawFooter(cp.generatedAt)
	}
}

func (cp *composer) photoCell(ctx context.Context, idx int, x, y, w, h float64) {
	cv := cp.cv
	photo := cp.in.Photos[idx]

	cv.drawCard(x, y, w, h)

	imgX := x + cardPadding
	imgY := y + cardPadding
	imgW := w - 2*cardPadding
	imgH := h - 2*cardPadding - 7 // caption strip

	drawn := false
	if cp.loader != nil {
		data, err := cp.loader.Fetch(ctx, photo.URL)
		if err != nil {
			cp.log.Warn().Err(err).Str("url", photo.URL).Int("photo", idx+1).
				Msg("Photo unavailable, rendering placeholder")
		} else {
			drawn = cp.placeImage(idx, data, imgX, imgY, imgW, imgH)
		}
	}
	if !drawn {
		cp.photoPlaceholder(imgX, imgY, imgW, imgH)
	}

	// Index badge
	cp.pdf.SetFillColor(cv.theme.Secondary[0], cv.theme.Secondary[1], cv.theme.Secondary[2])
	cp.pdf.Circle(x+7, y+7, 3.6, "F")
	cp.pdf.SetFont("Arial", "B", 8)
	cp.pdf.SetTextColor(255, 255, 255)
	cp.pdf.SetXY(x+3.4, y+4.8)
	cp.pdf.CellFormat(7.2, 4.4, fmt.Sprintf("%d", idx+1), "", 0, "C", false, 0, "")

	// First wrapped caption line only; captions are not reflowed so the
	// grid stays uniform.
	if photo.Caption != nil && strings.TrimSpace(*photo.Caption) != "" {
		cp.pdf.SetFont("Arial", "I", 8)
		cp.pdf.SetTextColor(cv.theme.TextMuted[0], cv.theme.TextMuted[1], cv.theme.TextMuted[2])
		lines := cp.pdf.SplitText(cv.tr(strings.TrimSpace(*photo.Caption)), imgW)
		if len(lines) > 0 {
			cp.pdf.SetXY(imgX, y+h-cardPadding-5)
			cp.pdf.CellFormat(imgW, 5, lines[0], "", 0, "L", false, 0, "")
		}
	}
}

// placeImage registers the fetched JPEG and draws it inset into the
// cell, centered and aspect-preserving, with a thin border. A register
// failure clears the fpdf error state so one bad bitmap cannot poison
// the rest of the document.
func (cp *composer) placeImage(idx int, data []byte, x, y, w, h float64) bool {
	name := fmt.Sprintf("photo-%d", idx)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	info := cp.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if info == nil || !cp.pdf.Ok() {
		cp.pdf.ClearError()
		cp.log.Warn().Int("photo", idx+1).Msg("Photo bitmap rejected, rendering placeholder")
		return false
	}

	iw, ih := info.Extent()
	if iw <= 0 || ih <= 0 {
		return false
	}
	scale := math.Min(w/iw, h/ih)
	dw, dh := iw*scale, ih*scale
	dx := x + (w-dw)/2
	dy := y + (h-dh)/2

	cp.pdf.ImageOptions(name, dx, dy, dw, dh, false, opts, 0, "")

	cv := cp.cv
	cp.pdf.SetDrawColor(cv.theme.GridLine[0], cv.theme.GridLine[1], cv.theme.GridLine[2])
	cp.pdf.SetLineWidth(0.3)
	cp.pdf.Rect(dx, dy, dw, dh, "D")
	return true
}

func (cp *composer) photoPlaceholder(x, y, w, h float64) {
	cv := cp.cv

	cp.pdf.SetFillColor(cv.theme.Background[0], cv.theme.Background[1], cv.theme.Background[2])
	cp.pdf.SetDrawColor(cv.theme.GridLine[0], cv.theme.GridLine[1], cv.theme.GridLine[2])
	cp.pdf.SetLineWidth(0.3)
	cp.pdf.SetDashPattern([]float64{1.5, 1.5}, 0)
	cp.pdf.Rect(x, y, w, h, "FD")
	cp.pdf.SetDashPattern([]float64{}, 0)

	cp.pdf.SetFont("Arial", "I", 9)
	cp.pdf.SetTextColor(cv.theme.TextMuted[0], cv.theme.TextMuted[1], cv.theme.TextMuted[2])
	cp.pdf.SetXY(x, y+h/2-3)
	cp.pdf.CellFormat(w, 6, cv.tr("Imagem indisponível"), "", 0, "C", false, 0, "")
}

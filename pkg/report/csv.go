package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	reporterrors "github.com/vigiaops/fieldreport/internal/errors"
)

// CSVGenerator renders the flat summary variant of a ticket report,
// with the same derived metrics and locale formatting as the PDF.
type CSVGenerator struct {
	now func() time.Time
}

// NewCSVGenerator creates a new CSV generator.
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{now: time.Now}
}

// WithCSVClock pins the generation timestamp.
func (g *CSVGenerator) WithCSVClock(now func() time.Time) *CSVGenerator {
	g.now = now
	return g
}

// Generate creates a CSV summary from the provided snapshot.
func (g *CSVGenerator) Generate(in *ReportInput) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := g.writeHeader(w, in); err != nil {
		return nil, reporterrors.New(reporterrors.TypeEmit, "write_csv_header", "", err)
	}
	if err := g.writeTicket(w, in); err != nil {
		return nil, reporterrors.New(reporterrors.TypeEmit, "write_csv_ticket", "", err)
	}
	if err := g.writeTeam(w, in); err != nil {
		return nil, reporterrors.New(reporterrors.TypeEmit, "write_csv_team", "", err)
	}
	if err := g.writePhotos(w, in); err != nil {
		return nil, reporterrors.New(reporterrors.TypeEmit, "write_csv_photos", "", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, reporterrors.New(reporterrors.TypeEmit, "flush_csv", "", err)
	}
	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeHeader(w *csv.Writer, in *ReportInput) error {
	rows := [][]string{
		{"# Relatório de Atendimento"},
		{"# Chamado:", strOrPlaceholder(in.Code)},
		{"# Tipo:", ServiceTypeDisplayName(in.ServiceType)},
		{"# Status:", orPlaceholder(in.Status)},
		{"# Gerado em:", FormatDateTime(g.now())},
		{""},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *CSVGenerator) writeTicket(w *csv.Writer, in *ReportInput) error {
	start := in.StartDatetime
	rows := [][]string{
		{"# ATENDIMENTO"},
		{"Cliente", orPlaceholder(in.Client.Name)},
		{"Plano", orPlaceholder(in.Plan.Name)},
		{"Cidade", orPlaceholder(in.City)},
		{"UF", orPlaceholder(in.State)},
		{"Início", FormatDateTime(start)},
		{"Término", FormatDateTimePtr(in.EndDatetime)},
		{"Duração", FormatMinutes(ElapsedMinutes(&start, in.EndDatetime))},
		{"Distância", FormatKm(DistanceKm(in.KmStart, in.KmEnd))},
		{"Pedágio", FormatCurrency(TotalCost(in.TollCost, nil, nil))},
		{"Alimentação", FormatCurrency(TotalCost(in.FoodCost, nil, nil))},
		{"Outros custos", FormatCurrency(TotalCost(in.OtherCosts, nil, nil))},
		{"Custo total", FormatCurrency(grandTotalCost(in))},
		{""},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *CSVGenerator) writeTeam(w *csv.Writer, in *ReportInput) error {
	if err := w.Write([]string{"# EQUIPE"}); err != nil {
		return err
	}
	if err := w.Write([]string{"Efetivo", MobilizedSummary(&in.PrimaryAgent,
		supportAgentRef(in.SupportAgent1), supportAgentRef(in.SupportAgent2))}); err != nil {
		return err
	}

	if err := w.Write([]string{"Agente", "Função", "Chegada", "Saída", "Distância", "Custos"}); err != nil {
		return err
	}
	primaryStart := in.StartDatetime
	primary := []string{
		orPlaceholder(in.PrimaryAgent.Name), "Principal",
		FormatDateTime(primaryStart), FormatDateTimePtr(in.EndDatetime),
		FormatKm(DistanceKm(in.KmStart, in.KmEnd)),
		FormatCurrency(TotalCost(in.TollCost, in.FoodCost, in.OtherCosts)),
	}
	if err := w.Write(primary); err != nil {
		return err
	}

	slots := []struct {
		label string
		data  *SupportAgent
	}{
		{"Apoio 1", in.SupportAgent1},
		{"Apoio 2", in.SupportAgent2},
	}
	for _, s := range slots {
		if !s.data.Active() {
			continue
		}
		name := placeholder
		if s.data.Agent != nil {
			name = orPlaceholder(s.data.Agent.Name)
		}
		row := []string{
			name, s.label,
			FormatDateTimePtr(s.data.Arrival), FormatDateTimePtr(s.data.Departure),
			FormatKm(DistanceKm(s.data.KmStart, s.data.KmEnd)),
			FormatCurrency(TotalCost(s.data.TollCost, s.data.FoodCost, s.data.OtherCosts)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Write([]string{""})
}

func (g *CSVGenerator) writePhotos(w *csv.Writer, in *ReportInput) error {
	if len(in.Photos) == 0 {
		return nil
	}
	if err := w.Write([]string{"# FOTOS"}); err != nil {
		return err
	}
	for i, p := range in.Photos {
		caption := ""
		if p.Caption != nil {
			caption = *p.Caption
		}
		if err := w.Write([]string{fmt.Sprintf("%d", i+1), p.URL, caption}); err != nil {
			return err
		}
	}
	return nil
}

// grandTotalCost sums ticket-level costs with every active support
// slot's own costs.
func grandTotalCost(in *ReportInput) float64 {
	total := TotalCost(in.TollCost, in.FoodCost, in.OtherCosts)
	for _, s := range []*SupportAgent{in.SupportAgent1, in.SupportAgent2} {
		if s.Active() {
			total += TotalCost(s.TollCost, s.FoodCost, s.OtherCosts)
		}
	}
	return total
}

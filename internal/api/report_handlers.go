package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vigiaops/fieldreport/internal/logging"
	"github.com/vigiaops/fieldreport/pkg/report"
)

// maxSnapshotBytes bounds the accepted request body. Snapshots are
// small; anything larger is malformed or hostile.
const maxSnapshotBytes = 2 << 20

// PDFEngine renders the paginated document for one snapshot.
type PDFEngine interface {
	Generate(ctx context.Context, in *report.ReportInput) ([]byte, error)
}

// CSVEngine renders the flat summary variant.
type CSVEngine interface {
	Generate(in *report.ReportInput) ([]byte, error)
}

// ReportHandlers handles report generation requests.
type ReportHandlers struct {
	pdf PDFEngine
	csv CSVEngine
	log zerolog.Logger
}

// NewReportHandlers creates report handlers over the given engines.
func NewReportHandlers(pdf PDFEngine, csv CSVEngine) *ReportHandlers {
	return &ReportHandlers{
		pdf: pdf,
		csv: csv,
		log: logging.WithComponent("reports"),
	}
}

// HandleGenerateReport accepts a resolved ticket snapshot and responds
// with the generated document as an attachment. The snapshot arrives
// pre-validated from the data assembler; the handler only rejects
// payloads it cannot decode.
func (h *ReportHandlers) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := report.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = report.FormatPDF
	}
	if format != report.FormatPDF && format != report.FormatCSV {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'", nil)
		return
	}

	var in report.ReportInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err := dec.Decode(&in); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid ticket snapshot", nil)
		return
	}

	var data []byte
	var err error
	switch format {
	case report.FormatCSV:
		data, err = h.csv.Generate(&in)
	default:
		data, err = h.pdf.Generate(r.Context(), &in)
	}
	if err != nil {
		h.log.Error().Err(err).Str("request_id", logging.RequestIDFromContext(r.Context())).
			Msg("Report generation failed")
		writeErrorResponse(w, http.StatusInternalServerError, "generation_failed", "Failed to generate report", nil)
		return
	}

	filename := report.Filename(in.Code, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Write(data)
}

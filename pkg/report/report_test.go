package report

import (
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		code     *string
		format   Format
		expected string
	}{
		{"plain code", ptrString("CH-001"), FormatPDF, "Relatorio_CH-001.pdf"},
		{"csv extension", ptrString("CH-001"), FormatCSV, "Relatorio_CH-001.csv"},
		{"nil code", nil, FormatPDF, "Relatorio_sem-codigo.pdf"},
		{"blank code", ptrString("   "), FormatPDF, "Relatorio_sem-codigo.pdf"},
		{"slash replaced", ptrString("CH/2026"), FormatPDF, "Relatorio_CH-2026.pdf"},
		{"spaces replaced", ptrString("CH 2026 A"), FormatPDF, "Relatorio_CH_2026_A.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.code, tt.format); got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename(`CH"001\x:y`); strings.ContainsAny(got, `"\:`) {
		t.Errorf("header-breaking characters survived: %q", got)
	}
	long := strings.Repeat("A", 100)
	if got := sanitizeFilename(long); len(got) != 64 {
		t.Errorf("expected 64-char cap, got %d", len(got))
	}
}

func TestFormatContentType(t *testing.T) {
	if got := FormatPDF.ContentType(); got != "application/pdf" {
		t.Errorf("unexpected PDF content type %q", got)
	}
	if got := FormatCSV.ContentType(); got != "text/csv" {
		t.Errorf("unexpected CSV content type %q", got)
	}
}

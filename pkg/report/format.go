package report

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// placeholder is rendered wherever an optional value is absent or
// inconsistent.
const placeholder = "-"

// ptBR localizes number output (comma decimal separator). Date/time and
// currency formats below are part of the output contract and must stay
// byte-stable for golden-file comparisons.
var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatDateTime renders a timestamp as dd/MM/yyyy 'às' HH:mm.
func FormatDateTime(t time.Time) string {
	return t.Format("02/01/2006") + " às " + t.Format("15:04")
}

// FormatDateTimePtr renders an optional timestamp, or the placeholder.
func FormatDateTimePtr(t *time.Time) string {
	if t == nil {
		return placeholder
	}
	return FormatDateTime(*t)
}

// FormatCurrency renders a value as "R$ 0,00".
func FormatCurrency(v float64) string {
	return ptBR.Sprintf("R$ %.2f", v)
}

// FormatKm renders an optional distance with a km suffix. Whole values
// drop the decimals.
func FormatKm(v *float64) string {
	if v == nil {
		return placeholder
	}
	if *v == float64(int64(*v)) {
		return ptBR.Sprintf("%.0f km", *v)
	}
	return ptBR.Sprintf("%.1f km", *v)
}

// FormatMinutes renders an elapsed span as "Xh Ymin" (minutes only
// under an hour). Negative spans come from inverted timing data and
// render the placeholder.
func FormatMinutes(m *int) string {
	if m == nil || *m < 0 {
		return placeholder
	}
	if *m < 60 {
		return fmt.Sprintf("%dmin", *m)
	}
	return fmt.Sprintf("%dh %dmin", *m/60, *m%60)
}

// FormatDurationSentence renders the qualitative duration line used on
// the mobilized-team card.
func FormatDurationSentence(m *int) string {
	if m == nil {
		return "atendimento em andamento"
	}
	if *m < 0 {
		return placeholder
	}
	return "atendimento concluído em " + FormatMinutes(m)
}

// FormatCoordinates renders an optional lat/lng pair.
func FormatCoordinates(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return placeholder
	}
	return fmt.Sprintf("%.4f, %.4f", *lat, *lng)
}

// orPlaceholder substitutes the placeholder for empty strings.
func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// strOrPlaceholder dereferences an optional string.
func strOrPlaceholder(s *string) string {
	if s == nil {
		return placeholder
	}
	return orPlaceholder(*s)
}

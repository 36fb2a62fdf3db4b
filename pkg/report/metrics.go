package report

import (
	"fmt"
	"strings"
	"time"
)

// Derived metrics are pure functions over the snapshot. None of them
// error or panic; missing or inconsistent input degrades to nil (or a
// placeholder string) so the composer always has something definite to
// draw.

// ElapsedMinutes returns whole minutes between start and end, or nil if
// either bound is missing. A negative span is returned as-is; judging
// it invalid is the composer's job.
func ElapsedMinutes(start, end *time.Time) *int {
	if start == nil || end == nil {
		return nil
	}
	m := int(end.Sub(*start) / time.Minute)
	return &m
}

// DistanceKm returns end-start when both readings are present and
// consistent. An inverted odometer pair (end < start) yields nil, the
// deliberate "not renderable" sentinel, never a clamped zero. The same
// rule applies to ticket-level and per-support-agent readings.
func DistanceKm(start, end *float64) *float64 {
	if start == nil || end == nil {
		return nil
	}
	if *end < *start {
		return nil
	}
	d := *end - *start
	return &d
}

// TotalCost sums toll, food and other costs. Costs are additive fields,
// never partial-unknown: a missing component counts as zero.
func TotalCost(toll, food, other *float64) float64 {
	var total float64
	for _, c := range []*float64{toll, food, other} {
		if c != nil {
			total += *c
		}
	}
	return total
}

// MobilizedSummary builds the mobilized-personnel line counting armed
// and unarmed agents among the up to three present, in the fixed order
// "N agentes armados + M agentes desarmados". A zero-count clause is
// omitted; with no agents at all it returns the placeholder.
func MobilizedSummary(primary, support1, support2 *AgentRef) string {
	var armed, unarmed int
	for _, a := range []*AgentRef{primary, support1, support2} {
		if a == nil || strings.TrimSpace(a.Name) == "" {
			continue
		}
		if a.Armed {
			armed++
		} else {
			unarmed++
		}
	}

	var parts []string
	if armed > 0 {
		parts = append(parts, fmt.Sprintf("%d agentes armados", armed))
	}
	if unarmed > 0 {
		parts = append(parts, fmt.Sprintf("%d agentes desarmados", unarmed))
	}
	if len(parts) == 0 {
		return placeholder
	}
	return strings.Join(parts, " + ")
}

package report

import (
	"strings"
	"time"
)

// ServiceType identifies the kind of field service a ticket covers.
type ServiceType string

const (
	ServiceAlarm         ServiceType = "alarme"
	ServiceInvestigation ServiceType = "averiguacao"
	ServicePreservation  ServiceType = "preservacao"
	ServiceEscort        ServiceType = "escolta-logistica"
)

// ServiceTypeDisplayName returns a human-readable name for a service type.
func ServiceTypeDisplayName(t ServiceType) string {
	switch t {
	case ServiceAlarm:
		return "Alarme"
	case ServiceInvestigation:
		return "Averiguação"
	case ServicePreservation:
		return "Preservação"
	case ServiceEscort:
		return "Escolta Logística"
	default:
		return string(t)
	}
}

// Client is the requesting customer attached to a ticket.
type Client struct {
	Name         string `json:"name"`
	ContactPhone string `json:"contactPhone"`
}

// AgentRef is a field operative reference. Armed feeds the
// mobilized-personnel summary.
type AgentRef struct {
	Name  string `json:"name"`
	Armed bool   `json:"armed"`
}

// SupportAgent is a secondary agent slot with its own arrival/departure,
// odometer and cost sub-records.
type SupportAgent struct {
	Agent      *AgentRef  `json:"agent,omitempty"`
	Arrival    *time.Time `json:"arrival,omitempty"`
	Departure  *time.Time `json:"departure,omitempty"`
	KmStart    *float64   `json:"kmStart,omitempty"`
	KmEnd      *float64   `json:"kmEnd,omitempty"`
	TollCost   *float64   `json:"tollCost,omitempty"`
	FoodCost   *float64   `json:"foodCost,omitempty"`
	OtherCosts *float64   `json:"otherCosts,omitempty"`
}

// Active reports whether the slot carries anything worth rendering.
// A slot with no agent name and no km/cost activity is omitted entirely.
func (s *SupportAgent) Active() bool {
	if s == nil {
		return false
	}
	if s.Agent != nil && strings.TrimSpace(s.Agent.Name) != "" {
		return true
	}
	return s.KmStart != nil || s.KmEnd != nil ||
		s.TollCost != nil || s.FoodCost != nil || s.OtherCosts != nil
}

// Trailer is a plate/body pair attached to the tractor unit.
type Trailer struct {
	Plate    string `json:"plate"`
	BodyType string `json:"bodyType"`
}

// Vehicle describes the escorted or attended vehicle set. Up to three
// trailers are rendered; extras are ignored by the composer.
type Vehicle struct {
	Description  string    `json:"description"`
	TractorPlate string    `json:"tractorPlate"`
	TractorBrand string    `json:"tractorBrand"`
	TractorModel string    `json:"tractorModel"`
	Trailers     []Trailer `json:"trailers,omitempty"`
}

// Plan is the service plan the ticket was opened under.
type Plan struct {
	Name string `json:"name"`
}

// Photo is an ordered photo descriptor. Order is preserved from input.
type Photo struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption,omitempty"`
}

// ReportInput is the fully-resolved, immutable ticket snapshot the
// generator consumes. All relations are pre-resolved upstream; the
// generator performs no lookups of its own and does not re-validate
// required fields.
type ReportInput struct {
	Code        *string     `json:"code,omitempty"`
	ServiceType ServiceType `json:"serviceType"`
	Status      string      `json:"status"`

	City  string   `json:"city"`
	State string   `json:"state"`
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`

	StartDatetime time.Time  `json:"startDatetime"`
	EndDatetime   *time.Time `json:"endDatetime,omitempty"`

	KmStart    *float64 `json:"kmStart,omitempty"`
	KmEnd      *float64 `json:"kmEnd,omitempty"`
	TollCost   *float64 `json:"tollCost,omitempty"`
	FoodCost   *float64 `json:"foodCost,omitempty"`
	OtherCosts *float64 `json:"otherCosts,omitempty"`

	Client        Client        `json:"client"`
	PrimaryAgent  AgentRef      `json:"primaryAgent"`
	SupportAgent1 *SupportAgent `json:"supportAgent1,omitempty"`
	SupportAgent2 *SupportAgent `json:"supportAgent2,omitempty"`
	Vehicle       Vehicle       `json:"vehicle"`
	Plan          Plan          `json:"plan"`
	OperatorName  *string       `json:"operatorName,omitempty"`

	Summary        string `json:"summary"`
	DetailedReport string `json:"detailedReport"`

	Photos []Photo `json:"photos,omitempty"`
}

// Branding carries the issuing company identity printed on every page.
// It is injected into the generator so the core stays tenant-neutral.
type Branding struct {
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Website     string `json:"website"`
	// Logo is optional PNG bytes; the header falls back to text-only
	// branding when absent.
	Logo []byte `json:"-"`
}

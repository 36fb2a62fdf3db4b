package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
)

// stubLoader serves canned photo bytes keyed by URL and records the
// fetch order.
type stubLoader struct {
	data  map[string][]byte
	fail  map[string]bool
	calls []string
}

func (s *stubLoader) Fetch(_ context.Context, url string) ([]byte, error) {
	s.calls = append(s.calls, url)
	if s.fail[url] {
		return nil, errors.New("stub fetch failure")
	}
	if d, ok := s.data[url]; ok {
		return d, nil
	}
	return nil, errors.New("unknown url")
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 120, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode fixture jpeg: %v", err)
	}
	return buf.Bytes()
}

func testClock() func() time.Time {
	ts := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func testBranding() Branding {
	return Branding{
		CompanyName: "Vigia Operações Ltda",
		Address:     "Av. Paulista 1000, São Paulo - SP",
		Phone:       "(11) 4002-8922",
		Email:       "contato@vigiaops.com.br",
		Website:     "www.vigiaops.com.br",
	}
}

// createTestInput builds a fully-populated escort ticket snapshot.
func createTestInput() *ReportInput {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(2*time.Hour + 35*time.Minute)
	caption := "Comboio posicionado no pátio"

	return &ReportInput{
		Code:          ptrString("CH-001"),
		ServiceType:   ServiceEscort,
		Status:        "Finalizado",
		City:          "Campinas",
		State:         "SP",
		Lat:           ptrFloat(-22.9099),
		Lng:           ptrFloat(-47.0626),
		StartDatetime: start,
		EndDatetime:   &end,
		KmStart:       ptrFloat(12345),
		KmEnd:         ptrFloat(12420),
		TollCost:      ptrFloat(45.5),
		FoodCost:      ptrFloat(28),
		OtherCosts:    ptrFloat(10),
		Client:        Client{Name: "Transportes ABC", ContactPhone: "(19) 3333-4444"},
		PrimaryAgent:  AgentRef{Name: "Carlos Silva", Armed: true},
		Vehicle: Vehicle{
			Description:  "Carreta baú",
			TractorPlate: "ABC1D23",
			TractorBrand: "Scania",
			TractorModel: "R450",
			Trailers: []Trailer{
				{Plate: "XYZ9A87", BodyType: "Baú"},
			},
		},
		Plan:           Plan{Name: "Escolta Premium"},
		OperatorName:   ptrString("Maria Souza"),
		Summary:        "Escolta realizada sem intercorrências no trecho Campinas-Jundiaí.",
		DetailedReport: "Equipe posicionada às 14h no ponto de origem. Comboio seguiu pela rodovia sem paradas não programadas.",
		Photos: []Photo{
			{URL: "http://photos/1.jpg", Caption: &caption},
			{URL: "http://photos/2.jpg"},
		},
	}
}

// renderInspectable runs the composer with stream compression off so
// tests can search page content for literal text.
func renderInspectable(t *testing.T, g *Generator, in *ReportInput) (*fpdf.Fpdf, string) {
	t.Helper()
	pdf := g.newDocument(in, g.now())
	pdf.SetCompression(false)
	if err := g.compose(context.Background(), pdf, in, g.now()); err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output failed: %v", err)
	}
	return pdf, buf.String()
}

func TestGeneratePDFMagic(t *testing.T) {
	g := NewGenerator(testBranding(), WithClock(testClock()), WithPhotoLoader(&stubLoader{}))

	data, err := g.Generate(context.Background(), createTestInput())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Error("missing PDF magic bytes")
	}
	if len(data) < 1000 {
		t.Errorf("PDF seems too small: %d bytes", len(data))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	jpg := testJPEG(t, 320, 240)
	newGen := func() *Generator {
		return NewGenerator(testBranding(),
			WithClock(testClock()),
			WithPhotoLoader(&stubLoader{data: map[string][]byte{
				"http://photos/1.jpg": jpg,
				"http://photos/2.jpg": jpg,
			}}),
		)
	}

	first, err := newGen().Generate(context.Background(), createTestInput())
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	second, err := newGen().Generate(context.Background(), createTestInput())
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical snapshot and clock must yield identical bytes")
	}
}

func TestComposePageCountWithoutPhotos(t *testing.T) {
	g := NewGenerator(testBranding(), WithClock(testClock()))
	in := createTestInput()
	in.Photos = nil

	pdf, _ := renderInspectable(t, g, in)
	if got := pdf.PageCount(); got != 2 {
		t.Fatalf("expected 2 pages (summary + narrative), got %d", got)
	}
}

func TestComposeLongReportPaginates(t *testing.T) {
	g := NewGenerator(testBranding(), WithClock(testClock()))
	in := createTestInput()
	in.Photos = nil
	in.DetailedReport = strings.Repeat("Equipe manteve vigilância contínua no perímetro durante toda a madrugada. ", 300)

	pdf, content := renderInspectable(t, g, in)
	if got := pdf.PageCount(); got < 3 {
		t.Fatalf("long report must span extra pages, got %d", got)
	}
	if !strings.Contains(content, "(continua") {
		t.Error("continuation pages must carry the continuation marker")
	}
}

func TestComposePhotoPagination(t *testing.T) {
	jpg := testJPEG(t, 200, 150)
	loader := &stubLoader{data: map[string][]byte{}}

	in := createTestInput()
	in.Photos = nil
	urls := []string{"http://p/1", "http://p/2", "http://p/3", "http://p/4", "http://p/5"}
	for _, u := range urls {
		loader.data[u] = jpg
		in.Photos = append(in.Photos, Photo{URL: u})
	}

	g := NewGenerator(testBranding(), WithClock(testClock()), WithPhotoLoader(loader))
	pdf, _ := renderInspectable(t, g, in)

	// summary + narrative + ceil(5/4) photo pages
	if got := pdf.PageCount(); got != 4 {
		t.Fatalf("expected 4 pages for 5 photos, got %d", got)
	}
	// Photos are fetched strictly in document order.
	if len(loader.calls) != 5 {
		t.Fatalf("expected 5 fetches, got %d", len(loader.calls))
	}
	for i, u := range urls {
		if loader.calls[i] != u {
			t.Fatalf("fetch %d out of order: %s", i, loader.calls[i])
		}
	}
}

func TestComposeInactiveSupportOmitted(t *testing.T) {
	g := NewGenerator(testBranding(), WithClock(testClock()))
	in := createTestInput()
	in.Photos = nil
	in.SupportAgent1 = &SupportAgent{} // no agent, no activity
	in.SupportAgent2 = nil

	_, content := renderInspectable(t, g, in)
	if strings.Contains(content, "APOIO 1") {
		t.Error("inactive support slot must not produce a card")
	}
}

func TestComposeActiveSupportRendered(t *testing.T) {
	g := NewGenerator(testBranding(), WithClock(testClock()))
	in := createTestInput()
	in.Photos = nil
	arr := in.StartDatetime.Add(20 * time.Minute)
	in.SupportAgent1 = &SupportAgent{
		Agent:    &AgentRef{Name: "Rafael Lima", Armed: false},
		Arrival:  &arr,
		TollCost: ptrFloat(12),
	}

	_, content := renderInspectable(t, g, in)
	if !strings.Contains(content, "APOIO 1") {
		t.Error("active support slot must produce a card")
	}
	if strings.Contains(content, "APOIO 2") {
		t.Error("absent second slot must not produce a card")
	}
	if !strings.Contains(content, "Rafael Lima") {
		t.Error("support agent name missing from card")
	}
}

func TestComposePhotoFailureIsolated(t *testing.T) {
	jpg := testJPEG(t, 200, 150)
	loader := &stubLoader{
		data: map[string][]byte{},
		fail: map[string]bool{"http://p/3": true},
	}

	in := createTestInput()
	in.Photos = nil
	for _, u := range []string{"http://p/1", "http://p/2", "http://p/3", "http://p/4", "http://p/5"} {
		loader.data[u] = jpg
		in.Photos = append(in.Photos, Photo{URL: u})
	}

	g := NewGenerator(testBranding(), WithClock(testClock()), WithPhotoLoader(loader))
	pdf, content := renderInspectable(t, g, in)

	if got := pdf.PageCount(); got != 4 {
		t.Fatalf("failed photo must not change pagination, got %d pages", got)
	}
	if !strings.Contains(content, "Imagem indispon") {
		t.Error("failed photo must render the placeholder cell")
	}
	if !pdf.Ok() {
		t.Fatalf("document poisoned by a single photo failure: %v", pdf.Error())
	}
}

func TestComposeBadBitmapCleared(t *testing.T) {
	loader := &stubLoader{data: map[string][]byte{
		"http://photos/1.jpg": []byte("definitely not a jpeg"),
		"http://photos/2.jpg": testJPEG(t, 100, 100),
	}}
	g := NewGenerator(testBranding(), WithClock(testClock()), WithPhotoLoader(loader))

	pdf, content := renderInspectable(t, g, createTestInput())
	if !pdf.Ok() {
		t.Fatalf("rejected bitmap must not poison the document: %v", pdf.Error())
	}
	if !strings.Contains(content, "Imagem indispon") {
		t.Error("rejected bitmap must render the placeholder cell")
	}
}

func TestComposeSummaryContent(t *testing.T) {
	g := NewGenerator(testBranding(), WithClock(testClock()))
	in := createTestInput()
	in.Photos = nil

	_, content := renderInspectable(t, g, in)
	for _, want := range []string{
		"CH-001",
		"Transportes ABC",
		"SOLICITANTE",
		"EQUIPE MOBILIZADA",
		"Carlos Silva",
		"ABC1D23",
		"75 km",
		"2h 35min",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("summary page missing %q", want)
		}
	}
}

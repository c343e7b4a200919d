package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/stemsplit/internal/apidocs"
	"github.com/ManuGH/stemsplit/internal/catalog"
	"github.com/ManuGH/stemsplit/internal/upload"
)

// Pages serves the site's HTML routes.
type Pages struct {
	renderer *Renderer
	docs     *apidocs.Document
	// maxBytes is read per request so config reloads apply.
	maxBytes func() int64
}

// NewPages wires the page handlers.
func NewPages(r *Renderer, docs *apidocs.Document, maxBytes func() int64) *Pages {
	if maxBytes == nil {
		maxBytes = func() int64 { return upload.DefaultMaxBytes }
	}
	return &Pages{renderer: r, docs: docs, maxBytes: maxBytes}
}

// Mount registers the page routes on r.
func (p *Pages) Mount(r chi.Router) {
	r.Get("/", p.Home)
	r.Get("/models", p.Models)
	r.Get("/pricing", p.Pricing)
	r.Get("/api-docs", p.APIDocs)
	r.Get("/demo", p.Demo)
	r.Get("/upload", p.Upload)
}

type homeContent struct {
	Features []catalog.Feature
	Models   []catalog.Model
}

func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	p.renderer.Render(w, r, http.StatusOK, PageHome, "", homeContent{
		Features: catalog.Features(),
		Models:   catalog.Models(),
	})
}

type modelsContent struct {
	Models []catalog.Model
}

func (p *Pages) Models(w http.ResponseWriter, r *http.Request) {
	p.renderer.Render(w, r, http.StatusOK, PageModels, "Models", modelsContent{Models: catalog.Models()})
}

type planView struct {
	catalog.Plan
	Price  string
	Period string
}

type pricingContent struct {
	Billing catalog.Billing
	Plans   []planView
	FAQs    []catalog.FAQ
}

func (p *Pages) Pricing(w http.ResponseWriter, r *http.Request) {
	billing := catalog.ParseBilling(r.URL.Query().Get("billing"))
	plans := catalog.Plans()
	views := make([]planView, 0, len(plans))
	for _, plan := range plans {
		views = append(views, planView{
			Plan:   plan,
			Price:  catalog.DefaultFormatter.Price(plan.PriceCents(billing)),
			Period: plan.Period(billing),
		})
	}
	p.renderer.Render(w, r, http.StatusOK, PagePricing, "Pricing", pricingContent{
		Billing: billing,
		Plans:   views,
		FAQs:    catalog.FAQs(),
	})
}

type apiContent struct {
	Description string
	ServerURL   string
	Version     string
	QuickStart  string
	Endpoints   []apidocs.Endpoint
	Libraries   []apidocs.ClientLibrary
}

func (p *Pages) APIDocs(w http.ResponseWriter, r *http.Request) {
	p.renderer.Render(w, r, http.StatusOK, PageAPI, "API Documentation", apiContent{
		Description: p.docs.Description(),
		ServerURL:   p.docs.ServerURL(),
		Version:     p.docs.Version(),
		QuickStart:  apidocs.QuickStart(),
		Endpoints:   p.docs.Endpoints(),
		Libraries:   apidocs.ClientLibraries(),
	})
}

type demoContent struct {
	Tracks []catalog.DemoTrack
	Rates  []float64
}

func (p *Pages) Demo(w http.ResponseWriter, r *http.Request) {
	p.renderer.Render(w, r, http.StatusOK, PageDemo, "Demo", demoContent{
		Tracks: catalog.DemoTracks(),
		Rates:  []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0},
	})
}

type statusText struct {
	Label string `json:"label"`
	Hint  string `json:"hint"`
}

type uploadContent struct {
	Models      []catalog.Model
	Selected    string
	Formats     []upload.OutputFormat
	Accept      string
	AcceptLabel string
	MaxBytes    int64
	MaxLabel    string
	StatusText  map[upload.JobStatus]statusText
}

func (p *Pages) Upload(w http.ResponseWriter, r *http.Request) {
	selected := upload.ModelStandard
	if m, err := upload.ParseModel(r.URL.Query().Get("model")); err == nil {
		selected = m
	}

	exts := upload.AcceptedExtensions()
	labels := make([]string, 0, len(exts))
	for _, e := range exts {
		labels = append(labels, strings.ToUpper(strings.TrimPrefix(e, ".")))
	}

	texts := make(map[upload.JobStatus]statusText)
	for _, s := range []upload.JobStatus{
		upload.StatusQueued, upload.StatusProcessing, upload.StatusCompleted,
		upload.StatusFailed, upload.StatusCancelled,
	} {
		texts[s] = statusText{Label: s.Label(), Hint: s.Hint()}
	}

	maxBytes := p.maxBytes()
	p.renderer.Render(w, r, http.StatusOK, PageUpload, "Upload", uploadContent{
		Models:      catalog.Models(),
		Selected:    string(selected),
		Formats:     upload.OutputFormats(),
		Accept:      strings.Join(exts, ","),
		AcceptLabel: strings.Join(labels, ", "),
		MaxBytes:    maxBytes,
		MaxLabel:    sizeLabel(maxBytes),
		StatusText:  texts,
	})
}

type errorContent struct {
	Status  int
	Message string
}

// NotFound renders the error page with 404.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderer.Render(w, r, http.StatusNotFound, PageError, "Not Found", errorContent{
		Status:  http.StatusNotFound,
		Message: "The page you are looking for does not exist.",
	})
}

// sizeLabel renders whole mebibytes as "100MB" like the drop zone hint.
func sizeLabel(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return strconv.FormatInt(n/mib, 10) + "MB"
	}
	return catalog.DefaultFormatter.MegaBytes(n)
}

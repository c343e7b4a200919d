// SPDX-License-Identifier: MIT

// Package catalog holds the product content shown on the site: separation
// models, pricing plans, home page features and demo tracks.
package catalog

import (
	"fmt"
	"time"
)

// Specs are the comparison figures of a model card.
type Specs struct {
	Quality    string `json:"quality"`
	Processing string `json:"processing"`
	Accuracy   string `json:"accuracy"`
	Stems      int    `json:"stems"`
}

// Model is one separation model.
type Model struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tier        string   `json:"tier"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Specs       Specs    `json:"specs"`
	Color       string   `json:"color"`
	// PriceCents is the monthly price; zero means free.
	PriceCents  int64 `json:"priceCents"`
	Recommended bool  `json:"recommended"`
}

// PlanFeature is one row of a plan's checklist.
type PlanFeature struct {
	Title    string `json:"title"`
	Included bool   `json:"included"`
}

// Plan is a subscription tier.
type Plan struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	MonthlyCents int64         `json:"monthlyCents"`
	Features     []PlanFeature `json:"features"`
	CTA          string        `json:"cta"`
	Highlight    bool          `json:"highlight"`
}

// FAQ is a question on the pricing page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Feature is a tile of the home page feature grid.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Stem is one separated part of a demo track.
type Stem struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// DemoTrack is a pre-separated sample.
type DemoTrack struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Duration time.Duration `json:"duration"`
	Image    string        `json:"image"`
	Audio    string        `json:"audio"`
	Stems    []Stem        `json:"stems"`
}

var models = []Model{
	{
		ID:          "standard",
		Name:        "Standard Separator",
		Tier:        "Free",
		Summary:     "4-stem separation (vocals, drums, bass, other) with good quality",
		Description: "Basic 4-stem separation for vocals, drums, bass, and other instruments with good quality results.",
		Features: []string{
			"4-stem separation",
			"Fast processing",
			"Compatible with mp3, wav, flac, mp4",
			"Up to 10 minutes of audio",
		},
		Specs: Specs{Quality: "Good", Processing: "Fast", Accuracy: "Medium", Stems: 4},
		Color: "blue",
	},
	{
		ID:          "advanced",
		Name:        "Advanced Separator",
		Tier:        "Premium",
		Summary:     "Higher quality separation with enhanced vocal isolation and clarity",
		Description: "High-quality separation with enhanced vocal isolation and instrumental clarity for professional results.",
		Features: []string{
			"4-stem separation with enhanced quality",
			"Vocal enhancement technology",
			"Artifact reduction",
			"Up to 30 minutes of audio",
		},
		Specs:       Specs{Quality: "High", Processing: "Medium", Accuracy: "High", Stems: 4},
		Color:       "purple",
		PriceCents:  999,
		Recommended: true,
	},
	{
		ID:          "professional",
		Name:        "Professional Suite",
		Tier:        "Enterprise",
		Summary:     "Multi-stem separation with studio-quality results and customizable options",
		Description: "Studio-grade multi-stem separation with fine-tuned algorithms for the highest quality results.",
		Features: []string{
			"5+ stem separation (vocals, drums, bass, piano, other)",
			"Vocal reverb control",
			"Super resolution processing",
			"Priority processing queue",
		},
		Specs:      Specs{Quality: "Studio", Processing: "Thorough", Accuracy: "Very High", Stems: 6},
		Color:      "green",
		PriceCents: 1999,
	},
}

var plans = []Plan{
	{
		ID:          "free",
		Name:        "Free",
		Description: "Perfect for casual users who want to try out audio separation",
		Features: []PlanFeature{
			{"5 separations per month", true},
			{"Standard separation model", true},
			{"Files up to 10 minutes", true},
			{"MP3 output format", true},
			{"Email support", false},
			{"Advanced separation models", false},
			{"Priority processing", false},
			{"API access", false},
		},
		CTA: "Get Started Free",
	},
	{
		ID:           "premium",
		Name:         "Premium",
		Description:  "For musicians and content creators who need higher quality separations",
		MonthlyCents: 999,
		Features: []PlanFeature{
			{"30 separations per month", true},
			{"All separation models", true},
			{"Files up to 30 minutes", true},
			{"MP3, WAV, FLAC formats", true},
			{"Email support", true},
			{"Advanced separation models", true},
			{"Priority processing", false},
			{"API access", false},
		},
		CTA:       "Start Premium Plan",
		Highlight: true,
	},
	{
		ID:           "professional",
		Name:         "Professional",
		Description:  "For studios and professionals requiring the highest quality",
		MonthlyCents: 2999,
		Features: []PlanFeature{
			{"Unlimited separations", true},
			{"All separation models", true},
			{"Files up to 2 hours", true},
			{"All output formats", true},
			{"Priority email support", true},
			{"Advanced separation models", true},
			{"Priority processing", true},
			{"API access", true},
		},
		CTA: "Start Pro Plan",
	},
}

var faqs = []FAQ{
	{"Can I switch plans later?", "Yes, you can upgrade or downgrade your plan at any time. Changes will take effect at the start of your next billing cycle."},
	{"What payment methods do you accept?", "We accept all major credit cards, PayPal, and Apple Pay."},
	{"Is there a free trial?", "The Free plan allows you to try our services with no time limit. Premium and Professional plans have a 7-day free trial."},
	{"What happens if I exceed my monthly separations?", "You can purchase additional separations or upgrade to a higher plan to continue using the service."},
	{"Do you offer refunds?", "Yes, we offer a 30-day money-back guarantee if you're not satisfied with our service."},
	{"Do you have discounts for annual billing?", "Yes, you can save 20% by choosing annual billing for any paid plan."},
}

var features = []Feature{
	{"Audio Separation", "Separate vocals, instruments, bass, and drums from any audio file with high-quality results.", "blue"},
	{"Video Processing", "Extract and process audio directly from video files with our integrated video handling.", "purple"},
	{"Advanced AI Models", "Choose from multiple state-of-the-art AI models optimized for different separation needs.", "green"},
	{"Multiple Formats", "Download separated tracks in various formats including MP3, WAV, and FLAC.", "orange"},
	{"Fast Processing", "Optimized cloud infrastructure for quick processing even with large audio files.", "yellow"},
	{"High Quality Output", "Superior audio quality retention with advanced noise reduction technology.", "red"},
	{"Multi-stem Separation", "Separate into multiple stems including vocals, drums, bass, and other instruments.", "indigo"},
	{"Intuitive Interface", "User-friendly interface designed to make audio separation accessible to everyone.", "pink"},
}

var demoStemKinds = []string{"vocals", "instruments", "bass", "drums"}

var demos = []DemoTrack{
	demoTrack("demo1", "Pop Song", "Demo Artist", "pop", 3*time.Minute+42*time.Second),
	demoTrack("demo2", "Rock Anthem", "Rock Band", "rock", 4*time.Minute+15*time.Second),
}

func demoTrack(id, title, artist, slug string, d time.Duration) DemoTrack {
	t := DemoTrack{
		ID:       id,
		Title:    title,
		Artist:   artist,
		Duration: d,
		Image:    fmt.Sprintf("/static/images/demo-%s.jpg", slug),
		Audio:    fmt.Sprintf("/static/audio/demo-%s.mp3", slug),
	}
	for _, kind := range demoStemKinds {
		t.Stems = append(t.Stems, Stem{Kind: kind, URL: fmt.Sprintf("/static/audio/demo-%s-%s.mp3", slug, kind)})
	}
	return t
}

// Models returns the separation models in display order.
func Models() []Model { return clone(models) }

// ModelByID looks up a model.
func ModelByID(id string) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Plans returns the pricing plans in display order.
func Plans() []Plan { return clone(plans) }

// PlanByID looks up a plan.
func PlanByID(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func FAQs() []FAQ { return clone(faqs) }

func Features() []Feature { return clone(features) }

// DemoTracks returns the demo page samples.
func DemoTracks() []DemoTrack { return clone(demos) }

// DemoTrackByID looks up a demo track.
func DemoTrackByID(id string) (DemoTrack, bool) {
	for _, d := range demos {
		if d.ID == id {
			return d, true
		}
	}
	return DemoTrack{}, false
}

// Stem returns the URL of one stem, or the original mix for "original".
func (d DemoTrack) Stem(kind string) (string, bool) {
	if kind == "" || kind == "original" {
		return d.Audio, true
	}
	for _, s := range d.Stems {
		if s.Kind == kind {
			return s.URL, true
		}
	}
	return "", false
}

// clone copies the top-level slice so callers cannot reorder the catalog.
func clone[T any](s []T) []T {
	return append([]T(nil), s...)
}

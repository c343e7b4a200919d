package catalog

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModels(t *testing.T) {
	got := Models()
	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]string{"standard", "advanced", "professional"}, ids); diff != "" {
		t.Fatalf("model ids (-want +got):\n%s", diff)
	}

	recommended := 0
	for _, m := range got {
		if m.Recommended {
			recommended++
			assert.Equal(t, "advanced", m.ID)
		}
		assert.Len(t, m.Features, 4, m.ID)
	}
	assert.Equal(t, 1, recommended)

	m, ok := ModelByID("professional")
	require.True(t, ok)
	assert.Equal(t, 6, m.Specs.Stems)
	_, ok = ModelByID("turbo")
	assert.False(t, ok)
}

func TestCatalogIsNotMutatedByCallers(t *testing.T) {
	m := Models()
	m[0] = Model{ID: "hacked"}
	assert.Equal(t, "standard", Models()[0].ID)
}

func TestPlanPricing(t *testing.T) {
	cases := []struct {
		plan    string
		billing Billing
		cents   int64
		label   string
		period  string
	}{
		{"free", Monthly, 0, "$0", "forever"},
		{"free", Yearly, 0, "$0", "forever"},
		{"premium", Monthly, 999, "$9.99", "month"},
		{"premium", Yearly, 9590, "$95.90", "year"},
		{"professional", Monthly, 2999, "$29.99", "month"},
		{"professional", Yearly, 28790, "$287.90", "year"},
	}
	for _, tc := range cases {
		p, ok := PlanByID(tc.plan)
		require.True(t, ok, tc.plan)
		got := p.PriceCents(tc.billing)
		assert.Equal(t, tc.cents, got, "%s/%s", tc.plan, tc.billing)
		assert.Equal(t, tc.label, DefaultFormatter.Price(got))
		assert.Equal(t, tc.period, p.Period(tc.billing))
	}
}

func TestPlansHighlightPremium(t *testing.T) {
	var highlighted []string
	for _, p := range Plans() {
		if p.Highlight {
			highlighted = append(highlighted, p.ID)
		}
		assert.Len(t, p.Features, 8, p.ID)
	}
	assert.Equal(t, []string{"premium"}, highlighted)
	assert.Len(t, FAQs(), 6)
	assert.Len(t, Features(), 8)
}

func TestParseBilling(t *testing.T) {
	assert.Equal(t, Yearly, ParseBilling("yearly"))
	assert.Equal(t, Yearly, ParseBilling(" Annual "))
	assert.Equal(t, Monthly, ParseBilling("monthly"))
	assert.Equal(t, Monthly, ParseBilling(""))
	assert.Equal(t, Monthly, ParseBilling("weekly"))
}

func TestDemoTracks(t *testing.T) {
	d, ok := DemoTrackByID("demo1")
	require.True(t, ok)
	assert.Equal(t, "3:42", Clock(d.Duration))

	want := []Stem{
		{Kind: "vocals", URL: "/static/audio/demo-pop-vocals.mp3"},
		{Kind: "instruments", URL: "/static/audio/demo-pop-instruments.mp3"},
		{Kind: "bass", URL: "/static/audio/demo-pop-bass.mp3"},
		{Kind: "drums", URL: "/static/audio/demo-pop-drums.mp3"},
	}
	if diff := cmp.Diff(want, d.Stems); diff != "" {
		t.Errorf("stems (-want +got):\n%s", diff)
	}

	u, ok := d.Stem("original")
	assert.True(t, ok)
	assert.Equal(t, "/static/audio/demo-pop.mp3", u)
	u, ok = d.Stem("drums")
	assert.True(t, ok)
	assert.Equal(t, "/static/audio/demo-pop-drums.mp3", u)
	_, ok = d.Stem("piano")
	assert.False(t, ok)

	assert.Len(t, DemoTracks(), 2)
}

func TestFormatter(t *testing.T) {
	f := DefaultFormatter
	assert.Equal(t, "Free", f.ModelPrice(Models()[0]))
	assert.Equal(t, "$19.99", f.ModelPrice(Models()[2]))
	assert.Equal(t, "1.50 MB", f.MegaBytes(1572864))
	assert.Equal(t, "Vocals", f.Title("vocals"))
	assert.Equal(t, "0:05", Clock(4600*time.Millisecond))
	assert.Equal(t, "4:15", Clock(255*time.Second))
}

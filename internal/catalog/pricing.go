// SPDX-License-Identifier: MIT

package catalog

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Billing is the pricing page period toggle.
type Billing string

const (
	Monthly Billing = "monthly"
	Yearly  Billing = "yearly"
)

// ParseBilling accepts the query values of the pricing page. Anything
// unrecognised means monthly.
func ParseBilling(s string) Billing {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly", "annual", "annually":
		return Yearly
	default:
		return Monthly
	}
}

// annualDiscountPercent is the saving advertised for annual billing.
const annualDiscountPercent = 20

// PriceCents returns the price for the billing period. Yearly is twelve
// monthly payments less the annual discount, rounded to the cent.
func (p Plan) PriceCents(b Billing) int64 {
	if b != Yearly {
		return p.MonthlyCents
	}
	full := p.MonthlyCents * 12 * (100 - annualDiscountPercent)
	return (full + 50) / 100
}

// Period is the label shown next to the price.
func (p Plan) Period(b Billing) string {
	switch {
	case p.MonthlyCents == 0:
		return "forever"
	case b == Yearly:
		return "year"
	default:
		return "month"
	}
}

// Formatter renders prices, sizes and labels for one language. Printers and
// casers are stateful, so each call gets its own.
type Formatter struct {
	tag language.Tag
}

// NewFormatter returns a formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{tag: tag}
}

// DefaultFormatter formats for US English.
var DefaultFormatter = NewFormatter(language.AmericanEnglish)

// Price formats a USD amount. Whole amounts drop the cents.
func (f *Formatter) Price(cents int64) string {
	if cents%100 == 0 {
		return message.NewPrinter(f.tag).Sprintf("$%d", cents/100)
	}
	return message.NewPrinter(f.tag).Sprintf("$%.2f", float64(cents)/100)
}

// ModelPrice is the label of a model card.
func (f *Formatter) ModelPrice(m Model) string {
	if m.PriceCents == 0 {
		return "Free"
	}
	return f.Price(m.PriceCents)
}

// MegaBytes formats a file size the way the upload page does.
func (f *Formatter) MegaBytes(n int64) string {
	return message.NewPrinter(f.tag).Sprintf("%.2f MB", float64(n)/(1024*1024))
}

// Title capitalises a stem or status label.
func (f *Formatter) Title(s string) string {
	return cases.Title(f.tag).String(s)
}

// Clock formats a duration as m:ss.
func Clock(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/stemsplit/internal/catalog"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newModelsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List separation models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			models := catalog.Models()
			if asJSON {
				return writeJSON(cmd, models)
			}

			f := catalog.DefaultFormatter
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				name := m.Name
				if m.Recommended {
					name += " *"
				}
				rows = append(rows, []string{
					m.ID,
					name,
					m.Tier,
					strconv.Itoa(m.Specs.Stems),
					m.Specs.Quality,
					m.Specs.Processing,
					f.ModelPrice(m),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Tier", "Stems", "Quality", "Processing", "Price"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newPlansCommand() *cobra.Command {
	var billing string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List subscription plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := catalog.ParseBilling(billing)
			plans := catalog.Plans()
			if asJSON {
				type planPrice struct {
					catalog.Plan
					PriceCents int64  `json:"priceCents"`
					Period     string `json:"period"`
				}
				out := make([]planPrice, 0, len(plans))
				for _, p := range plans {
					out = append(out, planPrice{Plan: p, PriceCents: p.PriceCents(b), Period: p.Period(b)})
				}
				return writeJSON(cmd, out)
			}

			f := catalog.DefaultFormatter
			rows := make([][]string, 0, len(plans))
			for _, p := range plans {
				var included []string
				for _, feat := range p.Features {
					if feat.Included {
						included = append(included, feat.Title)
					}
				}
				rows = append(rows, []string{
					p.Name,
					f.Price(p.PriceCents(b)) + "/" + p.Period(b),
					strings.Join(included, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Plan", "Price", "Includes"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&billing, "billing", string(catalog.Monthly), "Billing period: monthly or yearly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

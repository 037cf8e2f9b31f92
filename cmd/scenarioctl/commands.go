package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/animus-labs/animus-scenarios/internal/catalog"
	"github.com/animus-labs/animus-scenarios/internal/domain"
	"github.com/animus-labs/animus-scenarios/internal/embedding"
	"github.com/animus-labs/animus-scenarios/internal/policy"
	"github.com/animus-labs/animus-scenarios/internal/ranking"
)

type rootOptions struct {
	dimension int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "scenarioctl",
		Short:         "Inspect and rank analysis scenarios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().IntVar(&opts.dimension, "dimension", embedding.DefaultDimension, "embedding dimension")
	cmd.AddCommand(
		newCatalogCmd(opts),
		newSuggestCmd(opts),
		newEmbedCmd(opts),
	)
	return cmd
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the scenario catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := catalog.New(embedding.New(opts.dimension))
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cat.All())
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCENARIO\tCOMPLEXITY\tTAGS\tTITLE")
			for _, spec := range cat.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", spec.ScenarioID, spec.Complexity, strings.Join(spec.Tags, ","), spec.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type suggestOptions struct {
	max          int
	jurisdiction string
	exclude      []string
	flags        []string
	accredited   bool
	risk         string
	temperature  float64
	policyFile   string
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	so := &suggestOptions{}
	cmd := &cobra.Command{
		Use:   "suggest <prompt>",
		Short: "Rank scenarios for a prompt",
		Example: `  scenarioctl suggest "long-term value investment with dividends"
  scenarioctl suggest --jurisdiction SG --exclude hedging "market neutral pairs"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := policy.LoadFile(so.policyFile)
			if err != nil {
				return err
			}
			embedder := embedding.New(opts.dimension)
			engine, err := ranking.New(catalog.New(embedder), embedder, rules, ranking.Config{})
			if err != nil {
				return err
			}
			req := ranking.Request{
				Prompt:       strings.Join(args, " "),
				MaxScenarios: so.max,
				Profile:      so.profile(cmd),
			}
			resp, err := engine.Rank(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&so.max, "max", "n", ranking.DefaultMaxScenarios, "number of scenarios to return")
	f.StringVar(&so.jurisdiction, "jurisdiction", "", "caller jurisdiction, e.g. SG")
	f.StringSliceVar(&so.exclude, "exclude", nil, "tags to exclude")
	f.StringSliceVar(&so.flags, "regulatory-flag", nil, "regulatory flags")
	f.BoolVar(&so.accredited, "accredited", false, "caller is an accredited investor")
	f.StringVar(&so.risk, "risk", "", "risk profile: conservative, balanced or aggressive")
	f.Float64Var(&so.temperature, "temperature", 0, "ranking temperature override")
	f.StringVar(&so.policyFile, "policy", "", "ranking policy YAML file")
	return cmd
}

// profile returns nil when no profile flag was set, so ranking skips
// eligibility filtering entirely.
func (so *suggestOptions) profile(cmd *cobra.Command) *domain.Profile {
	changed := false
	for _, name := range []string{"jurisdiction", "exclude", "regulatory-flag", "accredited", "risk", "temperature"} {
		if cmd.Flags().Changed(name) {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	profile := &domain.Profile{
		Jurisdiction:       so.jurisdiction,
		ExcludedTags:       so.exclude,
		AccreditedInvestor: so.accredited,
		RegulatoryFlags:    so.flags,
		RiskProfile:        domain.RiskProfile(so.risk),
	}
	if cmd.Flags().Changed("temperature") {
		t := so.temperature
		profile.Temperature = &t
	}
	return profile
}

func newEmbedCmd(opts *rootOptions) *cobra.Command {
	var keywords bool
	cmd := &cobra.Command{
		Use:   "embed <text>",
		Short: "Print the embedding vector for text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := embedding.New(opts.dimension)
			if keywords {
				return writeJSON(cmd.OutOrStdout(), svc.EmbedKeywords(args))
			}
			return writeJSON(cmd.OutOrStdout(), svc.Embed(strings.Join(args, " ")))
		},
	}
	cmd.Flags().BoolVar(&keywords, "keywords", false, "treat arguments as an unordered keyword set")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell/internal/appconfig"
	"pkt.systems/inkwell/internal/usage"
)

func newUsageCmd() *cobra.Command {
	var cfgPath string
	var inputTokens int
	var outputTokens int
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show completion pricing and estimate the cost of a request",
		Long:  "Token usage is accounted per process and never persisted; " +
			"`inkwell serve` reports it on /api/usage. This command prints the configured " +
			"pricing and the cost of the given token counts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			ledger := usage.NewLedger(usage.Pricing{
				InputPerMillion:  cfg.Completion.PriceInputPerMillion,
				OutputPerMillion: cfg.Completion.PriceOutputPerMillion,
			})
			if inputTokens > 0 || outputTokens > 0 {
				ledger.Record(inputTokens, outputTokens, inputTokens+outputTokens)
			}
			return printUsage(cmd, cfg.Completion.Model, ledger)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVar(&inputTokens, "input-tokens", 0, "prompt tokens to price")
	cmd.Flags().IntVar(&outputTokens, "output-tokens", 0, "completion tokens to price")
	return cmd
}

func printUsage(cmd *cobra.Command, model string, ledger *usage.Ledger) error {
	pricing := ledger.Pricing()
	snap := ledger.Snapshot()
	_, err := fmt.Fprintf(cmd.OutOrStdout(),
		"model          %s\ninput price    $%.4f / 1M tokens\noutput price   $%.4f / 1M tokens\ninput tokens   %d\noutput tokens  %d\ntotal tokens   %d\ncost           $%.6f\n",
		model, pricing.InputPerMillion, pricing.OutputPerMillion,
		snap.InputTokens, snap.OutputTokens, snap.TotalTokens, snap.Cost)
	return err
}

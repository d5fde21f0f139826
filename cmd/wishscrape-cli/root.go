package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/extractor"
	"github.com/use-agent/wishscrape/lookup"
	"github.com/use-agent/wishscrape/models"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wishscrape-cli",
		Short:        "Look up product pages and manage extraction rules",
		SilenceUsage: true,
	}
	root.AddCommand(newProductCmd(), newRulesCmd())
	return root
}

func newProductCmd() *cobra.Command {
	var (
		rulesFile string
		timeout   time.Duration
		attempts  int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "product <url>",
		Short: "Fetch a product page and print the extracted record as JSON",
		Example: `  wishscrape-cli product https://shop.example.com/p/123
  wishscrape-cli product https://shop.example.com/p/123 --rules rules.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.Cache.TTL = 0
			if rulesFile != "" {
				cfg.Extractor.RulesFile = rulesFile
			}
			if timeout > 0 {
				cfg.Fetcher.Timeout = timeout
			}
			if attempts > 0 {
				cfg.Fetcher.MaxAttempts = attempts
			}
			if verbose {
				cfg.Log.Level = "debug"
			} else {
				cfg.Log.Level = "error"
			}
			cfg.Log.Format = "text"
			logger := config.NewLogger(cfg.Log, cmd.ErrOrStderr())

			svc, _, err := lookup.FromConfig(cfg, logger)
			if err != nil {
				return err
			}

			rec, err := svc.ScrapeProduct(cmd.Context(), args[0])
			if err != nil {
				var se *models.ScrapeError
				if errors.As(err, &se) {
					return fmt.Errorf("%s: %s", se.Code, se.Message)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}

	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "YAML rules file overriding the built-in selectors")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-attempt timeout (default from WISHSCRAPE_FETCH_TIMEOUT or 3s)")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "Total fetch attempts (default from WISHSCRAPE_FETCH_ATTEMPTS or 2)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log fetch attempts to stderr")
	return cmd
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate extraction rule files",
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the built-in rules as YAML, a starting point for a rules file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(extractor.DefaultRules()); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	check := &cobra.Command{
		Use:   "check <file>",
		Short: "Load a rules file and compile every selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := extractor.LoadRules(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d metadata and %d markup rules\n",
				countRules(rules.Metadata), countRules(rules.Markup))
			return nil
		},
	}

	cmd.AddCommand(dump, check)
	return cmd
}

func countRules(fr extractor.FieldRules) int {
	return len(fr.Name) + len(fr.Brand) + len(fr.Price) + len(fr.Image) + len(fr.Description)
}

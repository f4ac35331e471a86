// salesmerge - distributor sales consolidation pipeline
//
// Usage:
//   salesmerge run --input-dir ./uploads
//   salesmerge status
//   salesmerge ledger list
//   salesmerge fetch --domain example.myshopify.com --out ./uploads/shopify.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"salesmerge/internal/artifact"
	"salesmerge/internal/feed"
	"salesmerge/internal/intake"
	"salesmerge/internal/ledger"
	"salesmerge/internal/pipeline"
	"salesmerge/internal/status"
	"salesmerge/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "salesmerge",
		Usage:   "Consolidate monthly distributor sales exports into one canonical dataset",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "Path to YAML pipeline profile",
				EnvVars: []string{"SALESMERGE_PROFILE"},
			},
			&cli.StringFlag{
				Name:    "state-dir",
				Usage:   "Override the profile's state directory",
				EnvVars: []string{"SALESMERGE_STATE_DIR"},
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Usage:   "Override the profile's artifact output directory",
				EnvVars: []string{"SALESMERGE_OUTPUT_DIR"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Override the profile's parse worker count",
				EnvVars: []string{"SALESMERGE_WORKERS"},
			},
			&cli.IntFlag{
				Name:    "active-days",
				Usage:   "Override the active tier boundary (days since last order)",
				EnvVars: []string{"SALESMERGE_ACTIVE_DAYS"},
			},
			&cli.IntFlag{
				Name:    "at-risk-days",
				Usage:   "Override the at-risk tier boundary (days since last order)",
				EnvVars: []string{"SALESMERGE_AT_RISK_DAYS"},
			},
		},

		Commands: []*cli.Command{
			runCommand(),
			statusCommand(),
			ledgerCommand(),
			fetchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadProfile(c *cli.Context) (*platform.Profile, error) {
	profile, err := platform.LoadProfile(c.String("profile"))
	if err != nil {
		return nil, err
	}
	if v := c.String("state-dir"); v != "" {
		profile.StateDir = v
	}
	if v := c.String("output-dir"); v != "" {
		profile.OutputDir = v
	}
	if v := c.Int("workers"); v > 0 {
		profile.Workers = v
	}
	if v := c.Int("active-days"); v > 0 {
		profile.Thresholds.ActiveWithinDays = v
	}
	if v := c.Int("at-risk-days"); v > 0 {
		profile.Thresholds.AtRiskWithinDays = v
	}
	return profile, nil
}

// =============================================================================
// RUN COMMAND
// =============================================================================

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Process a batch of input files into the canonical dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input-dir",
				Aliases:  []string{"i"},
				Usage:    "Directory of .csv exports and .json feed dumps",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "summary",
				Usage:   "Report format (summary, json)",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	logger := platform.InitLogger()
	ctx := context.Background()

	profile, err := loadProfile(c)
	if err != nil {
		return err
	}

	inputs, err := intake.LoadDir(c.String("input-dir"), time.Now().UTC())
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files found in %s", c.String("input-dir"))
	}

	runner, closeAll, err := pipeline.Build(ctx, profile, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	report, err := runner.Run(ctx, inputs)
	if err != nil {
		return err
	}

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Run %s\n", report.RunID)
	for _, in := range report.Inputs {
		line := fmt.Sprintf("  %-12s %-40s %s", in.Channel, in.Name, in.Outcome)
		if in.Outcome == "merged" {
			line += fmt.Sprintf(" (%d records, %d diagnostics)", in.Records, len(in.Diagnostics))
		}
		if in.Error != "" {
			line += ": " + in.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("Dataset: %d records (%d merged, %d replaced this run)\n",
		report.DatasetSize, report.RecordsMerged, report.RecordsReplaced)
	fmt.Printf("Accounts scored: %d, diagnostics: %d\n", report.AccountsScored, report.TotalDiagnostics())
	fmt.Printf("Artifacts: %v\n", report.Artifacts)
	return nil
}

// =============================================================================
// STATUS COMMAND
// =============================================================================

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Recompute account statuses from the current snapshot without merging",
		Action: func(c *cli.Context) error {
			logger := platform.InitLogger()
			ctx := context.Background()

			profile, err := loadProfile(c)
			if err != nil {
				return err
			}

			runner, closeAll, err := pipeline.Build(ctx, profile, logger)
			if err != nil {
				return err
			}
			defer closeAll()

			dataset, err := runner.Store.Load(ctx)
			if err != nil {
				return err
			}

			statuses, diags, err := status.Compute(dataset, time.Now().UTC(), runner.Thresholds)
			if err != nil {
				return err
			}

			a, err := artifact.BuildStatuses(statuses, time.Now().UTC())
			if err != nil {
				return err
			}
			os.Stdout.Write(a.Data)
			for _, d := range diags {
				fmt.Fprintf(os.Stderr, "warning: %s\n", d.Message)
			}
			return nil
		},
	}
}

// =============================================================================
// LEDGER COMMAND
// =============================================================================

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect or reset the processed-input ledger",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List processed inputs",
				Action: func(c *cli.Context) error {
					led, err := openLedger(c)
					if err != nil {
						return err
					}
					entries, err := led.Entries(context.Background())
					if err != nil {
						return err
					}
					for _, e := range entries {
						fmt.Printf("%-10s %s %s\n", e.Channel, e.Fingerprint, e.ProcessedAt.Format(time.RFC3339))
					}
					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Forget all processed inputs (next run reprocesses everything)",
				Action: func(c *cli.Context) error {
					led, err := openLedger(c)
					if err != nil {
						return err
					}
					return led.Reset(context.Background())
				},
			},
		},
	}
}

func openLedger(c *cli.Context) (ledger.Ledger, error) {
	profile, err := loadProfile(c)
	if err != nil {
		return nil, err
	}
	if profile.Ledger.Backend == "postgres" {
		return ledger.OpenPostgresLedger(context.Background(), profile.Ledger.DSN)
	}
	return ledger.OpenFileLedger(profile.StateDir + "/ledger.json")
}

// =============================================================================
// FETCH COMMAND
// =============================================================================

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Pull the e-commerce order feed and dump its pages for the next run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "domain",
				Usage:    "Shop domain (example.myshopify.com)",
				EnvVars:  []string{"SHOPIFY_DOMAIN"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "api-version",
				Value:   "2024-04",
				Usage:   "Shopify API version",
				EnvVars: []string{"SHOPIFY_API_VERSION"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Shopify access token",
				EnvVars: []string{"SHOPIFY_TOKEN"},
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output file for the page dump (name must contain 'shopify')",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Value: 200,
				Usage: "Safety bound on page count",
			},
		},
		Action: func(c *cli.Context) error {
			logger := platform.InitLogger()

			client := feed.NewShopifyClient(c.String("domain"), c.String("api-version"), c.String("token"))
			client.MaxPages = c.Int("max-pages")

			pages, err := client.FetchOrderPages(context.Background())
			if err != nil {
				return err
			}
			logger.Info("feed fetched", "pages", len(pages))

			raw := make([]json.RawMessage, len(pages))
			for i, p := range pages {
				raw[i] = p
			}
			data, err := json.Marshal(raw)
			if err != nil {
				return err
			}
			return os.WriteFile(c.String("out"), data, 0o644)
		},
	}
}

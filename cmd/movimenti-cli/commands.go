package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"movimenti/internal/alerts"
	"movimenti/internal/backend"
	"movimenti/internal/categorizer"
	"movimenti/internal/cli"
	"movimenti/internal/config"
	"movimenti/internal/core"
	"movimenti/internal/ingest"
	applog "movimenti/internal/log"
	"movimenti/internal/ports"
	"movimenti/internal/services"
	gsheet "movimenti/internal/sheets/google"
)

const (
	dateLayout  = "2006-01-02"
	recentLimit = 10
)

// app carries what PersistentPreRunE loaded for the subcommands.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "movimenti-cli",
		Short: "Import, categorize and report on bank transactions",
		Long: `movimenti-cli is the operator tool for the movimenti ledger. It imports
transactions from CSV files or Google Sheets, previews categorization,
prints spending reports and runs the alert checks on demand.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.AddCommand(
		a.importCmd(),
		a.categorizeCmd(),
		a.reportCmd(),
		a.alertCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := applog.ParseLevel(cfg.LogLevel)
	a.logger = applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	applog.SetDefault(a.logger)
	a.cfg = cfg
	return nil
}

// open returns the configured repository and a transaction service over it.
func (a *app) open(ctx context.Context) (ports.Repository, *services.TransactionService, func(), error) {
	backendConfig, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	result, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	rules, err := categorizer.LoadFile(a.cfg.CategoryRulesFile)
	if err != nil {
		_ = result.Cleanup()
		return nil, nil, nil, fmt.Errorf("load category rules: %w", err)
	}
	closeFn := func() {
		if err := result.Cleanup(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}
	return result.Repository, services.NewTransactionService(result.Repository, rules), closeFn, nil
}

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions into the ledger",
	}

	csvCmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import a bank export CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, ingest.CSVFile(args[0]), args[0])
		},
	}

	var writeBack bool
	sheetCmd := &cobra.Command{
		Use:   "sheet",
		Short: "Import the configured Google Sheets tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := gsheet.NewClient(ctx, gsheet.Config{
				SpreadsheetID: a.cfg.GoogleSpreadsheetID,
				SheetName:     a.cfg.GoogleSheetName,
			})
			if err != nil {
				return err
			}
			if err := a.runImport(cmd, client, a.cfg.GoogleSheetName); err != nil {
				return err
			}
			if !writeBack {
				return nil
			}
			return a.writeBack(cmd, client)
		},
	}
	sheetCmd.Flags().BoolVar(&writeBack, "write-back", false, "write the assigned categories into the sheet")

	cmd.AddCommand(csvCmd, sheetCmd)
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, src ingest.RowSource, name string) error {
	_, svc, closeFn, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := printer{w: cmd.OutOrStdout()}
	res, err := svc.Import(cmd.Context(), src)
	if err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}

	out.success("Imported %d transactions from %s", res.Imported, name)
	if res.Skipped > 0 {
		out.warning("Skipped %d invalid rows", res.Skipped)
		for _, re := range res.Errors {
			out.failure("%v", re)
		}
	}
	return nil
}

// writeBack stores one category per sheet data row. Rows that do not parse
// get an empty cell so the column stays aligned.
func (a *app) writeBack(cmd *cobra.Command, client *gsheet.Client) error {
	ctx := cmd.Context()
	rows, err := client.Rows(ctx)
	if err != nil {
		return err
	}
	rules, err := categorizer.LoadFile(a.cfg.CategoryRulesFile)
	if err != nil {
		return fmt.Errorf("load category rules: %w", err)
	}

	var categories []string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		t, err := ingest.ParseRecord(append([]string(nil), row...))
		if err != nil {
			categories = append(categories, "")
			continue
		}
		cat, err := rules.Categorize(t.Description, t.Direction)
		if err != nil {
			categories = append(categories, "")
			continue
		}
		categories = append(categories, string(cat))
	}

	if err := client.WriteCategories(ctx, categories); err != nil {
		return err
	}
	printer{w: cmd.OutOrStdout()}.success("Wrote %d categories to %s", len(categories), a.cfg.GoogleSheetName)
	return nil
}

func (a *app) categorizeCmd() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "categorize <description>",
		Short: "Show the category a description would be assigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := core.ParseDirection(direction)
			if err != nil {
				return err
			}
			rules, err := categorizer.LoadFile(a.cfg.CategoryRulesFile)
			if err != nil {
				return fmt.Errorf("load category rules: %w", err)
			}
			cat, err := rules.Categorize(args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cat)
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", string(core.Debit), "transaction direction: debit or credit")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print spending by category, monthly totals and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, svc, closeFn, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			overview, err := svc.Overview(ctx, recentLimit)
			if err != nil {
				return err
			}
			percentages, err := svc.SpendingPercentages(ctx)
			if err != nil {
				return err
			}
			monthly, err := svc.MonthlyTotals(ctx)
			if err != nil {
				return err
			}

			out := printer{w: cmd.OutOrStdout()}
			out.header("Spending report")

			out.section("Spending by category")
			if len(percentages) == 0 {
				out.info("No debit transactions")
			}
			for _, cv := range percentages {
				out.row(cv.Category, cv.Value.StringFixed(2)+"%")
			}

			out.section("\nMonthly totals")
			for _, cv := range monthly {
				out.row(cv.Category, "€"+cv.Value.StringFixed(2))
			}

			if overview.PriorityCategory != "" {
				out.section("\nPriority category")
				out.warning("%s", overview.PriorityCategory)
			}

			out.section("\nRecent transactions")
			for _, t := range overview.Recent {
				amount := "€" + t.Amount.StringFixed(2)
				if t.Direction == core.Debit {
					amount = "-" + amount
				}
				out.row(t.Date.Format(dateLayout)+" "+string(t.EffectiveCategory()), fmt.Sprintf("%s  %s", amount, t.Description))
			}
			return nil
		},
	}
}

func (a *app) alertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Run the alert checks on demand",
	}

	var date string
	dailyCmd := &cobra.Command{
		Use:   "daily",
		Short: "Evaluate one day and send a profit or loss alert",
		Long:  "Evaluates the day before now, or the day given with --date, in ALERT_TIMEZONE.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if date != "" {
				day, err := time.ParseInLocation(dateLayout, date, a.cfg.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
				}
				// the daily check looks at the day before its trigger time
				now = day.AddDate(0, 0, 1).Add(12 * time.Hour)
			}
			return a.runAlert(cmd, func(ctx context.Context, s *services.AlertScheduler) (services.Outcome, error) {
				return s.RunDaily(ctx, now)
			})
		},
	}
	dailyCmd.Flags().StringVar(&date, "date", "", "day to evaluate (YYYY-MM-DD)")

	startupCmd := &cobra.Command{
		Use:   "startup",
		Short: "Send the startup notice and today's summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAlert(cmd, func(ctx context.Context, s *services.AlertScheduler) (services.Outcome, error) {
				return s.Startup(ctx, time.Now())
			})
		},
	}

	cmd.AddCommand(dailyCmd, startupCmd)
	return cmd
}

func (a *app) runAlert(cmd *cobra.Command, run func(context.Context, *services.AlertScheduler) (services.Outcome, error)) error {
	ctx := cmd.Context()
	repo, _, closeFn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	schedulerConfig, err := cli.SchedulerConfig(a.cfg)
	if err != nil {
		return err
	}
	notifier := cli.DirectNotifier(a.logger.Logger, a.cfg)
	scheduler := services.NewAlertScheduler(repo, repo, notifier, alerts.DefaultFormatter(), schedulerConfig)

	outcome, err := run(ctx, scheduler)
	printOutcome(printer{w: cmd.OutOrStdout()}, outcome)
	return err
}

func printOutcome(out printer, o services.Outcome) {
	if o.Skipped {
		out.warning("%s check skipped: %s", o.Trigger, o.Reason)
		return
	}
	if len(o.Alerts) == 0 {
		out.info("%s check sent no alert", o.Trigger)
		return
	}
	for _, alert := range o.Alerts {
		if alert.Delivered {
			out.success("%s alert delivered (%s)", alert.Kind, alert.ID)
		} else {
			out.failure("%s alert not delivered (%s)", alert.Kind, alert.ID)
		}
	}
}

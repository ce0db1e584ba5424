package main

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/semclone/pypistats-tracker/internal/collector"
	"github.com/semclone/pypistats-tracker/internal/config"
	"github.com/semclone/pypistats-tracker/internal/domain"
	"github.com/semclone/pypistats-tracker/internal/storage"
	"github.com/semclone/pypistats-tracker/internal/storage/jsonfile"
	"github.com/semclone/pypistats-tracker/internal/storage/postgres"
	"github.com/semclone/pypistats-tracker/internal/storage/sqlite"
	"github.com/semclone/pypistats-tracker/internal/tracker"
)

var (
	outputFile string
	runsLimit  int
)

var rootCmd = &cobra.Command{
	Use:   "pypistats-tracker",
	Short: "PyPI download statistics tracker",
	Long: `A tool for tracking PyPI package download statistics.

It fetches download counts from pypistats.org, reconciles the recent summary
against metrics derived from the daily time series, and writes a unified JSON
snapshot for the dashboard.`,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch stats for all tracked packages",
	Long:  `Fetch download statistics for every tracked package and write the JSON snapshot.`,
	RunE:  runFetch,
}

var showCmd = &cobra.Command{
	Use:   "show [package]",
	Short: "Show stats from the current snapshot",
	Long:  `Display download statistics from the most recently written snapshot.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent fetch runs",
	Long:  `Display the run history recorded by previous fetches.`,
	RunE:  runRuns,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFile, "output", "", "snapshot file (default from OUTPUT_FILE)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if outputFile != "" {
		cfg.OutputFile = outputFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getHistory(cfg *config.Config) (storage.History, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresHistory(cfg.PostgresURL)
	case "sqlite":
		return sqlite.NewSQLiteHistory(cfg.SQLitePath)
	default:
		return nil, nil
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history, err := getHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize history storage: %w", err)
	}
	if history != nil {
		defer history.Close()
	}

	fmt.Printf("Fetching stats for %d packages...\n", len(cfg.Packages))

	coll := collector.NewPyPIStatsCollector(cfg.BaseURL)
	trk := tracker.New(coll)
	ctx := context.Background()

	result, err := trk.Run(ctx, cfg.Packages, func(pkg string, progress float64) {
		fmt.Printf("Fetched stats for %s (%.0f%%)\n", pkg, progress*100)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	snapshots := jsonfile.New(cfg.OutputFile)
	if err := snapshots.Save(ctx, result.Snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if history != nil {
		if err := history.SaveRun(ctx, result.Run); err != nil {
			fmt.Printf("Warning: failed to save run history: %v\n", err)
		} else if err := history.SavePackageRuns(ctx, result.PackageRuns); err != nil {
			fmt.Printf("Warning: failed to save package run history: %v\n", err)
		}
	}

	fmt.Printf("\nStats saved to %s\n", cfg.OutputFile)
	fmt.Printf("Last updated: %s\n", result.Snapshot.LastUpdated)
	if result.Run.Failures > 0 {
		fmt.Printf("Endpoint failures: %d\n", result.Run.Failures)
	}
	if result.Run.Discrepancies > 0 {
		fmt.Printf("Corrected discrepancies: %d\n", result.Run.Discrepancies)
	}

	fmt.Println("\nDownload Summary")
	printSummary(cfg.Packages, result.Snapshot)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snapshot, err := jsonfile.New(cfg.OutputFile).Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if len(args) == 1 {
		stats, ok := snapshot.Packages[args[0]]
		if !ok {
			return fmt.Errorf("package %s not in snapshot", args[0])
		}
		fmt.Printf("\nPackage: %s\n", stats.Name)
		fmt.Printf("Last updated: %s\n\n", snapshot.LastUpdated)
		printPackage(stats)
		return nil
	}

	fmt.Printf("\nLast updated: %s\n\n", snapshot.LastUpdated)
	printSummary(cfg.Packages, snapshot)
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history, err := getHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize history storage: %w", err)
	}
	if history == nil {
		return fmt.Errorf("run history is disabled (STORAGE_TYPE=none)")
	}
	defer history.Close()

	runs, err := history.ListRuns(context.Background(), runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Started", "Packages", "Failures", "Discrepancies"})
	for _, run := range runs {
		table.Append([]string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", run.Packages),
			fmt.Sprintf("%d", run.Failures),
			fmt.Sprintf("%d", run.Discrepancies),
		})
	}
	table.Render()

	return nil
}

func printSummary(packages []string, snapshot *domain.Snapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Package", "Day", "Week", "Month", "Total"})

	for _, pkg := range packages {
		stats, ok := snapshot.Packages[pkg]
		if !ok || stats.Recent == nil || stats.Recent.Data == nil || stats.Recent.Data.LastDay == nil {
			table.Append([]string{pkg, "-", "-", "-", "-"})
			continue
		}
		data := stats.Recent.Data
		table.Append([]string{
			pkg,
			formatCount(data.LastDay),
			formatCount(data.LastWeek),
			formatCount(data.LastMonth),
			formatCount(data.Total),
		})
	}

	table.Render()
}

func printPackage(stats *domain.PackageStats) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Combined", "With Mirrors", "Without Mirrors"})

	data := stats.Recent.Data
	if data == nil {
		fmt.Println("No data available")
		return
	}

	table.Append([]string{"Last Day", formatCount(data.LastDay), formatCount(data.LastDayWithMirrors), formatCount(data.LastDayWithoutMirrors)})
	table.Append([]string{"Last Week", formatCount(data.LastWeek), formatCount(data.LastWeekWithMirrors), formatCount(data.LastWeekWithoutMirrors)})
	table.Append([]string{"Last Month", formatCount(data.LastMonth), formatCount(data.LastMonthWithMirrors), formatCount(data.LastMonthWithoutMirrors)})
	table.Append([]string{"Total", formatCount(data.Total), formatCount(data.TotalWithMirrors), formatCount(data.TotalWithoutMirrors)})
	table.Render()

	if stats.Recent.Computed {
		fmt.Println("Values computed from the time series (summary endpoint unavailable)")
	}
	for field, d := range stats.Recent.Discrepancies {
		fmt.Printf("Corrected %s: reported %d, derived %d\n", field, d.Reported, d.Derived)
	}
}

func formatCount(value *int64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *value)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/config"
	"github.com/lirany1/test-metrics-charts/pkg/export"
	"github.com/lirany1/test-metrics-charts/pkg/generator"
	"github.com/lirany1/test-metrics-charts/pkg/logger"
	"github.com/lirany1/test-metrics-charts/pkg/metrics"
	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/lirany1/test-metrics-charts/pkg/pages"
	"github.com/lirany1/test-metrics-charts/pkg/renderer"
	"github.com/lirany1/test-metrics-charts/pkg/server"
	"github.com/lirany1/test-metrics-charts/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "metrics-charts",
		Short: "Charts for test case metrics",
		Long: `Test Metrics Charts

Fetches test case status timeseries from the metrics API and renders them
as line and bar charts, either served over HTTP or written to disk.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the chart server",
		Long:  "Start an HTTP server that renders charts from the metrics API on every request.",
		RunE:  runServe,
	}

	var renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render the timeseries chart to a file",
		Long:  "Fetch the timeseries once and write it as html, svg, png, json or xlsx.",
		RunE:  runRender,
	}

	var stylesCmd = &cobra.Command{
		Use:   "styles",
		Short: "List the status style table",
		RunE:  runStyles,
	}

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recently fetched snapshots",
		RunE:  runHistory,
	}

	serveCmd.Flags().IntP("port", "p", 0, "Port to run server on (overrides config)")
	serveCmd.Flags().StringP("host", "H", "", "Host to bind server to (overrides config)")

	renderCmd.Flags().StringP("output", "o", ".", "Output directory")
	renderCmd.Flags().StringP("format", "f", "html", "Output format (html, svg, png, json, xlsx)")
	renderCmd.Flags().String("release", "", "Release name (overrides config)")
	renderCmd.Flags().String("build", "", "Build id (overrides config)")
	renderCmd.Flags().String("about", "", "What the series describe (overrides config)")

	historyCmd.Flags().IntP("limit", "n", 20, "Number of snapshots to list")

	for _, c := range []*cobra.Command{stylesCmd, historyCmd} {
		c.Flags().String("output", "table", "Output format (table, json, yaml)")
	}

	rootCmd.AddCommand(serveCmd, renderCmd, stylesCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// loadConfig reads --config if given, otherwise the default locations, and
// applies the log level
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if configFile != "" {
		cfg = config.NewConfig()
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg.LoadFromEnv()
	} else {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return nil, err
		}
	}

	logger.SetLevel(cfg.LogLevel)
	logger.Debugf("Log level: %s", logger.Level())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openHistory opens the snapshot store, or returns nil when history is
// disabled or unavailable
func openHistory(cfg *config.Config) *storage.Database {
	if !cfg.HistoryEnabled {
		return nil
	}

	db, err := storage.NewDatabase(cfg.HistoryDir)
	if err != nil {
		logger.Warnf("History disabled: %v", err)
		return nil
	}

	if removed, err := db.CleanupOldData(cfg.RetentionDays); err != nil {
		logger.Warnf("Failed to clean up old snapshots: %v", err)
	} else if removed > 0 {
		logger.Infof("Removed %d snapshots older than %d days", removed, cfg.RetentionDays)
	}
	return db
}

func newGenerator(cfg *config.Config, db *storage.Database) (*generator.Generator, error) {
	styles, err := cfg.StyleTable()
	if err != nil {
		return nil, err
	}
	if err := renderer.ValidateStyles(styles); err != nil {
		return nil, err
	}

	client := metrics.NewClient(cfg.MetricsBaseURL, cfg.RequestTimeout)
	logger.Infof("Metrics API: %s", client.BaseURL())

	var history generator.History
	if db != nil {
		history = db
	}
	return generator.NewGenerator(client, styles, history), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}

	db := openHistory(cfg)
	var store server.SnapshotStore
	if db != nil {
		defer db.Close()
		store = db
	}

	gen, err := newGenerator(cfg, db)
	if err != nil {
		return err
	}

	logger.Infof("Starting chart server on %s:%d", cfg.Host, cfg.Port)

	srv, err := server.NewServer(&server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ChartTitle:   cfg.ChartTitle,
		ChartWidth:   cfg.ChartWidth,
		ChartHeight:  cfg.ChartHeight,
		DefaultQuery: cfg.DefaultQuery(),
	}, gen, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

func runRender(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	if !slices.Contains(export.Formats, format) {
		return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(export.Formats, ", "))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	q := cfg.DefaultQuery()
	if release, _ := cmd.Flags().GetString("release"); release != "" {
		q.Release = release
	}
	if build, _ := cmd.Flags().GetString("build"); build != "" {
		q.Build = build
	}
	if about, _ := cmd.Flags().GetString("about"); about != "" {
		q.About = about
	}

	db := openHistory(cfg)
	if db != nil {
		defer db.Close()
	}

	gen, err := newGenerator(cfg, db)
	if err != nil {
		return err
	}

	pageRenderer, err := pages.NewRenderer()
	if err != nil {
		return err
	}

	logger.Infof("Fetching %s", q)

	ctx, cancel := renderContext(cfg.RequestTimeout)
	defer cancel()

	report, err := gen.Generate(ctx, q)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(
		cfg.ChartTitle,
		renderer.NewSVGRenderer(cfg.ChartWidth, cfg.ChartHeight),
		renderer.NewPNGRenderer(cfg.ChartWidth, cfg.ChartHeight),
		pageRenderer,
	)
	path, err := exporter.Export(report, outputDir, format)
	if err != nil {
		return err
	}

	logger.Info("✓ Chart rendered successfully!")
	fmt.Println(path)
	return nil
}

// renderContext bounds a one-shot render by the request timeout plus some
// slack for rendering. A zero timeout means no deadline at all.
func renderContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout+10*time.Second)
}

func runStyles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	styles, err := cfg.StyleTable()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json", "yaml":
		// same shape as the styles section of a config file
		return encode(output, map[string]interface{}{"styles": config.StyleConfigs(styles)})
	case "table":
		return printStyles(styles)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

// encode writes v to stdout as json or yaml
func encode(format string, v interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStyles(styles models.StyleTable) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOLOR\tLINE")
	for _, name := range styles.Names() {
		style, _ := styles.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, style.Color, style.LineStyle)
	}
	return tw.Flush()
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.HistoryEnabled {
		return fmt.Errorf("history is disabled in configuration")
	}

	db, err := storage.NewDatabase(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Debugf("Reading history from %s", db.Path())

	snapshots, err := db.GetRecentSnapshots(limit)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json", "yaml":
		return encode(output, snapshots)
	case "table":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	if len(snapshots) == 0 {
		logger.Info("No snapshots recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFETCHED\tRELEASE\tBUILD\tABOUT")
	for _, s := range snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.FetchedAt.Local().Format("2006-01-02 15:04:05"), s.Query.Release, s.Query.Build, s.Query.About)
	}
	return tw.Flush()
}

func init() {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

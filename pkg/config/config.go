package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/spf13/viper"
)

// StyleConfig is a style table entry as written in a config file
type StyleConfig struct {
	Color     string `mapstructure:"color" yaml:"color" json:"color"`
	LineStyle string `mapstructure:"line_style" yaml:"line_style" json:"line_style"`
}

// Config holds the configuration for the chart service
type Config struct {
	// Server settings
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Metrics API settings
	MetricsBaseURL string        `mapstructure:"metrics_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Default timeseries query used by /td
	QueryType    string `mapstructure:"query_type"`
	QueryRelease string `mapstructure:"query_release"`
	QueryBuild   string `mapstructure:"query_build"`
	QueryAbout   string `mapstructure:"query_about"`

	// Chart settings
	ChartTitle  string `mapstructure:"chart_title"`
	ChartWidth  int    `mapstructure:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height"`

	// History settings
	HistoryEnabled bool   `mapstructure:"history_enabled"`
	HistoryDir     string `mapstructure:"history_dir"`
	RetentionDays  int    `mapstructure:"retention_days"`

	LogLevel string `mapstructure:"log_level"`

	// Extra or overriding status styles, keyed by status name
	Styles map[string]StyleConfig `mapstructure:"styles"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           5000,
		MetricsBaseURL: "http://qmetry-data.ece.delllabs.net:8080/api/",
		RequestTimeout: 30 * time.Second,
		QueryType:      "timeseries",
		QueryRelease:   "settlers",
		QueryBuild:     "100",
		QueryAbout:     "status",
		ChartTitle:     "Test Cases",
		ChartWidth:     800,
		ChartHeight:    500,
		HistoryEnabled: true,
		HistoryDir:     "reports",
		RetentionDays:  30,
		LogLevel:       "info",
		Styles:         make(map[string]StyleConfig),
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig() (*Config, error) {
	cfg := NewConfig()

	configPaths := []string{
		"metrics-charts.yml",
		"metrics-charts.yaml",
		"metrics-charts.json",
		".metrics-charts/config.yml",
	}

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.LoadFromFile(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
			break
		}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, JSON, or TOML)
func (c *Config) LoadFromFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(c)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if base := os.Getenv("METRICS_BASE_URL"); base != "" {
		c.MetricsBaseURL = base
	}

	if release := os.Getenv("METRICS_RELEASE"); release != "" {
		c.QueryRelease = release
	}

	if build := os.Getenv("METRICS_BUILD"); build != "" {
		c.QueryBuild = build
	}

	if timeout := os.Getenv("METRICS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.RequestTimeout = d
		}
	}

	if port := os.Getenv("CHARTS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}

	if dir := os.Getenv("CHARTS_HISTORY_DIR"); dir != "" {
		c.HistoryDir = dir
	}

	if history := os.Getenv("CHARTS_HISTORY_ENABLED"); history != "" {
		if enabled, err := strconv.ParseBool(history); err == nil {
			c.HistoryEnabled = enabled
		}
	}

	if level := os.Getenv("CHARTS_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("host", c.Host)
	v.Set("port", c.Port)
	v.Set("metrics_base_url", c.MetricsBaseURL)
	v.Set("request_timeout", c.RequestTimeout.String())
	v.Set("query_type", c.QueryType)
	v.Set("query_release", c.QueryRelease)
	v.Set("query_build", c.QueryBuild)
	v.Set("query_about", c.QueryAbout)
	v.Set("chart_title", c.ChartTitle)
	v.Set("chart_width", c.ChartWidth)
	v.Set("chart_height", c.ChartHeight)
	v.Set("history_enabled", c.HistoryEnabled)
	v.Set("history_dir", c.HistoryDir)
	v.Set("retention_days", c.RetentionDays)
	v.Set("log_level", c.LogLevel)

	if len(c.Styles) > 0 {
		styles := make(map[string]interface{}, len(c.Styles))
		for name, sc := range c.Styles {
			styles[name] = map[string]interface{}{
				"color":      sc.Color,
				"line_style": sc.LineStyle,
			}
		}
		v.Set("styles", styles)
	}

	return v.WriteConfig()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.MetricsBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid metrics_base_url %q", c.MetricsBaseURL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	}
	if c.QueryType == "" {
		return fmt.Errorf("query_type is required")
	}
	if _, err := c.StyleTable(); err != nil {
		return err
	}
	return nil
}

// DefaultQuery returns the timeseries query served by /td
func (c *Config) DefaultQuery() models.Query {
	return models.Query{
		Type:    c.QueryType,
		Release: c.QueryRelease,
		Build:   c.QueryBuild,
		About:   c.QueryAbout,
	}
}

// StyleConfigs renders a style table back into config file form
func StyleConfigs(table models.StyleTable) map[string]StyleConfig {
	out := make(map[string]StyleConfig, table.Len())
	for _, name := range table.Names() {
		style, _ := table.Lookup(name)
		out[name] = StyleConfig{Color: style.Color, LineStyle: string(style.LineStyle)}
	}
	return out
}

// StyleTable builds the immutable style table: defaults plus configured overrides
func (c *Config) StyleTable() (models.StyleTable, error) {
	overrides := make(map[string]models.Style, len(c.Styles))
	for name, sc := range c.Styles {
		ls, err := models.ParseLineStyle(sc.LineStyle)
		if err != nil {
			return models.StyleTable{}, fmt.Errorf("style %q: %w", name, err)
		}
		if strings.TrimSpace(sc.Color) == "" {
			return models.StyleTable{}, fmt.Errorf("style %q: color is required", name)
		}
		overrides[name] = models.Style{Color: sc.Color, LineStyle: ls}
	}
	return models.DefaultStyleTable().Merge(overrides), nil
}

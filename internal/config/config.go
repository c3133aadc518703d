package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "FEAR"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Plot      PlotConfig      `yaml:"plot" envconfig:"PLOT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir  string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	FigDir         string `yaml:"fig_dir" envconfig:"FIG_DIR"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ComponentsFile string `yaml:"components_file" envconfig:"COMPONENTS_FILE"`
}

// PlotConfig holds figure defaults applied when a caller gives none.
type PlotConfig struct {
	Format   string   `yaml:"format" envconfig:"FORMAT" validate:"oneof=png svg pdf"`
	Kind     string   `yaml:"kind" envconfig:"KIND" validate:"oneof=bar point"`
	WidthIn  float64  `yaml:"width_in" envconfig:"WIDTH_IN" validate:"gt=0"`
	HeightIn float64  `yaml:"height_in" envconfig:"HEIGHT_IN" validate:"gt=0"`
	Palette  []string `yaml:"palette" envconfig:"PALETTE" validate:"min=1,dive,hexcolor"`
}

// TelemetryConfig selects the trace and metric exporters.
type TelemetryConfig struct {
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, the first config file found
// and FEAR_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags: fields without an environment variable keep the
	// value from the file or from Default.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file on cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Plot.Format = strings.ToLower(c.Plot.Format)
	c.Plot.Kind = strings.ToLower(c.Plot.Kind)

	// Log output is always JSON.
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/fearcli.log"
	}

	return validator.New().Struct(c)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"fearcli.yaml",
		"configs/fearcli.yaml",
		"../configs/fearcli.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/fearcli.log",
		},
		Paths: PathsConfig{
			DataDir:        DefaultDataDir,
			OutputDir:      DefaultOutputDir,
			FigDir:         DefaultFigDir,
			LogsDir:        DefaultLogsDir,
			ComponentsFile: DefaultComponentsFile,
		},
		Plot: PlotConfig{
			Format:   "png",
			Kind:     "bar",
			WidthIn:  16,
			HeightIn: 10,
			Palette:  append([]string(nil), DefaultPalette...),
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}

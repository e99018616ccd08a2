package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	Index       int
	Backend     string
	LogLevel    string
	LogFormat   string
	MetricsPort int
	HealthPort  int
	NATSURL     string

	Validate bool
	SelfTest bool
	Info     bool
	SavePath string
	Frames   int
	Latest   bool

	ShowVersion bool
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("CAMKIT_CONFIG", "configs/cameras.json"),
		"Path to camera configuration document (env: CAMKIT_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("CAMKIT_CONFIG", "configs/cameras.json"),
		"Path to camera configuration document (env: CAMKIT_CONFIG)")

	flag.IntVar(&cfg.Index, "index",
		getEnvInt("CAMKIT_INDEX", 0),
		"Camera index within the configuration document (env: CAMKIT_INDEX)")

	flag.StringVar(&cfg.Backend, "backend",
		getEnv("CAMKIT_BACKEND", "simulated"),
		"Backend kind: virtual, simulated, axis, ic, pike, videocapture, ueye (env: CAMKIT_BACKEND)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CAMKIT_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: CAMKIT_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CAMKIT_LOG_FORMAT", "json"),
		"Log format: json, text (env: CAMKIT_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("CAMKIT_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: CAMKIT_METRICS_PORT)")

	flag.IntVar(&cfg.HealthPort, "health-port",
		getEnvInt("CAMKIT_HEALTH_PORT", 0),
		"Health endpoint port, 0 to disable (env: CAMKIT_HEALTH_PORT)")

	flag.StringVar(&cfg.NATSURL, "nats-url",
		getEnv("CAMKIT_NATS_URL", ""),
		"NATS server URL for event publishing, empty to disable (env: CAMKIT_NATS_URL)")

	flag.BoolVar(&cfg.Validate, "validate", false, "Validate the configuration document and exit")
	flag.BoolVar(&cfg.SelfTest, "selftest", false, "Run the camera self-test and exit")
	flag.BoolVar(&cfg.Info, "info", false, "Print camera information and exit")
	flag.StringVar(&cfg.SavePath, "save", "", "Save resolved parameters to this file and exit")
	flag.IntVar(&cfg.Frames, "frames", 0, "Acquire this many frames and exit, 0 to run until interrupted")
	flag.BoolVar(&cfg.Latest, "latest", false, "Request the most recent frame instead of the next unread one")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	// Validate config file exists
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	if cfg.Index < 0 {
		return fmt.Errorf("invalid camera index: %d", cfg.Index)
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	// Validate log format
	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		return fmt.Errorf("invalid health port: %d", cfg.HealthPort)
	}

	if cfg.Frames < 0 {
		return fmt.Errorf("invalid frame count: %d", cfg.Frames)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Camera Hardware Abstraction

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Validate a configuration document
  %s --config=/etc/camkit/cameras.json --validate

  # Replay an image directory and grab ten frames
  %s --backend=virtual --config=cameras.json --frames=10

  # Self-test an Axis camera with text logs
  %s --backend=axis --index=1 --selftest --log-format=text

  # Run until interrupted, exporting Prometheus metrics
  %s --backend=simulated --metrics-port=9090

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-sleep-monitor/internal/analyzer"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Identity and storage
	userID     string
	storeKind  string
	dataDir    string
	configFile string

	// Output related
	outputFormat string
	timezone     string

	// Window selection
	rangeName string
	fromDate  string
	toDate    string

	// Cache related
	noCache bool
	reset   bool

	rootCmd = &cobra.Command{
		Use:   "go-sleep-monitor [flags]",
		Short: "Sleep check-in tracking and analytics tool",
		Long: `go-sleep-monitor is a command-line tool for recording sleep check-ins and analyzing sleep patterns.

Check-ins are stored per user as JSONL (or in SQLite), paired into sleep cycles and
attributed to calendar days. Without a subcommand it renders analytics for a date window.

Examples:
  go-sleep-monitor                                     # Last 7 days for the default user
  go-sleep-monitor --range 30days -o summary           # 30 day summary
  go-sleep-monitor --range lastMonth -o csv            # Previous calendar month as CSV
  go-sleep-monitor --from 2024-03-01 --to 2024-03-14   # Explicit window
  go-sleep-monitor checkin                             # Record "fell asleep" or "woke up"
  go-sleep-monitor backfill --start "2024-03-03 23:00" --end "2024-03-04 07:00"
  go-sleep-monitor history --timezone Asia/Shanghai    # Day by day history
  go-sleep-monitor serve --listen :8080                # JSON API`,
		PersistentPreRunE: setup,
		RunE:              runAnalyze,
		SilenceUsage:      true,
	}
)

const (
	defaultLogFile    = "~/.go-sleep-monitor/logs/app.log"
	defaultCacheDir   = "~/.go-sleep-monitor/cache"
	defaultDataDir    = "~/.go-sleep-monitor/data"
	defaultConfigFile = "~/.go-sleep-monitor/config.yaml"
	defaultUser       = "default"
)

func init() {
	// Identity and storage
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", defaultUser,
		"User whose check-ins are read and written")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", model.StoreJSONL,
		"Storage backend (jsonl, sqlite)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", defaultDataDir,
		"Data directory holding the event logs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigFile,
		"Config file path")

	// Window selection
	rootCmd.PersistentFlags().StringVar(&rangeName, "range", "7days",
		"Date range (7days, 30days, thisMonth, lastMonth)")
	rootCmd.PersistentFlags().StringVar(&fromDate, "from", "",
		"Window start date (YYYY-MM-DD), overrides --range")
	rootCmd.PersistentFlags().StringVar(&toDate, "to", "",
		"Window end date (YYYY-MM-DD), defaults to today")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", model.OutputTable,
		"Output format (table, json, csv, summary)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone used for day attribution (e.g., Asia/Shanghai, UTC)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false,
		"Skip the reconcile cache")
	rootCmd.Flags().BoolVarP(&reset, "reset", "r", false,
		"Clear cache before analysis")
}

// setup runs before every command: config file defaults, logging and timezone.
func setup(cmd *cobra.Command, args []string) error {
	fileConfig, err := loadFileConfig(expandPath(configFile))
	if err != nil {
		return err
	}
	if err := fileConfig.apply(cmd); err != nil {
		return err
	}

	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		logFile = ""
	}
	util.InitLogger(logLevel, logFile, debug)

	return util.InitializeTimeProvider(timezone)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cacheDir := expandPath(defaultCacheDir)
	if reset {
		if err := clearCache(cacheDir); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run()
}

// newAnalyzer builds an analyzer from the resolved flags, writing to cmd's output.
func newAnalyzer(cmd *cobra.Command) (*analyzer.Analyzer, error) {
	dir := expandPath(dataDir)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cacheDir := expandPath(defaultCacheDir)
	if err := ensureDir(cacheDir); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	config := &analyzer.Config{
		UserID:       userID,
		StoreKind:    storeKind,
		DataDir:      dir,
		CacheDir:     cacheDir,
		NoCache:      noCache,
		OutputFormat: outputFormat,
		Timezone:     timezone,
		Range:        rangeName,
		From:         fromDate,
		To:           toDate,
	}

	a, err := analyzer.New(config)
	if err != nil {
		return nil, err
	}
	a.SetOutput(cmd.OutOrStdout())
	return a, nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func clearCache(cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			path := filepath.Join(cacheDir, entry.Name())
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	return nil
}

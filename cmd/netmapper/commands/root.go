package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DrSkyle/netmapper/pkg/config"
	"github.com/DrSkyle/netmapper/pkg/engine"
	"github.com/DrSkyle/netmapper/pkg/filter"
	"github.com/DrSkyle/netmapper/pkg/tui"
	"github.com/DrSkyle/netmapper/pkg/version"
	"github.com/DrSkyle/netmapper/pkg/view"
)

var (
	cfgFile    string
	verbose    bool
	startView  string
	filterExpr string
)

var rootCmd = &cobra.Command{
	Use:   "netmapper",
	Short: "Discover devices on your network and map them",
	Long: `netmapper - Network Discovery Console

Scan. Inspect. Map.`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInteractive,
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/.netmapper.yaml)")
	pf.String("base-url", config.DefaultBaseURL, "Discovery service URL")
	pf.String("output", ".", "Where maps are saved: a directory or s3://bucket/prefix")
	pf.String("region", "", "AWS region for s3:// outputs")
	pf.String("s3-endpoint", "", "Custom S3 endpoint (e.g. LocalStack)")
	pf.Float64("rate-limit", 0, "Max requests per second to the discovery service (0 = unlimited)")
	pf.String("otel-endpoint", "", "OTLP HTTP endpoint for traces")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for key, flag := range map[string]string{
		config.KeyBaseURL:      "base-url",
		config.KeyOutput:       "output",
		config.KeyRegion:       "region",
		config.KeyS3Endpoint:   "s3-endpoint",
		config.KeyRateLimit:    "rate-limit",
		config.KeyOtelEndpoint: "otel-endpoint",
		config.KeyMetricsAddr:  "metrics-addr",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.Flags().StringVar(&startView, "view", "list", "Initial view: list or graph")
	rootCmd.Flags().StringVar(&filterExpr, "filter", "", `Device filter, e.g. 'kind == "router"'`)

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(scanCmd, graphCmd, mapsCmd, themeCmd, versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, config.FileName))
			viper.SetConfigType("yaml")
		}
	}
	config.SetDefaults(viper.GetViper())
	_ = viper.ReadInConfig()
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// openLogFile sends TUI-mode logs to a file so they do not tear the screen.
func openLogFile(path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(home, ".netmapper", "netmapper.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return engine.NewLogger(f, level), f, nil
}

func newEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...engine.Option) (*engine.Engine, error) {
	slog.SetDefault(logger)
	base := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
	}
	return engine.New(ctx, append(base, opts...)...)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	mode, err := view.ParseMode(startView)
	if err != nil {
		return err
	}
	f, err := filter.Compile(filterExpr)
	if err != nil {
		return err
	}

	logger, logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	ctx := cmd.Context()
	eng, err := newEngine(ctx, cfg, logger,
		engine.WithMode(mode),
		engine.WithShutdownHook(func(context.Context) error { return logFile.Close() }),
	)
	if err != nil {
		return err
	}
	defer eng.Close(context.Background())

	theme, _ := config.ParseTheme(cfg.Theme)
	prefs := config.NewPreferences(theme, config.ViperPersist(viper.GetViper()))
	config.WatchTheme(viper.GetViper(), prefs)

	return tui.Run(ctx, eng.View, prefs, tui.WithFilter(f))
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("NETMAPPER %s", version.Current)))
	fmt.Fprintln(w, cmd.Short)

	fmt.Fprintln(w, titleStyle.Render("USAGE"))
	fmt.Fprintf(w, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(w, titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(w, "  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, titleStyle.Render("EXAMPLES"))
	fmt.Fprintln(w, "  netmapper                               # Interactive Mode (TUI)")
	fmt.Fprintln(w, "  netmapper scan --format json            # Headless device list")
	fmt.Fprintln(w, "  netmapper graph --output s3://maps/lan  # Save the network map")
	fmt.Fprintln(w, "  netmapper maps --output s3://maps/lan   # List saved maps")
	fmt.Fprintln(w)

	fmt.Fprintln(w, titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(w, flagStyle.Render(output))
	})
	fmt.Fprintln(w)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/timvw/devloop/internal/config"
	"github.com/timvw/devloop/internal/controller"
	"github.com/timvw/devloop/internal/host"
	telem "github.com/timvw/devloop/internal/otel"
)

var (
	// Global flags.
	flagVerbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "devloop",
	Short: "Build-and-reload loop for terminal multiplexer plugins",
	Long: `devloop drives the edit/compile/reload cycle of a Zellij plugin written
in Rust.

It runs the build in a floating command pane, loads or reloads the compiled
WebAssembly artifact when the build succeeds, keeps a reload shortcut bound
while its tab is active, and closes itself when the plugin under development
is closed.

Host notifications arrive as JSON datagrams on a unix socket; host
instructions are written as JSON lines (see "devloop run --help").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(cfg.Level)
		if flagVerbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cfg.ConfigFile != "" {
			logger.Debug("config loaded", zap.String("file", cfg.ConfigFile))
		}
		for _, w := range cfg.Warnings {
			logger.Warn("config", zap.String("warning", w))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

// newController builds a controller from the loaded configuration. A nil
// tracer falls back to the global provider.
func newController(h host.Host, tracer trace.Tracer, metrics *telem.Metrics, onTargetChanged func(string)) *controller.Controller {
	return controller.New(h, controller.Options{
		Shortcut:        cfg.Shortcut,
		BuildCommand:    cfg.Command,
		Layout:          cfg.Layout(),
		FilepickerURL:   cfg.FilepickerURL,
		OnTargetChanged: onTargetChanged,
		Logger:          logger.Named("controller"),
		Metrics:         metrics,
		Tracer:          tracer,
	})
}

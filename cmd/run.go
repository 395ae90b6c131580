package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/timvw/devloop/internal/controller"
	"github.com/timvw/devloop/internal/events"
	"github.com/timvw/devloop/internal/host"
	telem "github.com/timvw/devloop/internal/otel"
	"github.com/timvw/devloop/internal/panel"
	"github.com/timvw/devloop/internal/watch"
)

var (
	flagHeadless bool
	flagTheme    string
	flagListen   string
	flagEmit     string
	flagWatch    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the development loop",
	Long: `Start the controller.

Host notifications are read from a unix datagram socket (--listen), one JSON
object per datagram. Host instructions are written as JSON lines to --emit:
"-" for stdout, a file path, or unix:/path for a datagram socket.

By default an interactive panel shows the current folder, the reload shortcut
and the build state. Use --headless to run without it.

With --watch, saving a Rust source file or the Cargo manifest in the current
folder triggers a rebuild.

Configuration is loaded from .devloop.yaml or environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd)
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run without the interactive panel")
	runCmd.Flags().StringVar(&flagTheme, "theme", "dark", "Color theme: dark, light")
	runCmd.Flags().StringVar(&flagListen, "listen", "", "unix datagram socket path for host notifications")
	runCmd.Flags().StringVar(&flagEmit, "emit", "", `instruction destination: "-", a file path, or unix:/path`)
	runCmd.Flags().BoolVar(&flagWatch, "watch", false, "rebuild when sources in the current folder change")
	rootCmd.AddCommand(runCmd)
}

func runLoop(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagEmit != "" {
		cfg.Emit = flagEmit
	}
	if cmd.Flags().Changed("watch") {
		cfg.Watch = flagWatch
	}

	session, err := host.Detect()
	if err != nil {
		logger.Warn("host session not detected", zap.Error(err))
	} else {
		logger.Info("host session", zap.String("session", session.Name))
	}
	folder, _ := os.Getwd()

	telem.Version = Version
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
		Session:  session.Name,
		Folder:   folder,
	})
	if err != nil {
		logger.Warn("otel init failed", zap.Error(err))
	}
	defer tel.Shutdown(context.Background())
	var (
		tracer  trace.Tracer
		metrics *telem.Metrics
	)
	if tel != nil {
		tracer = tel.Tracer
		metrics = tel.Metrics
	}

	emitter, err := host.OpenEmitter(cfg.Emit, logger.Named("emit"))
	if err != nil {
		return fmt.Errorf("instruction output: %w", err)
	}
	defer emitter.Close()

	collector := events.NewCollector(cfg.Listen, logger.Named("collector"))
	if err := collector.Start(ctx); err != nil {
		return fmt.Errorf("notification socket: %w", err)
	}
	logger.Info("listening for host notifications", zap.String("socket", collector.SocketPath()))

	sources := []<-chan events.Event{collector.Events()}

	var watcher *watch.Watcher
	if cfg.Watch {
		watcher, err = watch.New(cfg.WatchDebounceDuration, logger.Named("watch"))
		if err != nil {
			return fmt.Errorf("file watcher: %w", err)
		}
		defer watcher.Stop()
		watcher.Start(ctx)
		sources = append(sources, watcher.Events())
	}

	ctrl := newController(host.New(emitter), tracer, metrics, func(root string) {
		if watcher == nil {
			return
		}
		if err := watcher.Retarget(root); err != nil {
			logger.Warn("cannot watch folder", zap.String("root", root), zap.Error(err))
		}
	})

	in := events.Merge(ctx, sources...)

	if flagHeadless {
		err := ctrl.Run(ctx, in, func(s controller.Status) {
			logger.Info("status",
				zap.String("folder", s.Target),
				zap.String("phase", string(s.Phase)),
				zap.Bool("shortcut_bound", s.ShortcutOn),
				zap.Bool("plugin_resolved", s.HasPlugin))
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	p := &panel.Panel{
		Controller: ctrl,
		Events:     in,
		Theme:      panel.ThemeByName(flagTheme),
	}
	return p.Run(ctx)
}

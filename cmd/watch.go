package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/app"
	"github.com/JakeFAU/convert-progress/internal/lifecycle"
	"github.com/JakeFAU/convert-progress/internal/lifecycle/sinks"
	"github.com/JakeFAU/convert-progress/internal/metrics"
	"github.com/JakeFAU/convert-progress/internal/navigate"
	"github.com/JakeFAU/convert-progress/internal/server"
	"github.com/JakeFAU/convert-progress/internal/sse"
	"github.com/JakeFAU/convert-progress/internal/tracker"
	"github.com/JakeFAU/convert-progress/internal/view"
)

type watchOptions struct {
	session string
	page    string
	noColor bool
	clear   bool
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow one conversion session until it completes or fails",
		Long: `Subscribes to {server.base_url}/progress/{session} and renders every
snapshot. On completion the result view is requested after the configured
delay, using the filename from the --page query string.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.session, "session", "", "conversion session id (required)")
	cmd.Flags().StringVar(&opts.page, "page", "", "host page URL carrying ?filename=")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "redraw in place instead of appending frames")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := a.Config
	logger := a.Logger.Named("watch")

	var page *url.URL
	if opts.page != "" {
		if page, err = url.Parse(opts.page); err != nil {
			return fmt.Errorf("parse --page: %w", err)
		}
	}

	hub, err := newLifecycleHub(a, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("lifecycle hub close", zap.Error(cerr))
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if addr := cfg.Metrics.ListenAddr; addr != "" {
		go func() {
			if serr := server.Run(ctx, addr, metrics.Handler(a.Registry), logger.Named("metrics")); serr != nil {
				logger.Error("metrics listener", zap.Error(serr))
			}
		}()
	}

	theme := view.DefaultTheme()
	if opts.noColor {
		theme = view.NewTheme(false)
	}
	containerID := cfg.Tracker.ContainerID
	renderer := view.NewRenderer(
		view.StandardDocument(containerID),
		containerID,
		view.WithPainter(view.NewTerminal(cmd.OutOrStdout(), theme, view.WithClearScreen(opts.clear))),
		view.WithLogger(logger.Named("view")),
	)

	nav, err := navigate.NewHTTPNavigator(cfg.Server.BaseURL, nil, cmd.OutOrStdout(), logger.Named("navigate"))
	if err != nil {
		return err
	}

	tr := tracker.New(opts.session, renderer,
		tracker.WithSource(sse.NewClient(cfg.Server.BaseURL, streamClient(cfg.ConnectTimeout()), logger.Named("sse"))),
		tracker.WithNavigator(nav),
		tracker.WithEmitter(hub),
		tracker.WithLogger(logger),
		tracker.WithPageURL(page),
		tracker.WithNavigationDelay(cfg.NavigationDelay()),
		tracker.WithRegressionPolicy(cfg.Policy()),
	)
	if err := tr.Start(ctx); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}
	<-tr.Done()

	if tr.State() == tracker.StateFailed {
		return fmt.Errorf("session %s failed: %w", opts.session, tr.Err())
	}
	return nil
}

func newLifecycleHub(a *app.App, logger *zap.Logger) (*lifecycle.Hub, error) {
	promSink, err := sinks.NewPrometheusSink(a.Registry)
	if err != nil {
		return nil, err
	}
	hubCfg := a.Config.HubSettings()
	hubCfg.Logger = logger.Named("lifecycle")
	return lifecycle.NewHub(hubCfg,
		sinks.NewLogSink(logger.Named("lifecycle")),
		promSink,
		sinks.NewStoreSink(a.Sessions, logger.Named("store")),
	), nil
}

// streamClient bounds connection setup but never the open stream.
func streamClient(connectTimeout time.Duration) *http.Client {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Client{}
	}
	t := transport.Clone()
	t.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.ResponseHeaderTimeout = connectTimeout
	return &http.Client{Transport: t}
}

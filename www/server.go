package www

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/angas/strompris-go/config"
	"github.com/angas/strompris-go/prices"
)

type Server struct {
	logger  *slog.Logger
	config  config.AppConfigApi
	handler http.Handler
}

//go:embed static
var embeddedStaticDir embed.FS

// NewServer wires all routes. logs may be nil, the log viewer is then not
// mounted.
func NewServer(cnfg config.AppConfigApi, aggregator *prices.Aggregator, logs LogReader, version string) (*Server, error) {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, cnfg.WwwDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	staticFiles, err := staticFilesHandler(cnfg.WwwDir)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFiles))

	mux.Handle("GET /{$}", NewPageHandler(
		logger.With(slog.String("handler", "index")),
		tm, "strompris.html", version))

	mux.Handle("GET /activity", NewPageHandler(
		logger.With(slog.String("handler", "activity")),
		tm, "activity.html", version))

	mux.Handle("GET /plot_prices.json", NewPlotPricesHandler(
		logger.With(slog.String("handler", "plot_prices")),
		aggregator))

	mux.Handle("GET /plot_daily_prices.json", NewPlotDailyPricesHandler(
		logger.With(slog.String("handler", "plot_daily_prices")),
		aggregator))

	mux.Handle("GET /plot_activity.json", NewPlotActivityHandler(
		logger.With(slog.String("handler", "plot_activity")),
		aggregator))

	if logs != nil {
		mux.Handle("GET /log", NewLogHandler(
			logger.With(slog.String("handler", "log")),
			logs,
			tm))
	}

	docsDir := cnfg.GetDocsDir()
	if fi, err := os.Stat(docsDir); err == nil && fi.IsDir() {
		logger.Info("serving documentation", slog.String("dir", docsDir))
		mux.Handle("GET /help/", http.StripPrefix("/help/", http.FileServer(http.Dir(docsDir))))
	}

	return &Server{
		logger:  logger,
		config:  cnfg,
		handler: logRequestMW(logger, compressionMW(logger, defaultCompressionConfig(), mux)),
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.GetPort())
	s.logger.Info("starting server...", slog.String("address", addr))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}

func staticFilesHandler(extDir *string) (http.Handler, error) {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir)), nil
		}
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded static files: %w", err)
	}
	return http.FileServer(http.FS(fsys)), nil
}

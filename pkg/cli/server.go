package cli

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mchmarny/riskctl/pkg/logging"
	"github.com/mchmarny/riskctl/pkg/net"
	"github.com/mchmarny/riskctl/pkg/risk"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 30
	serverMaxHeaderBytes      = 20
)

var (
	//go:embed assets/* templates/*
	embedFS embed.FS

	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen (optional, defaults to config)",
	}

	addressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "Address on which the server will listen (optional, defaults to config)",
	}

	noBrowserFlag = &cli.BoolFlag{
		Name:    "no-browser",
		Aliases: []string{"nb"},
		Usage:   "Do not open browser automatically",
	}

	serverCmd = &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the risk assessment web form",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
			addressFlag,
			noBrowserFlag,
		},
	}
)

func cmdStartServer(c *cli.Context) error {
	cfg := getConfig(c)
	if !cfg.Debug {
		logging.SetDefault(logging.Options{Level: cfg.Config.Log.Level, Format: cfg.Config.Log.Format})
	}

	if v := c.Int(portFlag.Name); v != 0 {
		cfg.Config.Server.Port = v
	}
	if v := c.String(addressFlag.Name); v != "" {
		cfg.Config.Server.Address = v
	}
	address := fmt.Sprintf("%s:%d", cfg.Config.Server.Address, cfg.Config.Server.Port)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scorer, err := cfg.Scorer(ctx)
	if err != nil {
		return fmt.Errorf("initializing scorer: %w", err)
	}

	var limiter *net.RateLimiter
	if rl := cfg.Config.RateLimit; rl.Requests > 0 {
		limiter = net.NewRateLimiter(rl.Requests, rl.Window)
		defer limiter.Stop()
	}

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(scorer, limiter, cfg.Config.Theme),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url)

	if !c.Bool(noBrowserFlag.Name) {
		openBrowser(url)
	}

	return g.Wait()
}

// makeRouter wires the page, the JSON API and static assets. A nil limiter
// disables rate limiting.
func makeRouter(scorer risk.Scorer, limiter *net.RateLimiter, defaultTheme string) http.Handler {
	tmpl := template.Must(template.New("").ParseFS(embedFS, "templates/*.html"))

	limit := func(h http.HandlerFunc) http.Handler {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(h)
	}

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(embedFS)))
	mux.HandleFunc("GET /favicon.ico", faviconHandler)
	mux.HandleFunc("GET /healthz", healthHandler)

	// Views
	mux.HandleFunc("GET /{$}", homeViewHandler(tmpl, defaultTheme))
	mux.Handle("POST /assess", limit(assessViewHandler(tmpl, scorer, defaultTheme)))

	// API
	mux.Handle("POST /api/v1/assess", limit(assessAPIHandler(scorer)))
	mux.HandleFunc("GET /api/v1/ratio", ratioAPIHandler)

	return withRequestLog(mux)
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apihttp "freelance-tax/internal/api/http"
	"freelance-tax/internal/auth"
	ledgerhttp "freelance-tax/internal/ledger/interfaces/http"
	"freelance-tax/internal/logger"
	"freelance-tax/internal/observability/metrics"
	productivityhttp "freelance-tax/internal/productivity/interfaces/http"
	receiptshttp "freelance-tax/internal/receipts/http"
	simulationhttp "freelance-tax/internal/simulation/interfaces/http"
	taxapp "freelance-tax/internal/tax/application"
	taxhttp "freelance-tax/internal/tax/interfaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the JSON API under /api/v1/, Prometheus metrics under /metrics and
uploaded receipts under the path of RECEIPTS_PUBLIC_URL.

Every /api/v1/ request needs a bearer token signed with AUTH_JWT_SECRET
(see the token command).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("serve")
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	metrics.Init()
	handler, err := buildRouter(a, log)
	if err != nil {
		return err
	}

	if cfg.Reminders.WebhookURL != "" {
		scheduler := taxapp.NewReminderScheduler(a.tax, cfg.Reminders.DailyAt, cfg.Reminders.HorizonDays, logger.GetLogger())
		go scheduler.Start(ctx)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("http listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildRouter mounts every handler behind the access log and auth middleware.
func buildRouter(a *app, log zerolog.Logger) (http.Handler, error) {
	auditor := apihttp.NewAuditor(a.audit, log)
	mux := http.NewServeMux()

	ledgerHandler, err := ledgerhttp.NewHandler(a.ledger, auditor)
	if err != nil {
		return nil, err
	}
	ledgerHandler.Register(mux)

	taxHandler, err := taxhttp.NewHandler(a.tax, a.clock, auditor)
	if err != nil {
		return nil, err
	}
	taxHandler.Register(mux)

	productivityHandler, err := productivityhttp.NewHandler(a.productivity, auditor)
	if err != nil {
		return nil, err
	}
	productivityHandler.Register(mux)

	simulationHandler, err := simulationhttp.NewHandler(a.simulation, auditor)
	if err != nil {
		return nil, err
	}
	simulationHandler.Register(mux)

	csvHandler, err := apihttp.NewExportOperationsCSVHandler(a.ledger, auditor)
	if err != nil {
		return nil, err
	}
	mux.Handle("/api/v1/exports/operations.csv", csvHandler)

	store, err := newReceiptStore(cfg, a.clock, log)
	if err != nil {
		return nil, err
	}
	receiptsHandler, err := receiptshttp.NewHandler(store, auditor)
	if err != nil {
		return nil, err
	}
	receiptsHandler.Register(mux)

	filesPrefix := receiptFilesPrefix(cfg.Receipts.PublicURL)
	mux.Handle(filesPrefix, http.StripPrefix(filesPrefix, http.FileServer(http.Dir(filepath.Clean(cfg.Receipts.Root)))))

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{filesPrefix})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	return apihttp.AccessLog(log, authMiddleware.Wrap(mux)), nil
}

// receiptFilesPrefix is the local path receipts are served from, derived
// from the public URL ("/files/" by default).
func receiptFilesPrefix(publicURL string) string {
	prefix := "/files/"
	if u, err := url.Parse(publicURL); err == nil && strings.Trim(u.Path, "/") != "" {
		prefix = "/" + strings.Trim(u.Path, "/") + "/"
	}
	return prefix
}

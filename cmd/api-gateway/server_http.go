package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	config "github.com/NordCoder/Hookery/internal/config/api-gateway"
	"github.com/NordCoder/Hookery/internal/obs"
	pg "github.com/NordCoder/Hookery/internal/repository/postgres"
	"github.com/NordCoder/Hookery/internal/services/api-gateway/auth"
	"github.com/NordCoder/Hookery/internal/services/api-gateway/webhook"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, hooks *webhook.Server) (*http.Server, error) {
	mux := webhook.NewMux()
	if err := hooks.Register(mux); err != nil {
		return nil, err
	}

	root := http.NewServeMux()
	root.Handle("/", auth.Middleware(auth.Config{
		Enable:    cfg.Auth.Enable,
		JWTSecret: []byte(cfg.Auth.JWTSecret),
	}, logger)(mux))
	root.Handle("/metrics", obs.MetricsHandler())
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(hctx); err != nil {
			http.Error(w, "unhealthy: db", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(root, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}

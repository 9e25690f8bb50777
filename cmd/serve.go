package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cache maintenance HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/cache/stats", func(w http.ResponseWriter, req *http.Request) {
			stats, err := e.Cache.Stats(req.Context())
			if err != nil {
				zap.L().Error("cache stats failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats query failed"})
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		r.Post("/cache/reset", func(w http.ResponseWriter, req *http.Request) {
			var filter store.ResetFilter
			if err := json.NewDecoder(req.Body).Decode(&filter); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			for _, t := range filter.SourceTypes {
				if !t.Valid() {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown source type %q", t)})
					return
				}
			}
			n, err := e.Cache.ResetSubjectStatus(req.Context(), filter)
			if err != nil {
				zap.L().Error("cache reset failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reset failed"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]int64{"reset": n})
		})

		r.Get("/sources", func(w http.ResponseWriter, req *http.Request) {
			orch := e.buildOrchestrator(nil)
			type sourceInfo struct {
				Name        string           `json:"name"`
				Type        model.SourceType `json:"type"`
				Category    string           `json:"category"`
				Cost        float64          `json:"estimated_cost"`
				Reliability float64          `json:"reliability"`
			}
			out := make([]sourceInfo, 0)
			for _, s := range orch.Sources() {
				out = append(out, sourceInfo{
					Name:        s.Name(),
					Type:        s.Type(),
					Category:    string(s.Category()),
					Cost:        s.EstimatedCost(),
					Reliability: s.Reliability(),
				})
			}
			writeJSON(w, http.StatusOK, out)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting maintenance server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

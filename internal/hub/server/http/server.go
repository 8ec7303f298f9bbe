package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/service"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/pkg/metrics"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

// Server exposes the operational HTTP surface: health probes, metrics, the
// active-sessions snapshot, and the dashboard WebSocket endpoint.
type Server struct {
	server *http.Server
}

func NewServer(opts *options.HttpOptions, wsPath string, wsHandler http.Handler, svc *service.TrackingService, checks map[string]ReadyCheck) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn("Readiness check failed", "check", name, "err", err.Error())
				http.Error(w, name+" not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.HandleFunc("/api/sessions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Sessions()); err != nil {
			log.Error(err, "Failed to encode sessions snapshot")
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/trace/{vehicleId}/{sessionId}", func(w http.ResponseWriter, req *http.Request) {
		vars := mux.Vars(req)
		points, err := svc.Trace(req.Context(), vars["vehicleId"], vars["sessionId"])
		if err != nil {
			log.Error(err, "Failed to load trace", "vehicleID", vars["vehicleId"], "sessionID", vars["sessionId"])
			http.Error(w, "failed to load trace", http.StatusInternalServerError)
			return
		}
		if len(points) == 0 {
			http.Error(w, "trace not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(points); err != nil {
			log.Error(err, "Failed to encode trace")
		}
	}).Methods(http.MethodGet)

	r.Handle(wsPath, wsHandler)

	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  opts.Timeout,
			WriteTimeout: 0, // streaming endpoints manage their own deadlines
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

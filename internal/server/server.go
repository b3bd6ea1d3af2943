// Package server implements the REST surface over the measurement core.
// It parses and validates requests and maps core errors to status codes;
// all measurement semantics live in internal/measurement.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sensorstack/telemetryd/internal/log"
	"github.com/sensorstack/telemetryd/internal/measurement"
	"github.com/sensorstack/telemetryd/pkg/config"
)

// Server is the REST server for measurement registration, ingestion, and
// queries.
type Server struct {
	httpConfig  config.HTTPData
	Server      http.Server
	provisioner *measurement.Provisioner
	ingestor    *measurement.Ingestor
	engine      *measurement.Engine
	logger      *zap.SugaredLogger
	handlers    *Handlers
}

// New creates a REST server wired to the given table store.
func New(httpConfig config.HTTPData, store measurement.TableStore, logger *zap.SugaredLogger) *Server {
	s := &Server{
		httpConfig:  httpConfig,
		provisioner: measurement.NewProvisioner(store),
		ingestor:    measurement.NewIngestor(store),
		engine:      measurement.NewEngine(store),
		logger:      logger,
	}

	if s.httpConfig.ListenAddr == "" {
		logger.Info("http.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		s.httpConfig.ListenAddr = "0.0.0.0"
	}
	if s.httpConfig.Port == 0 {
		logger.Info("http.port not provided; defaulting to 8080")
		s.httpConfig.Port = 8080
	}

	s.handlers = NewHandlers(s)

	s.Server.Addr = fmt.Sprintf("%v:%v", s.httpConfig.ListenAddr, s.httpConfig.Port)
	s.Server.Handler = s.setupRouter()

	return s
}

// Start runs the HTTP server and shuts it down when the context is
// canceled.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) {
	log.Info("Starting measurement REST server...")
	wg.Add(1)

	go func() {
		defer wg.Done()
		if err := s.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down the REST server...")
		s.Server.Shutdown(context.Background())
	}()
}

// setupRouter configures the HTTP router with all endpoints
func (s *Server) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sensors/{brand}/{sensor}/measurements", s.handlers.RegisterMeasurement).Methods(http.MethodPost)
	api.HandleFunc("/sensors/{brand}/{sensor}/measurements/data", s.handlers.IngestRecords).Methods(http.MethodPost)
	api.HandleFunc("/sensors/{brand}/{sensor}/measurements/upload", s.handlers.UploadCSV).Methods(http.MethodPost)
	api.HandleFunc("/sensors/{brand}/{sensor}/measurements/range", s.handlers.GetRange).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{brand}/{sensor}/measurements/export", s.handlers.ExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{brand}/{sensor}/measurements/latest", s.handlers.GetLatest).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handlers.Health).Methods(http.MethodGet)

	return router
}

// requestIDMiddleware tags every request with an id and logs it on
// completion.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugw("request complete",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/domain/translator"
	"hue-bus-bridge/internal/ports"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 64 << 10
)

// ConfigReader is the subset of the config service the admin route needs.
type ConfigReader interface {
	GetConfig(ctx context.Context) (*model.Config, error)
}

// BodyValidator checks a decoded command body before it is dispatched.
type BodyValidator interface {
	Validate(body map[string]any) error
}

// Server exposes the bridge state and a command entry point for diagnostics.
type Server struct {
	status   ports.StatusReader
	commands ports.CommandHandler
	config   ConfigReader
	bodies   BodyValidator
	log      zerolog.Logger
}

// NewServer builds the API. A nil bodies validator accepts any JSON object.
func NewServer(status ports.StatusReader, commands ports.CommandHandler, config ConfigReader, bodies BodyValidator, log zerolog.Logger) *Server {
	return &Server{
		status:   status,
		commands: commands,
		config:   config,
		bodies:   bodies,
		log:      log.With().Str("component", "http").Logger(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Get("/state/{key}", s.handleStateEntry)
		r.Post("/command/{body}", s.handleCommand)
	})
	r.Get("/admin/config", s.handleConfig)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := s.status.Health()
	status := http.StatusOK
	if h.LastSync.IsZero() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Entries())
}

func (s *Server) handleStateEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	e, ok := s.status.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no entry for "+key)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if s.bodies != nil {
		if err := s.bodies.Validate(body); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
	}

	res, err := s.commands.HandleCommand(r.Context(), model.InboundCommand{
		ID:       middleware.GetReqID(r.Context()),
		BodyName: chi.URLParam(r, "body"),
		Body:     body,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, translator.ErrIgnoredBody):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeIgnored, err.Error())
	case errors.Is(err, translator.ErrRejected):
		writeError(w, http.StatusBadRequest, ErrCodeRejected, err.Error())
	case res != nil:
		writeJSON(w, http.StatusBadGateway, res)
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeFailed, err.Error())
	}
}

// handleConfig returns the redacted configuration summary.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if s.config == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "config not available")
		return
	}
	cfg, err := s.config.GetConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"config": cfg.String()})
}

// Package httpapi exposes the command dispatcher over HTTP.
package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Mavwarf/cleartone/internal/audio"
	"github.com/Mavwarf/cleartone/internal/command"
	"github.com/Mavwarf/cleartone/internal/eventlog"
	"github.com/Mavwarf/cleartone/internal/metrics"
	"github.com/Mavwarf/cleartone/internal/playback"
	"github.com/Mavwarf/cleartone/internal/tone"
)

// maxBodyBytes bounds command bodies; arguments are a handful of scalars.
const maxBodyBytes = 64 << 10

// StatusFunc reports the file and tone playback slots.
type StatusFunc func() (file, tone playback.Status)

// Server holds the HTTP handlers' dependencies. Status and History are
// optional.
type Server struct {
	Dispatcher    *command.Dispatcher
	Status        StatusFunc
	History       eventlog.Store
	Calibration   tone.Calibration
	SampleRate    int
	MaxDurationMs int
	CORSOrigins   []string
	Logger        *zap.Logger
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/history", s.history)
		r.Post("/render", s.render)
		r.Post("/commands/{name}", s.command)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if s.Status == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	file, tn := s.Status()
	writeJSON(w, http.StatusOK, map[string]playback.Status{"file": file, "tone": tn})
}

func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		metrics.TransportErrorsTotal.WithLabelValues("http").Inc()
		writeResult(w, command.Failure(command.Errorf(command.InvalidArgument, "read body: %v", err)))
		return
	}
	writeResult(w, s.Dispatcher.CallJSON(r.Context(), chi.URLParam(r, "name"), body, "http"))
}

// render synthesizes a tone and returns it as a WAV file without playing it.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeResult(w, command.Failure(command.Errorf(command.InvalidArgument, "read body: %v", err)))
		return
	}
	cmd, err := command.DecodeJSON(command.PlayTone.String(), body)
	if err != nil {
		writeResult(w, command.Failure(err))
		return
	}
	req := *cmd.Tone
	if s.MaxDurationMs > 0 && req.DurationMs > s.MaxDurationMs {
		writeResult(w, command.Failure(command.Errorf(command.AllocationLimitExceeded,
			"duration too large: %d ms (max %d ms)", req.DurationMs, s.MaxDurationMs)))
		return
	}

	buf, err := s.Calibration.Generate(req, s.sampleRate())
	if err != nil {
		writeResult(w, command.Failure(err))
		return
	}
	var out bytes.Buffer
	if err := audio.EncodeWAV(&out, buf.Samples, buf.SampleRate, 2); err != nil {
		writeResult(w, command.Failure(err))
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusNotFound, command.Errorf(command.NotImplemented, "audit log disabled"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, command.Errorf(command.InvalidArgument, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	events, err := s.History.Recent(limit)
	if err != nil {
		s.Logger.Error("history query failed", zap.Error(err))
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) sampleRate() int {
	if s.SampleRate > 0 {
		return s.SampleRate
	}
	return tone.DefaultSampleRate
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())))
	})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind command.ErrorKind) int {
	switch kind {
	case command.InvalidArgument:
		return http.StatusBadRequest
	case command.AllocationLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case command.NotImplemented:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeResult(w http.ResponseWriter, res command.Result) {
	code := http.StatusOK
	if !res.OK {
		code = statusFor(res.Error.Kind)
	}
	writeJSON(w, code, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

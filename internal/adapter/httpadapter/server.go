package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxEncodeBody = 1 << 16

// EncodingSource serves the latest encoding per card.
type EncodingSource interface {
	Latest(cardID string) (domain.WindEncoding, bool)
}

// Server exposes health, readiness, metrics and wind rose HTTP endpoints.
type Server struct {
	httpServer *http.Server
	encodings  EncodingSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// POST /encode, GET /cards/{id} and GET /cards/{id}/rose.svg routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, encodings EncodingSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		encodings: encodings,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /encode", s.handleEncode)
	mux.HandleFunc("GET /cards/{id}", s.handleCard)
	mux.HandleFunc("GET /cards/{id}/rose.svg", s.handleRose)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// encodeRequest is the body of POST /encode. Direction, speed and gust accept
// either JSON strings or numbers.
type encodeRequest struct {
	Direction   json.RawMessage `json:"direction"`
	Speed       json.RawMessage `json:"speed"`
	Gust        json.RawMessage `json:"gust,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	DisplayUnit string          `json:"display_unit,omitempty"`
	MaxSpeed    *float64        `json:"max_speed,omitempty"`
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEncodeBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	card := domain.Card{
		ID:              "adhoc",
		DirectionEntity: "adhoc.direction",
		SpeedUnit:       domain.SpeedUnit(req.DisplayUnit),
	}
	if req.MaxSpeed != nil {
		card.MaxSpeed = *req.MaxSpeed
	}
	card = card.WithDefaults()
	if err := card.Validate(); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sample := domain.WindSample{
		DirectionRaw: rawText(req.Direction),
		SpeedRaw:     rawText(req.Speed),
		SpeedUnit:    domain.UnitOrDefault(req.Unit),
	}
	if len(req.Gust) > 0 && !isNull(req.Gust) {
		gust := rawText(req.Gust)
		sample.GustRaw = &gust
	}

	enc := domain.Encode(card, sample, domain.DefaultLayout)
	sharedobs.WriteJSON(w, http.StatusOK, enc)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	enc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, enc)
}

func (s *Server) handleRose(w http.ResponseWriter, r *http.Request) {
	enc, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.RenderSVG(&buf, enc); err != nil {
		s.logger.Error("render rose failed", "card_id", enc.CardID, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// lookup resolves the {id} path value, writing a 404 when no encoding exists.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.WindEncoding, bool) {
	enc, ok := s.encodings.Latest(r.PathValue("id"))
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": domain.ErrEntityNotFound.Error()})
		return domain.WindEncoding{}, false
	}
	return enc, true
}

// rawText returns a JSON string's contents, or the literal text of any other
// value so that numbers pass through and everything else falls back leniently.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

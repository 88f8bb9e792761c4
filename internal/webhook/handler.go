package webhook

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Sdiabate1337/reput/internal/models"
)

// InboundHandler processes one normalized inbound event. A nil error
// means handled (ack with 200); a non-nil error invites a provider
// retry (5xx).
type InboundHandler interface {
	HandleInbound(ctx context.Context, ev models.InboundEvent) error
}

type Handler struct {
	inbound InboundHandler
	logger  *zap.Logger
}

func NewHandler(inbound InboundHandler, logger *zap.Logger) *Handler {
	return &Handler{inbound: inbound, logger: logger}
}

// NewRouter builds the HTTP surface: the provider webhook, health and
// metrics.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Post("/webhook/inbound", h.Inbound)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// Inbound is the provider webhook endpoint. Business outcomes ack with
// 200 so the provider does not redeliver, no-ops and unknown tenants
// included; only malformed input or a persistence failure returns a
// non-2xx status.
func (h *Handler) Inbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	ev, err := ParseInbound(r.PostForm)
	if errors.Is(err, ErrMalformedPayload) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.inbound.HandleInbound(r.Context(), ev); err != nil {
		h.logger.Error("Failed to process inbound event",
			zap.Error(err),
			zap.String("from", ev.From),
			zap.String("to", ev.To))
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(emptyTwiML))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

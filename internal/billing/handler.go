package billing

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

// CycleRunner is the service surface the HTTP trigger needs.
type CycleRunner interface {
	Run(ctx context.Context, day time.Time) (Result, error)
	Today() time.Time
	ParseDate(raw string) (time.Time, error)
}

// Handler exposes the manual billing trigger.
type Handler struct {
	logger    *slog.Logger
	service   CycleRunner
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service CycleRunner) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		rateLimit: httprate.Limit(6, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// MountRoutes registers billing routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rateLimit).Post("/payments/generate-monthly", h.generateMonthly)
}

type generateRequest struct {
	Date string `json:"date"`
}

type generateResponse struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	Period        Period      `json:"period"`
	Created       int         `json:"created"`
	Skipped       int         `json:"skipped"`
	Extended      int         `json:"extended"`
	Rejected      []Rejection `json:"rejected"`
	CreatedCount  int         `json:"createdCount"`
	SkippedCount  int         `json:"skippedCount"`
	ExtendedCount int         `json:"extendedCount"`
}

func (h *Handler) generateMonthly(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	day := h.service.Today()
	if raw := strings.TrimSpace(req.Date); raw != "" {
		parsed, err := h.service.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		day = parsed
	}

	result, err := h.service.Run(r.Context(), day)
	if err != nil {
		h.logger.Error("generate monthly payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	rejected := result.Rejected
	if rejected == nil {
		rejected = []Rejection{}
	}
	httpx.JSON(w, http.StatusOK, generateResponse{
		Success:       true,
		Message:       result.Message,
		Period:        result.Period,
		Created:       result.Created,
		Skipped:       result.Skipped,
		Extended:      result.Extended,
		Rejected:      rejected,
		CreatedCount:  result.Created,
		SkippedCount:  result.Skipped,
		ExtendedCount: result.Extended,
	})
}

package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports", h.clientReports)
}

func (h *Handler) clientReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := ParseRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	reports, err := h.service.ClientReports(r.Context(), rng)
	if err != nil {
		h.logger.Error("client reports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if reports == nil {
		reports = []ClientReport{}
	}
	httpx.JSON(w, http.StatusOK, reports)
}

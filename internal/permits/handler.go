package permits

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permits", h.list)
	r.Post("/permits", h.create)
	r.Delete("/permits/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	permits, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list permits", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if permits == nil {
		permits = []Summary{}
	}
	httpx.JSON(w, http.StatusOK, permits)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePermitRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	permit, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create permit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, permit)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete permit", slog.Int64("permit_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

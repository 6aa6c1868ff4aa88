package cars

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

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
	r.Get("/cars", h.list)
	r.Post("/cars", h.create)
	r.Delete("/cars/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var clientID *int64
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, fmt.Errorf("%w: invalid client_id %q", httpx.ErrValidation, raw))
			return
		}
		clientID = &id
	}

	cars, err := h.service.List(r.Context(), clientID)
	if err != nil {
		h.logger.Error("list cars", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if cars == nil {
		cars = []Summary{}
	}
	httpx.JSON(w, http.StatusOK, cars)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCarRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	car, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create car", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, car)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete car", slog.Int64("car_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

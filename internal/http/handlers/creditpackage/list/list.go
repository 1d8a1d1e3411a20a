// Package list реализует HTTP-обработчик списка пакетов кредитов.
// Покупателю отдаются только активные пакеты, администратору — все.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

// Handler обрабатывает запросы на список пакетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка пакетов.
type Service interface {
	ListPackages(ctx context.Context, onlyActive bool, limit, offset int) ([]*models.CreditPackage, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.creditpackage.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	role, _ := r.Context().Value(middlewarectx.RoleKey).(string)
	onlyActive := role != models.RoleAdmin

	packages, err := h.service.ListPackages(r.Context(), onlyActive, limit, offset)
	if err != nil {
		log.Error("failed to list credit packages", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list credit packages"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"packages": packages,
		"count":    len(packages),
	}))
}

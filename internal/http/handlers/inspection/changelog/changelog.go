// Package changelog реализует HTTP-обработчик журнала правок осмотра.
package changelog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Handler обрабатывает запросы на журнал правок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики журнала правок.
type Service interface {
	Changelog(ctx context.Context, id string) ([]*models.ChangelogEntry, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.changelog"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	entries, err := h.service.Changelog(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
			return
		}
		log.Error("failed to read changelog", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read changelog"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"changelog": entries,
		"count":     len(entries),
	}))
}

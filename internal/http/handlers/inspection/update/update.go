// Package update реализует HTTP-обработчик правки осмотра до ревью.
// Каждое изменённое поле фиксируется в журнале правок.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Handler обрабатывает запросы на правку осмотра.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики правки осмотра.
type Service interface {
	Update(ctx context.Context, id string, entry models.DummyInspection, editorUID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить осмотр
// @Description Применяет правки к осмотру в статусе NEED_REVIEW и пишет журнал изменений.
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path string true "ID осмотра"
// @Param request body models.DummyInspection true "Новые данные осмотра"
// @Success 200 {object} response.Response "Осмотр обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Осмотр не найден"
// @Failure 409 {object} response.ErrorResponse "Осмотр уже прошёл ревью"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /inspections/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	editorUID, _ := r.Context().Value(middlewarectx.UIDKey).(string)

	var req models.DummyInspection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Update(r.Context(), id, req, editorUID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
		case errors.Is(err, repository.ErrWrongStatus):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("inspection is no longer editable"))
		default:
			log.Error("failed to update inspection", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update inspection"))
		}
		return
	}

	log.Info("inspection updated", slog.String("id", id))
	render.JSON(w, r, response.OK())
}

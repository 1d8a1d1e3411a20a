// Package review реализует HTTP-обработчик решения ревьюера по осмотру.
package review

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

// Handler обрабатывает запросы на ревью осмотра.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики ревью.
type Service interface {
	Review(ctx context.Context, id, reviewerUID, decision string) (string, error)
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
// @Summary Ревью осмотра
// @Description Принимает решение approve или reject по осмотру в статусе NEED_REVIEW.
// @Tags Inspections
// @Accept json
// @Produce json
// @Param id path string true "ID осмотра"
// @Param request body models.DummyReview true "Решение ревьюера"
// @Success 200 {object} map[string]any "Новый статус осмотра"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Осмотр не найден"
// @Failure 409 {object} response.ErrorResponse "Осмотр уже разобран"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /inspections/{id}/review [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.review"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	reviewerUID, _ := r.Context().Value(middlewarectx.UIDKey).(string)

	var req models.DummyReview
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

	status, err := h.service.Review(r.Context(), id, reviewerUID, req.Decision)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
		case errors.Is(err, repository.ErrWrongStatus):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("inspection already reviewed"))
		default:
			log.Error("failed to review inspection", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to review inspection"))
		}
		return
	}

	log.Info("inspection reviewed",
		slog.String("id", id),
		slog.String("decision", req.Decision),
		slog.String("reviewer_uid", reviewerUID),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": status,
	}))
}

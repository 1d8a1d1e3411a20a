// Package create реализует HTTP-обработчик создания осмотра.
//
// Handler принимает JSON-запрос с данными осмотра, валидирует их, берёт UID
// инспектора из контекста запроса и возвращает ID созданной записи.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

// Handler обрабатывает запросы на создание осмотра.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания осмотра.
type Service interface {
	Create(ctx context.Context, entry models.DummyInspection, inspectorUID string) (string, error)
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
// @Summary Создать осмотр
// @Description Создает запись осмотра в статусе NEED_REVIEW от имени текущего инспектора.
// @Tags Inspections
// @Accept json
// @Produce json
// @Param request body models.DummyInspection true "Данные осмотра"
// @Success 200 {object} map[string]any "ID созданного осмотра"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /inspections [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	inspectorUID, ok := r.Context().Value(middlewarectx.UIDKey).(string)
	if !ok || inspectorUID == "" {
		log.Warn("missing user uid in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

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

	id, err := h.service.Create(r.Context(), req, inspectorUID)
	if err != nil {
		log.Error("failed to create inspection", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create inspection"))
		return
	}

	log.Info("inspection created", slog.String("id", id), slog.String("inspector_uid", inspectorUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}

// Package trend реализует HTTP-обработчик временного ряда количества осмотров.
//
// Диапазон передаётся параметрами start и end в формате RFC 3339, часовой
// пояс — параметром tz (имя из базы IANA). Гранулярность подбирается
// автоматически по длине диапазона.
package trend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/services/dashboard"
)

// Handler обрабатывает запросы на временной ряд.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики временного ряда.
type Service interface {
	Trend(ctx context.Context, start, end time.Time, tz string) (*models.TrendResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Временной ряд осмотров
// @Description Возвращает количество созданных осмотров по корзинам времени с заполнением нулями.
// @Tags Dashboard
// @Produce json
// @Param start query string true "Начало диапазона (RFC 3339)"
// @Param end query string true "Конец диапазона (RFC 3339)"
// @Param tz query string false "Часовой пояс IANA, по умолчанию из конфигурации"
// @Success 200 {object} map[string]any "Временной ряд"
// @Failure 400 {object} response.ErrorResponse "Некорректный диапазон или часовой пояс"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /dashboard/trend [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.trend"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid start: expected RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid end: expected RFC 3339 timestamp"))
		return
	}

	result, err := h.service.Trend(r.Context(), start, end, r.URL.Query().Get("tz"))
	if err != nil {
		switch {
		case errors.Is(err, dashboard.ErrBadRange):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("start must be before end"))
		case errors.Is(err, dashboard.ErrBadTimezone):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown timezone"))
		default:
			log.Error("failed to build trend", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to build trend"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"trend": result,
	}))
}

// Package download реализует HTTP-обработчик скачивания отчёта за кредит.
//
// Первое скачивание отчёта по осмотру списывает один кредит, повторное
// скачивание того же отчёта тем же пользователем бесплатно.
package download

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Handler обрабатывает запросы на скачивание отчёта.
type Handler struct {
	log     *slog.Logger
	credits CreditService
	reports ReportService
}

// CreditService описывает интерфейс списания кредита.
type CreditService interface {
	ChargeDownload(ctx context.Context, userUID, inspectionID string) (bool, error)
}

// ReportService описывает интерфейс выборки данных отчёта.
type ReportService interface {
	Read(ctx context.Context, id string) (*models.Inspection, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, credits CreditService, reports ReportService) *Handler {
	return &Handler{log: log, credits: credits, reports: reports}
}

// ServeHTTP godoc
// @Summary Скачать отчёт об осмотре
// @Description Списывает один кредит за первый доступ к отчёту, повторный доступ бесплатен.
// @Tags Reports
// @Produce json
// @Param inspectionID path string true "ID осмотра"
// @Success 200 {object} map[string]any "Полный отчёт об осмотре"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Осмотр не найден или ещё не архивирован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /reports/{inspectionID}/download [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.download"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	inspectionID := chi.URLParam(r, "inspectionID")
	userUID, _ := r.Context().Value(middlewarectx.UIDKey).(string)

	charged, err := h.credits.ChargeDownload(r.Context(), userUID, inspectionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrWrongStatus):
			// неархивированный осмотр наружу не раскрываем
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("report not found"))
		case errors.Is(err, repository.ErrNoCredit):
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("not enough credits"))
		default:
			log.Error("failed to charge download", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to download report"))
		}
		return
	}

	report, err := h.reports.Read(r.Context(), inspectionID)
	if err != nil {
		log.Error("failed to read report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to download report"))
		return
	}

	log.Info("report downloaded",
		slog.String("inspection_id", inspectionID),
		slog.String("user_uid", userUID),
		slog.Bool("charged", charged),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"report":  report,
		"charged": charged,
	}))
}

// Package webhook реализует HTTP-обработчик вебхука платёжного шлюза Xendit.
//
// Шлюз подтверждает подлинность запроса заголовком x-callback-token.
// Обработчик идемпотентен: повторная доставка вебхука по уже оплаченному
// счёту не зачисляет кредиты второй раз.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/paymentgateway"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// CallbackTokenHeader заголовок с токеном подлинности вебхука.
const CallbackTokenHeader = "X-Callback-Token"

// Handler обрабатывает вебхуки Xendit.
type Handler struct {
	log           *slog.Logger
	service       Service
	callbackToken string
}

// Service описывает интерфейс бизнес-логики применения вебхука.
type Service interface {
	HandleCallback(ctx context.Context, cb paymentgateway.InvoiceCallback) error
}

// New создает новый Handler с переданными логгером, сервисом и токеном вебхука.
func New(log *slog.Logger, service Service, callbackToken string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		callbackToken: callbackToken,
	}
}

// ServeHTTP godoc
// @Summary Вебхук Xendit
// @Description Применяет уведомление о смене статуса счёта. Требует заголовок x-callback-token.
// @Tags Purchases
// @Accept json
// @Produce json
// @Success 200 {object} response.Response "Вебхук применён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный токен вебхука"
// @Failure 404 {object} response.ErrorResponse "Покупка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /purchases/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.Header.Get(CallbackTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		log.Warn("webhook with invalid callback token")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid callback token"))
		return
	}

	var cb paymentgateway.InvoiceCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		log.Error("failed to decode webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.HandleCallback(r.Context(), cb); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("webhook for unknown purchase", slog.String("external_id", cb.ExternalID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("purchase not found"))
			return
		}
		log.Error("failed to apply webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to apply webhook"))
		return
	}

	log.Info("webhook applied",
		slog.String("external_id", cb.ExternalID),
		slog.String("status", cb.Status),
	)
	render.JSON(w, r, response.OK())
}

// Package upload реализует HTTP-обработчик загрузки фотографии осмотра.
//
// Handler принимает multipart-форму с файлом и подписью, проверяет тип и
// размер файла и передаёт содержимое в бизнес-логику загрузки.
package upload

import (
	"context"
	"errors"
	"io"
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

// maxPhotoSize предел размера одной фотографии.
const maxPhotoSize = 10 << 20

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Handler обрабатывает запросы на загрузку фотографии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики загрузки фотографии.
type Service interface {
	Upload(ctx context.Context, inspectionID, originalName, contentType, caption, uploaderUID string, data []byte) (*models.Photo, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Загрузить фотографию осмотра
// @Description Принимает multipart-форму с полем photo и необязательной подписью caption.
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "ID осмотра"
// @Param photo formData file true "Файл изображения (jpeg, png, webp)"
// @Param caption formData string false "Подпись"
// @Success 200 {object} map[string]any "Созданная запись фотографии"
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует или слишком велик"
// @Failure 404 {object} response.ErrorResponse "Осмотр не найден"
// @Failure 409 {object} response.ErrorResponse "Осмотр уже прошёл ревью"
// @Failure 415 {object} response.ErrorResponse "Неподдерживаемый тип файла"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /inspections/{id}/photos [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.photo.upload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	inspectionID := chi.URLParam(r, "id")
	uploaderUID, _ := r.Context().Value(middlewarectx.UIDKey).(string)

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		log.Warn("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form or file too large"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		log.Warn("photo field missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("photo file is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedTypes[contentType]; !ok {
		log.Warn("unsupported content type", slog.String("content_type", contentType))
		w.WriteHeader(http.StatusUnsupportedMediaType)
		render.JSON(w, r, response.Error("unsupported file type"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read uploaded file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read uploaded file"))
		return
	}

	photo, err := h.service.Upload(r.Context(), inspectionID, header.Filename, contentType,
		r.FormValue("caption"), uploaderUID, data)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
		case errors.Is(err, repository.ErrWrongStatus):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("inspection is no longer editable"))
		default:
			log.Error("failed to upload photo", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to upload photo"))
		}
		return
	}

	log.Info("photo uploaded",
		slog.String("inspection_id", inspectionID),
		slog.String("photo_id", photo.ID),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"photo": photo,
	}))
}

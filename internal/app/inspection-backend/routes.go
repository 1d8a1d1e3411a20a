// Package inspectionbackend предоставляет маршруты для основного приложения.
package inspectionbackend

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/car-dano/inspection-backend/internal/cache"
	"github.com/car-dano/inspection-backend/internal/cardano"
	"github.com/car-dano/inspection-backend/internal/config"
	"github.com/car-dano/inspection-backend/internal/http/handlers/auth/google"
	"github.com/car-dano/inspection-backend/internal/http/handlers/auth/login"
	"github.com/car-dano/inspection-backend/internal/http/handlers/auth/register"
	packagecreate "github.com/car-dano/inspection-backend/internal/http/handlers/creditpackage/create"
	packagelist "github.com/car-dano/inspection-backend/internal/http/handlers/creditpackage/list"
	packageread "github.com/car-dano/inspection-backend/internal/http/handlers/creditpackage/read"
	packageremove "github.com/car-dano/inspection-backend/internal/http/handlers/creditpackage/remove"
	packageupdate "github.com/car-dano/inspection-backend/internal/http/handlers/creditpackage/update"
	"github.com/car-dano/inspection-backend/internal/http/handlers/dashboard/stats"
	"github.com/car-dano/inspection-backend/internal/http/handlers/dashboard/trend"
	"github.com/car-dano/inspection-backend/internal/http/handlers/health"
	"github.com/car-dano/inspection-backend/internal/http/handlers/inspection/archive"
	"github.com/car-dano/inspection-backend/internal/http/handlers/inspection/changelog"
	inspectioncreate "github.com/car-dano/inspection-backend/internal/http/handlers/inspection/create"
	inspectionlist "github.com/car-dano/inspection-backend/internal/http/handlers/inspection/list"
	inspectionread "github.com/car-dano/inspection-backend/internal/http/handlers/inspection/read"
	"github.com/car-dano/inspection-backend/internal/http/handlers/inspection/retry"
	"github.com/car-dano/inspection-backend/internal/http/handlers/inspection/review"
	inspectionupdate "github.com/car-dano/inspection-backend/internal/http/handlers/inspection/update"
	photoremove "github.com/car-dano/inspection-backend/internal/http/handlers/photo/remove"
	"github.com/car-dano/inspection-backend/internal/http/handlers/photo/upload"
	"github.com/car-dano/inspection-backend/internal/http/handlers/public/listinspections"
	"github.com/car-dano/inspection-backend/internal/http/handlers/public/listinspectors"
	"github.com/car-dano/inspection-backend/internal/http/handlers/public/readinspection"
	"github.com/car-dano/inspection-backend/internal/http/handlers/purchase/checkout"
	purchaselist "github.com/car-dano/inspection-backend/internal/http/handlers/purchase/list"
	"github.com/car-dano/inspection-backend/internal/http/handlers/purchase/webhook"
	"github.com/car-dano/inspection-backend/internal/http/handlers/report/download"
	usercreate "github.com/car-dano/inspection-backend/internal/http/handlers/user/create"
	userlist "github.com/car-dano/inspection-backend/internal/http/handlers/user/list"
	userread "github.com/car-dano/inspection-backend/internal/http/handlers/user/read"
	userremove "github.com/car-dano/inspection-backend/internal/http/handlers/user/remove"
	userupdate "github.com/car-dano/inspection-backend/internal/http/handlers/user/update"
	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/lib/jwt"
	"github.com/car-dano/inspection-backend/internal/models"
	authservice "github.com/car-dano/inspection-backend/internal/services/auth"
	creditservice "github.com/car-dano/inspection-backend/internal/services/credit"
	dashboardservice "github.com/car-dano/inspection-backend/internal/services/dashboard"
	inspectionservice "github.com/car-dano/inspection-backend/internal/services/inspection"
	photoservice "github.com/car-dano/inspection-backend/internal/services/photo"
	purchaseservice "github.com/car-dano/inspection-backend/internal/services/purchase"
	userservice "github.com/car-dano/inspection-backend/internal/services/user"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, jwtMaker jwt.Maker,
	db *repository.Storage, cacheRedis *cache.Cache, chainClient *cardano.Client,
	authService *authservice.AuthService, userService *userservice.UserService,
	inspectionService *inspectionservice.InspectionService, photoService *photoservice.PhotoService,
	creditService *creditservice.CreditService, purchaseService *purchaseservice.PurchaseService,
	dashboardService *dashboardservice.DashboardService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		googleHandler := google.New(logger, authService)
		r.Get("/auth/google", googleHandler.Redirect)
		r.Get("/auth/google/callback", googleHandler.Callback)

		// Публичное API только для чтения
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimit(logger, 10, 20))
			r.Get("/public/inspections", listinspections.New(logger, db).ServeHTTP)
			r.Get("/public/inspections/{id}", readinspection.New(logger, db).ServeHTTP)
			r.Get("/public/inspectors", listinspectors.New(logger, db).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AuthMiddleware(logger, jwtMaker))

			// Управление пользователями (только администратор)
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleAdmin))
				r.Post("/users", usercreate.New(logger, userService).ServeHTTP)
				r.Get("/users", userlist.New(logger, userService).ServeHTTP)
				r.Get("/users/{uid}", userread.New(logger, userService).ServeHTTP)
				r.Put("/users/{uid}", userupdate.New(logger, userService).ServeHTTP)
				r.With(middlewarectx.RequirePin(logger, cfg.AdminPinHash)).
					Delete("/users/{uid}", userremove.New(logger, userService).ServeHTTP)
			})

			// Осмотры
			staff := middlewarectx.RequireRoles(logger, models.RoleAdmin, models.RoleReviewer, models.RoleInspector)
			r.With(staff).Get("/inspections", inspectionlist.New(logger, inspectionService).ServeHTTP)
			r.With(staff).Get("/inspections/{id}", inspectionread.New(logger, inspectionService, photoService).ServeHTTP)
			r.With(staff).Get("/inspections/{id}/changelog", changelog.New(logger, inspectionService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleInspector)).
				Post("/inspections", inspectioncreate.New(logger, inspectionService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin, models.RoleReviewer)).
				Put("/inspections/{id}", inspectionupdate.New(logger, inspectionService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleReviewer)).
				Post("/inspections/{id}/review", review.New(logger, inspectionService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin)).
				Post("/inspections/{id}/archive", archive.New(logger, inspectionService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin)).
				Post("/inspections/{id}/retry", retry.New(logger, inspectionService).ServeHTTP)

			// Фотографии осмотра
			r.With(middlewarectx.RequireRoles(logger, models.RoleInspector)).
				Post("/inspections/{id}/photos", upload.New(logger, photoService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleInspector)).
				Delete("/photos/{photoID}", photoremove.New(logger, photoService).ServeHTTP)

			// Пакеты кредитов
			r.Get("/credit-packages", packagelist.New(logger, creditService).ServeHTTP)
			r.Get("/credit-packages/{id}", packageread.New(logger, creditService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin)).
				Post("/credit-packages", packagecreate.New(logger, creditService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin)).
				Put("/credit-packages/{id}", packageupdate.New(logger, creditService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin), middlewarectx.RequirePin(logger, cfg.AdminPinHash)).
				Delete("/credit-packages/{id}", packageremove.New(logger, creditService).ServeHTTP)

			// Покупки и отчёты
			r.With(middlewarectx.RequireRoles(logger, models.RoleCustomer)).
				Post("/purchases/checkout", checkout.New(logger, purchaseService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleCustomer)).
				Get("/purchases", purchaselist.New(logger, purchaseService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleCustomer)).
				Post("/reports/{inspectionID}/download", download.New(logger, creditService, inspectionService).ServeHTTP)

			// Панель управления
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin, models.RoleReviewer)).
				Get("/dashboard/stats", stats.New(logger, dashboardService).ServeHTTP)
			r.With(middlewarectx.RequireRoles(logger, models.RoleAdmin, models.RoleReviewer)).
				Get("/dashboard/trend", trend.New(logger, dashboardService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/purchases/webhook", webhook.New(logger, purchaseService, cfg.Xendit.CallbackToken).ServeHTTP)

		r.Get("/health", health.New(logger, db, cacheRedis, chainClient).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

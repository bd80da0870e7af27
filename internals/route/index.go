package routes

import (
	"time"

	"pesantrenku_backend/internals/configs"
	"pesantrenku_backend/internals/features/home/notifications/repository"
	"pesantrenku_backend/internals/logger"
	authMiddleware "pesantrenku_backend/internals/middlewares/auth"
	routeDetails "pesantrenku_backend/internals/route/details"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var startTime time.Time

type Deps struct {
	DB            *gorm.DB
	Config        *configs.AppConfig
	Log           *logger.Logger
	Finance       routeDetails.FinanceDeps
	School        routeDetails.SchoolDeps
	Notifications *repository.NotificationRepository
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log.Named("routes")

	BaseRoutes(app, d.DB)

	// ===================== GROUPS =====================

	// PUBLIC → tanpa JWT (webhook diverifikasi via signature)
	public := app.Group("/api/public")

	// PRIVATE (wali santri) → JWT + scope sekolah
	user := app.Group("/api/u/:school_id",
		authMiddleware.AuthMiddleware(d.Config.Auth.JWTSecret, d.Log),
		authMiddleware.SchoolScope("school_id", "Hanya wali santri atau staf", authMiddleware.RoleGuardian, authMiddleware.RoleStaff, authMiddleware.RoleAdmin),
	)

	// ADMIN (per sekolah) → JWT + scope + role
	admin := app.Group("/api/a/:school_id",
		authMiddleware.AuthMiddleware(d.Config.Auth.JWTSecret, d.Log),
		authMiddleware.SchoolScope("school_id", "Hanya admin/staf sekolah", authMiddleware.RoleAdmin, authMiddleware.RoleStaff),
	)

	// ===================== MOUNT ROUTES =====================

	log.Info("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, d.Finance)
	routeDetails.FinanceUserRoutes(user, d.Finance)
	routeDetails.FinanceAdminRoutes(admin, d.Finance)

	log.Info("[INFO] Mounting School routes...")
	routeDetails.SchoolAdminRoutes(admin, d.School)

	log.Info("[INFO] Mounting Home routes...")
	routeDetails.HomeUserRoutes(user, d.Notifications)
}

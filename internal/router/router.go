// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/config"
	"github.com/farmtrace/agritrace-backend/internal/handlers"
	"github.com/farmtrace/agritrace-backend/internal/middleware"
	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

// Setup builds the gin engine with every route and middleware wired.
func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterCustomValidators(v); err != nil {
			logrus.WithError(err).Fatal("Failed to register custom validators")
		}
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	policy := models.DefaultRolePolicy()

	notifier := services.NewNotificationService(cfg.Firebase)
	authService := services.NewAuthService(db, cfg.JWT, policy)
	userService := services.NewUserService(db)
	productService := services.NewProductService(db)
	transferService := services.NewTransferService(db, productService, notifier)
	farmService := services.NewFarmService(db)
	catalogService := services.NewCatalogService(db)
	resourceService := services.NewResourceService(db, cfg.AWS, cfg.Storage)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, userService)
	transferHandler := handlers.NewTransferHandler(transferService, userService)
	farmHandler := handlers.NewFarmHandler(farmService, userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	resourceHandler := handlers.NewResourceHandler(resourceService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging())
	r.Use(middleware.CORS())

	rateLimiter := middleware.NewRateLimiter(rate.Limit(10), 20)
	r.Use(rateLimiter.Middleware())

	r.Static("/static", cfg.Storage.StaticPath)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}
	v1.GET("/trace/:code", productHandler.GetByCode)

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(middleware.AuthRequired())
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.PUT("/auth/firebase-token", authHandler.SetFirebaseToken)
		authed.PUT("/auth/password", userHandler.ChangePassword)

		users := authed.Group("/users")
		{
			users.GET("", middleware.RequireRoles(policy, policy.AdminOnly), userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), userHandler.Delete)
		}

		subAccounts := authed.Group("/sub-accounts")
		{
			subAccounts.POST("", userHandler.CreateSubAccount)
			subAccounts.GET("", userHandler.ListSubAccounts)
		}

		products := authed.Group("/products")
		{
			products.POST("", middleware.RequireRoles(policy, policy.Owners), productHandler.Create)
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", middleware.RequireRoles(policy, policy.Owners), productHandler.Update)
			products.DELETE("/:id", middleware.RequireRoles(policy, policy.Owners), productHandler.Delete)
			products.GET("/:id/history", productHandler.History)
		}

		transfers := authed.Group("/transfer-requests")
		{
			transfers.POST("", middleware.RequireRoles(policy, policy.Customers), transferHandler.Create)
			transfers.GET("", transferHandler.List)
			transfers.GET("/:id", transferHandler.Get)
			transfers.PUT("/:id", transferHandler.Resolve)
			transfers.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), transferHandler.Delete)
		}

		statuses := authed.Group("/transfer-statuses")
		{
			statuses.GET("", transferHandler.ListStatuses)
			statuses.POST("", middleware.RequireRoles(policy, policy.AdminOnly), transferHandler.CreateStatus)
			statuses.GET("/:id", transferHandler.GetStatus)
			statuses.PUT("/:id", middleware.RequireRoles(policy, policy.AdminOnly), transferHandler.UpdateStatus)
			statuses.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), transferHandler.DeleteStatus)
		}

		farms := authed.Group("/farms")
		{
			farms.POST("", middleware.RequireRoles(policy, policy.Owners), farmHandler.Create)
			farms.GET("", farmHandler.List)
			farms.GET("/:id", farmHandler.Get)
			farms.PUT("/:id", middleware.RequireRoles(policy, policy.Owners), farmHandler.Update)
			farms.DELETE("/:id", middleware.RequireRoles(policy, policy.Owners), farmHandler.Delete)
			farms.POST("/:id/trees", middleware.RequireRoles(policy, policy.Owners), farmHandler.AddTree)
			farms.GET("/:id/trees", farmHandler.ListTrees)
			farms.POST("/:id/fertilizers", middleware.RequireRoles(policy, policy.Owners), farmHandler.AddFertilizer)
			farms.GET("/:id/fertilizers", farmHandler.ListFertilizers)
		}

		trees := authed.Group("/trees")
		{
			trees.POST("", middleware.RequireRoles(policy, policy.AdminOnly), catalogHandler.CreateTree)
			trees.GET("", catalogHandler.ListTrees)
			trees.GET("/:id", catalogHandler.GetTree)
			trees.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), catalogHandler.DeleteTree)
		}

		fertilizers := authed.Group("/fertilizers")
		{
			fertilizers.POST("", middleware.RequireRoles(policy, policy.AdminOnly), catalogHandler.CreateFertilizer)
			fertilizers.GET("", catalogHandler.ListFertilizers)
			fertilizers.GET("/:id", catalogHandler.GetFertilizer)
			fertilizers.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), catalogHandler.DeleteFertilizer)
		}

		categories := authed.Group("/categories")
		{
			categories.POST("", middleware.RequireRoles(policy, policy.AdminOnly), catalogHandler.CreateCategory)
			categories.GET("", catalogHandler.ListCategories)
			categories.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), catalogHandler.DeleteCategory)
		}

		resources := authed.Group("/resources")
		{
			resources.POST("", resourceHandler.Upload)
			resources.GET("/:id", resourceHandler.Get)
			resources.DELETE("/:id", middleware.RequireRoles(policy, policy.AdminOnly), resourceHandler.Delete)
		}

		itemResources := authed.Group("/item-resources")
		{
			itemResources.POST("", resourceHandler.Attach)
			itemResources.GET("/:type/:id", resourceHandler.ListForItem)
			itemResources.DELETE("/:type/:id/:resource_id", resourceHandler.Detach)
		}
	}

	return r
}

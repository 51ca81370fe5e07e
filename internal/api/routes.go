package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alcyxob/rehab-course/internal/domain"
	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
	"alcyxob/rehab-course/internal/service"
)

// Services groups the handlers' dependencies.
type Services struct {
	Auth     service.AuthService
	Catalog  service.CatalogService
	Course   service.CourseService
	Analysis service.AnalysisService
}

// SetupRoutes registers every endpoint on router. gatherer backs /metrics.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	services Services,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
	log *logger.Logger,
) {
	authHandler := NewAuthHandler(services.Auth)
	catalogHandler := NewCatalogHandler(services.Catalog)
	courseHandler := NewCourseHandler(services.Course)
	analysisHandler := NewAnalysisHandler(services.Analysis)

	router.Use(RequestLogger(log), MetricsMiddleware(metrics))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/body-parts", catalogHandler.ListBodyParts)
		protected.GET("/exercises/:id/media", catalogHandler.GetMedia)

		courses := protected.Group("/courses")
		{
			courses.POST("", courseHandler.GenerateCourse)
			courses.GET("", courseHandler.ListCourses)
			courses.GET("/:id", courseHandler.GetCourse)
		}

		me := protected.Group("/me")
		{
			me.GET("/preferences", analysisHandler.GetPreferences)
			me.GET("/issues", analysisHandler.GetIssues)
			me.POST("/completions", analysisHandler.RecordCompletion)
			me.GET("/pain-profiles", analysisHandler.ListPainProfiles)
			me.PUT("/pain-profiles", analysisHandler.UpsertPainProfile)
		}

		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.POST("/exercises", catalogHandler.CreateTemplate)
			admin.GET("/exercises", catalogHandler.ListTemplates)
			admin.POST("/exercises/:id/media", catalogHandler.RequestMediaUpload)
			admin.POST("/exercises/:id/media/confirm", catalogHandler.ConfirmMediaUpload)
			admin.POST("/body-parts", catalogHandler.CreateBodyPart)
			admin.POST("/mappings", catalogHandler.CreateMapping)
			admin.POST("/contraindications", catalogHandler.CreateContraindication)
		}
	}
}

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/internal/handler"
	"github.com/gip-inclusion/dora-api/internal/middleware"
	"github.com/gip-inclusion/dora-api/internal/service"
	"github.com/gip-inclusion/dora-api/pkg/config"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
	"github.com/gip-inclusion/dora-api/pkg/logger"
	corsmiddleware "github.com/gip-inclusion/dora-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gip-inclusion/dora-api/pkg/middleware/requestid"
	"github.com/gip-inclusion/dora-api/pkg/response"
)

// Dependencies groups what the HTTP layer needs.
type Dependencies struct {
	Config           *config.Config
	Logger           *zap.Logger
	Metrics          *service.MetricsService
	Tokens           middleware.TokenValidator
	Orientations     *handler.OrientationHandler
	RejectionReasons *handler.RejectionReasonHandler
	Health           *handler.MetricsHandler
}

// New builds the gin engine with every route of the API.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route introuvable"))
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "méthode non autorisée"))
	})

	r.GET("/health", deps.Health.Health)
	r.GET("/ready", deps.Health.Ready)
	r.GET("/metrics", deps.Health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	orientations := api.Group("/orientations")
	orientations.POST("", middleware.JWT(deps.Tokens), deps.Orientations.Create)

	byQueryID := orientations.Group("/:query_id", middleware.OptionalJWT(deps.Tokens))
	byQueryID.GET("", deps.Orientations.Get)
	byQueryID.PUT("", deps.Orientations.Forbidden)
	byQueryID.PATCH("", deps.Orientations.Forbidden)
	byQueryID.DELETE("", deps.Orientations.Forbidden)
	byQueryID.POST("/validate", deps.Orientations.Validate)
	byQueryID.POST("/reject", deps.Orientations.Reject)
	byQueryID.POST("/contact/beneficiary", deps.Orientations.ContactBeneficiary)
	byQueryID.POST("/contact/prescriber", deps.Orientations.ContactPrescriber)

	api.GET("/orientations-rejection-reasons", deps.RejectionReasons.List)

	return r
}

package handlers

import (
	"context"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tradekeeper/trade_keeper_app/cmd/docs"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
	"github.com/tradekeeper/trade_keeper_app/internal/platform/config"
	"github.com/tradekeeper/trade_keeper_app/internal/realtime"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	channelServer *realtime.ChannelServer,
) {
	dto.RegisterCustomValidators()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services, channelServer)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	channelServer *realtime.ChannelServer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerBusinessRoutes(v1, services)
	registerChannelRoutes(v1, channelServer)

	// Sync gets its own group so the rate limit applies to it alone.
	syncGroup := v1.Group("", middleware.RateLimit(newSyncLimiter(cfg)))
	RegisterSyncRoutes(syncGroup, services.Sync)
}

// newSyncLimiter builds a per-IP in-memory limiter from the configured rate.
func newSyncLimiter(cfg *config.Config) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(cfg.SyncRateLimit)
	if err != nil {
		slog.Warn("Invalid SYNC_RATE_LIMIT, falling back to 10-M",
			slog.String("value", cfg.SyncRateLimit), slog.Any("error", err))
		rate, _ = limiter.NewRateFromFormatted("10-M")
	}
	return limiter.New(memory.NewStore(), rate)
}

// NewMembershipChecker adapts the business service into the room-join guard
// the realtime channel needs. GetBusiness already rejects non-members.
func NewMembershipChecker(businessService portssvc.BusinessSvcFacade) realtime.MembershipChecker {
	return func(ctx context.Context, businessID, userID string) error {
		_, err := businessService.GetBusiness(ctx, businessID, userID)
		return err
	}
}

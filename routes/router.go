package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/config"
	"github.com/cppla/inkpost/controllers"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/metrics"
	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/store"
	"github.com/cppla/inkpost/utils"
)

// Deps carries everything the router wires into controllers.
type Deps struct {
	Config        config.AppConfig
	DB            *gorm.DB
	Store         store.Store
	Cache         *utils.Cache
	Tokens        *utils.TokenIssuer
	Blacklist     *utils.TokenBlacklist
	Registrations *utils.RegistrationGuard
	Calendar      *calendar.Calendar
	Ladder        *gamification.Ladder
	Engine        *gamification.Engine
	Catalog       *gamification.Catalog
	Streaks       *services.StreakService
	Follows       *services.FollowService
	// AccessLog receives one line per request; nil falls back to gin.Recovery only.
	AccessLog *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if d.AccessLog != nil {
		r.Use(utils.Ginzap(d.AccessLog, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(d.AccessLog, true))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(metrics.GinMiddleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authController := controllers.NewAuthController(d.DB, d.Tokens, d.Blacklist, d.Cache, d.Ladder, d.Registrations)
	postController := controllers.NewPostController(d.DB, d.Cache)
	checkInController := controllers.NewCheckInController(d.Streaks)
	followController := controllers.NewFollowController(d.Follows)
	statsController := controllers.NewStatsController(d.DB, d.Store, d.Calendar, d.Ladder, d.Cache, cfg.LeaderboardSize)
	configController := controllers.NewConfigController(d.Calendar, d.Ladder, d.Engine, d.Catalog, calendarOffsetLabel(cfg))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)
	requireAuth := middleware.AuthRequired(d.Tokens, d.Blacklist)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(limiter))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", requireAuth, authController.Logout)
	authGroup.GET("/me", requireAuth, authController.Me)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/users/:id/posts", postController.ListUserPosts)
	api.GET("/users/:id/followers", followController.ListFollowers)
	api.GET("/users/:id/following", followController.ListFollowing)
	api.GET("/leaderboard", statsController.Leaderboard)
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/gamification", configController.GetGamification)

	protected := api.Group("")
	protected.Use(requireAuth, middleware.RateLimitMiddleware(limiter))
	protected.POST("/posts", postController.CreatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.GET("/feed", postController.Feed)
	protected.POST("/checkin/daily", checkInController.DailyCheckIn)
	protected.GET("/checkin/status", checkInController.Status)
	protected.GET("/checkin/history", checkInController.History)
	protected.POST("/challenge/quit", checkInController.QuitChallenge)
	protected.POST("/users/:id/follow", followController.ToggleFollow)
	protected.GET("/users/:id/follow-status", followController.Status)
	protected.DELETE("/users/me/followers/:followerId", followController.RemoveFollower)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}

func calendarOffsetLabel(cfg config.AppConfig) string {
	off, err := cfg.CivilOffset()
	if err != nil {
		return cfg.CivilUTCOffset
	}
	return calendar.FormatOffset(off)
}

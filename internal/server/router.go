package server

import (
	"net/http"
	"time"

	"procurement-transparency/internal/auth"
	"procurement-transparency/internal/config"
	"procurement-transparency/internal/handlers"
	"procurement-transparency/internal/middleware"
	"procurement-transparency/internal/models"
	"procurement-transparency/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "transparency_session"

// Services is everything the router hands to handlers.
type Services struct {
	Projects *service.ProjectService
	Reviews  *service.ReviewService
	Stats    *service.StatisticsService
	Auth     *service.AuthService
	Audit    *service.AuditService
	Tokens   *auth.TokenIssuer
	Users    middleware.UserLookup
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func NewRouter(cfg *config.Config, s Services) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.JWTExpire.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(middleware.Authenticate(s.Tokens, s.Users))

	projectH := handlers.NewProjectHandler(s.Projects, s.Stats)
	reviewH := handlers.NewReviewHandler(s.Reviews, s.Stats)
	authH := handlers.NewAuthHandler(s.Auth)
	auditH := handlers.NewAuditHandler(s.Audit)

	officials := middleware.RequireRole(models.RoleOfficial, models.RoleAdmin)

	api := r.Group("/api")

	// AUTH
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/logout", authH.Logout)
	api.GET("/auth/me", middleware.RequireAuth(), authH.Me)

	// ПРОЕКТЫ
	api.GET("/projects", projectH.List)
	api.GET("/projects/filters/options", projectH.FilterOptions)
	api.GET("/projects/stats/overview", projectH.Overview)
	api.GET("/projects/:id", projectH.Get)
	api.GET("/projects/:id/progress", projectH.Progress)
	api.GET("/projects/:id/statistics", projectH.Statistics)
	api.PATCH("/projects/:id/progress", officials, projectH.UpdateProgress)

	api.GET("/ministries", projectH.Ministries)

	// ОТЗЫВЫ ГРАЖДАН
	api.GET("/reviews/:project_id/all", reviewH.List)
	api.GET("/reviews/:project_id/summary", reviewH.Summary)
	api.GET("/reviews/:project_id/:review_id", reviewH.Get)
	api.POST("/reviews/:project_id/submit", reviewH.Submit)
	api.POST("/reviews/:project_id/:review_id/verify", officials, reviewH.Verify)

	// АУДИТ
	api.GET("/audit", middleware.RequireRole(models.RoleAdmin), auditH.List)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

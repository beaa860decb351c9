package api

import (
	"github.com/gin-contrib/cors"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventhub/cmd/middleware"
	"eventhub/internal/auth"
	"eventhub/internal/model"
	"eventhub/internal/service"
)

type Routers struct {
	Service service.Service
	Tokens  *auth.Tokens
	Log     *zerolog.Logger
	Mode    string

	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization")
	cfg.AddExposeHeaders("Content-Disposition")
	return cfg
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(middleware.LoggingMiddleware(r.Log))
	app.Use(cors.New(corsConfig(r.CORSOrigins)))

	admin := middleware.RequireAuth(r.Tokens, model.RoleAdmin)
	student := middleware.RequireAuth(r.Tokens, model.RoleStudent)
	anyone := middleware.RequireAuth(r.Tokens)
	optional := middleware.OptionalAuth(r.Tokens)

	app.GET("/healthz", r.Service.Health)

	apiGroup := app.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/student-login", r.Service.StudentLogin)
	authGroup.POST("/admin-login", r.Service.AdminLogin)
	authGroup.POST("/change-password", anyone, r.Service.ChangePassword)

	apiGroup.POST("/students", admin, r.Service.CreateStudent)
	apiGroup.GET("/students/me/registrations", student, r.Service.MyRegistrations)

	events := apiGroup.Group("/events")
	events.GET("", optional, r.Service.ListEvents)
	events.GET("/analytics", admin, r.Service.Analytics)
	events.GET("/:id", optional, r.Service.GetEvent)
	events.POST("", admin, r.Service.CreateEvent)
	events.PUT("/:id", admin, r.Service.UpdateEvent)
	events.PATCH("/:id/cancel", admin, r.Service.CancelEvent)
	events.DELETE("/:id", admin, r.Service.DeleteEvent)
	events.GET("/:id/registrations", admin, r.Service.EventRegistrations)
	events.GET("/:id/registrations/download", middleware.RequireAuth(r.Tokens, model.RoleAdmin, model.RoleStudent), r.Service.DownloadRegistrations)

	regs := apiGroup.Group("/registrations")
	regs.POST("", student, r.Service.CreateRegistration)
	regs.DELETE("/:id", student, r.Service.CancelRegistration)
	regs.PATCH("/:id/status", admin, r.Service.UpdateRegistrationStatus)

	return app
}

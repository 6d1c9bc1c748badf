package app

import (
	"github.com/auth-space/core/internal/middleware"
	"github.com/auth-space/core/internal/modules/auth"
	"github.com/auth-space/core/internal/modules/health"
	"github.com/auth-space/core/internal/modules/user"
	"github.com/auth-space/core/internal/pkg/response"
	"github.com/auth-space/core/internal/pkg/session"
	"github.com/auth-space/core/internal/pkg/signer"
	"github.com/auth-space/core/internal/pkg/tokenstore"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(sg *signer.Signer) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	users := user.NewStore(a.db)
	tokens := tokenstore.New(a.rdb)
	a.sessions = session.NewManager(users, sg, tokens, a.cfg.TokenLifetime(), a.logger)
	authMW := middleware.Auth(a.sessions)

	r.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name":    "auth-space-core",
			"version": "1.0.0",
		})
	})

	api := r.Group("/api/v1")
	health.RegisterRoutes(api, a.db, a.rdb)

	authHandler := auth.NewHandler(auth.NewService(users), a.sessions)
	authHandler.RegisterRoutes(api, authMW)
}

package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/auth-space/core/internal/config"
	"github.com/auth-space/core/internal/database"
	"github.com/auth-space/core/internal/middleware"
	pkgredis "github.com/auth-space/core/internal/pkg/redis"
	"github.com/auth-space/core/internal/pkg/session"
	"github.com/auth-space/core/internal/pkg/signer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rdb      *goredis.Client
	sessions *session.Manager
	logger   *zap.Logger
}

// New initializes the application: config → DB → Redis → signer → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rdb, err := pkgredis.Connect(cfg.RedisAddr(), cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	sg, err := signer.New(signer.Config{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	app := &App{cfg: cfg, router: router, db: db, rdb: rdb, logger: logger}
	app.registerRoutes(sg)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Close releases the Redis connection.
func (a *App) Close() {
	_ = a.rdb.Close()
}

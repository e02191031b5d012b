package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/domain/users"
	"github.com/FACorreiaa/go-tripstream/internal/app/middleware"
	"github.com/FACorreiaa/go-tripstream/internal/pkg/config"
	"github.com/FACorreiaa/go-tripstream/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(cfg *config.Config, store *users.BadgerStore, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.OTELGinMiddleware("tripstream"))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityMiddleware())

	if err := routes.Setup(r, cfg, store, logger); err != nil {
		return nil, err
	}

	return r, nil
}

// Package routes wires the domain services and registers the API routes.
package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/ai"
	"github.com/FACorreiaa/go-tripstream/internal/app/domain/images"
	"github.com/FACorreiaa/go-tripstream/internal/app/domain/recommend"
	"github.com/FACorreiaa/go-tripstream/internal/app/domain/trends"
	"github.com/FACorreiaa/go-tripstream/internal/app/domain/users"
	"github.com/FACorreiaa/go-tripstream/internal/pkg/config"
)

// AppHandlers groups the HTTP handlers registered on the router.
type AppHandlers struct {
	Recommend *recommend.Handler
	Users     *users.Handler
}

func Setup(r *gin.Engine, cfg *config.Config, store *users.BadgerStore, log *zap.Logger) error {
	handlers, err := setupDependencies(cfg, store, log)
	if err != nil {
		return errors.Wrap(err, "failed to setup dependencies")
	}
	setupRouter(r, handlers)
	return nil
}

func setupDependencies(cfg *config.Config, store *users.BadgerStore, log *zap.Logger) (*AppHandlers, error) {
	aiClient, err := ai.NewGeminiClient(context.Background(), cfg.AI, log)
	if err != nil {
		return nil, err
	}

	trendsService := trends.NewSerperClient(
		cfg.Search.SerperAPIKey,
		cfg.Search.SearchTimeout,
		cfg.Search.ResultsPerCall,
		log,
	)
	imageResolver := images.NewClient(
		cfg.Search.ImageProvider,
		cfg.Search.SerperAPIKey,
		cfg.Search.SearchTimeout,
		log,
	)

	recommendService := recommend.NewService(aiClient, trendsService, imageResolver, log)

	return &AppHandlers{
		Recommend: recommend.NewHandler(recommendService, store, log),
		Users:     users.NewHandler(store, log),
	}, nil
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/recommend", h.Recommend.StreamRecommendations)
		api.POST("/recommend/batch", h.Recommend.BatchRecommendations)

		usersGroup := api.Group("/users")
		{
			usersGroup.GET("", h.Users.ListUsers)
			usersGroup.POST("", h.Users.CreateUser)
			usersGroup.GET("/:userId", h.Users.GetUser)
			usersGroup.PUT("/:userId", h.Users.UpdateUser)
			usersGroup.DELETE("/:userId", h.Users.DeleteUser)
		}
	}
}

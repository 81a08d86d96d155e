package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vot-service/internal/http/middleware"
)

type RouterOptions struct {
	Env string
	// MediaPrefix is a URL path such as /media; anything else disables serving.
	MediaPrefix string
	MediaDir    string
}

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, log zerolog.Logger, opts RouterOptions) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if strings.HasPrefix(opts.MediaPrefix, "/") && opts.MediaDir != "" {
		router.Static(opts.MediaPrefix, opts.MediaDir)
	}

	handler.Register(router, authMiddleware)

	return router
}

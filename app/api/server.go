package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/routesnap/app/crawl"
)

// NewServer creates the preview server for an output directory.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(classify())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %v %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.Keys[classificationKey],
				param.ErrorMessage,
			)
		},
	}))
	r.Use(gin.Recovery())

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)

	internal := r.Group("/_routesnap")
	{
		internal.GET("/build", handler.GetBuild)
		internal.GET("/classify", handler.GetClassification)
	}

	r.NoRoute(handler.ServeOutput)
}

// classify labels each request with the same decision the page script makes.
func classify() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := crawl.Classify(c.Request.UserAgent())
		c.Set(classificationKey, cl.String())
		c.Header(ClassificationHeader, cl.String())
		c.Next()
	}
}

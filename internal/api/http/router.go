package http

import (
	"net/http"
	"time"

	"othello-live/internal/api/ws"
	"othello-live/internal/protocol"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Deps struct {
	Processor         *protocol.Processor
	Hub               *ws.Hub
	Cache             Pinger
	CompanionDepth    int
	CompanionMaxDepth int
	Log               *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log))

	// Live games
	r.GET("/live", d.Hub.HandleWS)

	// --- COMPANION ---
	r.POST("/companion", CompanionHandler(d.Processor, d.CompanionDepth, d.CompanionMaxDepth))

	// --- ROOMS ---
	r.POST("/games/:id/activate", ActivateHandler(d.Processor))

	// --- OPS ---
	r.GET("/healthz", HealthHandler(d.Processor, d.Hub.Active, d.Cache))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jengzang/crackmap-backend-go/internal/handler"
	"github.com/jengzang/crackmap-backend-go/internal/metrics"
	"github.com/jengzang/crackmap-backend-go/internal/middleware"
	"github.com/jengzang/crackmap-backend-go/internal/service"
)

// Deps holds what the router needs to serve requests
type Deps struct {
	JWTSecret  string
	Maps       *service.MapService
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	MapLimiter *middleware.RateLimiter // nil disables rate limiting of map routes
	Logger     *zap.Logger
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Crackmap API is running",
		})
	})

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	damageHandler := handler.NewDamageHandler(d.Maps)

	// API 路由组
	api := r.Group("/api/v1", middleware.Auth(d.JWTSecret))
	{
		// 病害记录
		api.GET("/damage", damageHandler.GetDamage)
		api.GET("/damage/:id", damageHandler.GetDamageByID)

		// 拍摄轨迹
		api.GET("/captures", damageHandler.GetCaptures)
		api.GET("/path", damageHandler.GetPath)

		// 地图
		maps := api.Group("/maps")
		if d.MapLimiter != nil {
			maps.Use(middleware.RateLimit(d.MapLimiter))
		}
		{
			maps.GET("/total", damageHandler.GetTotalMap)
			maps.GET("/single/:id", damageHandler.GetSingleMap)
		}
	}

	return r
}

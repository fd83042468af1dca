package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GazzaBombata/tablebooks/config"
	"github.com/GazzaBombata/tablebooks/internal/api/handler"
	"github.com/GazzaBombata/tablebooks/internal/api/middleware"
	"github.com/GazzaBombata/tablebooks/pkg/jwt"
	"github.com/GazzaBombata/tablebooks/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")

	// 公开路由：浏览餐厅与查询可用性无需登录
	public := v1.Group("")
	public.Use(middleware.RateLimit(rdb, 120, time.Minute))
	{
		public.GET("/restaurants", h.Restaurant.ListRestaurants)
		public.GET("/restaurants/:id", h.Restaurant.GetRestaurant)
		public.GET("/restaurants/:id/tables", h.Table.ListTables)
		public.GET("/restaurants/:id/availability", h.Availability.GetAvailability)
	}

	// 需要认证的路由
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr))
	{
		// 用户模块
		authorized.GET("/users/me", h.User.GetCurrentUser)

		// 餐厅模块（店主）
		restaurants := authorized.Group("/restaurants")
		{
			restaurants.POST("", middleware.RoleAuth("owner"), h.Restaurant.CreateRestaurant)
			restaurants.GET("/mine", middleware.RoleAuth("owner"), h.Restaurant.ListMyRestaurants)
			restaurants.PUT("/:id", middleware.RoleAuth("owner"), h.Restaurant.UpdateRestaurant)
			restaurants.DELETE("/:id", middleware.RoleAuth("owner"), h.Restaurant.DeleteRestaurant)
			restaurants.POST("/:id/tables", middleware.RoleAuth("owner"), h.Table.CreateTable)
			restaurants.GET("/:id/reservations", middleware.RoleAuth("owner"), h.Reservation.ListRestaurantReservations)
			restaurants.GET("/:id/reservations/export", middleware.RoleAuth("owner"), h.Export.ExportReservationBook)
		}

		// 桌型模块（店主；归属在 Service 层校验）
		tables := authorized.Group("/tables")
		{
			tables.GET("/:id", h.Table.GetTable)
			tables.PUT("/:id", middleware.RoleAuth("owner"), h.Table.UpdateTable)
			tables.DELETE("/:id", middleware.RoleAuth("owner"), h.Table.DeleteTable)
		}

		// 预订模块
		reservations := authorized.Group("/reservations")
		reservations.Use(middleware.RateLimit(rdb, 60, time.Minute))
		{
			reservations.POST("", h.Reservation.CreateReservation)
			reservations.GET("/mine", h.Reservation.ListMyReservations)
			reservations.GET("/calendar", h.Calendar.ExportMyCalendar)
			reservations.GET("/:id", h.Reservation.GetReservation)
			reservations.PUT("/:id", h.Reservation.ModifyReservation)
			reservations.DELETE("/:id", h.Reservation.CancelReservation)
		}
	}

	return r
}

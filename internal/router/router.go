package router

import (
	"log/slog"
	"net/http"

	"studenthelp/backend/internal/auth"
	"studenthelp/backend/internal/handler"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/middleware"
	"studenthelp/backend/internal/ratelimit"
	"studenthelp/backend/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "studenthelp/backend/docs"
)

// Options wires the router to its backing services.
type Options struct {
	DB *gorm.DB
	// Hub serves the SSE streams of this instance.
	Hub *hub.Hub
	// Events receives live events. Defaults to Hub; set it to a relay to fan out across instances.
	Events  hub.Publisher
	Limiter ratelimit.Limiter
	Logger  *slog.Logger

	MessagingRequiresConnection bool
}

// Setup builds the services and the gin engine serving /api/v1.
func Setup(opts Options) *gin.Engine {
	if opts.Hub == nil {
		opts.Hub = hub.NewHub()
	}
	if opts.Events == nil {
		opts.Events = opts.Hub
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	notifier := service.NewNotifier(opts.DB, opts.Events)
	connections := service.NewConnectionService(opts.DB, notifier)
	users := service.NewUserService(opts.DB, connections)
	notifications := service.NewNotificationService(opts.DB, notifier)
	messages := service.NewMessageService(opts.DB, connections, opts.Events, opts.MessagingRequiresConnection)

	authHandler := handler.NewAuthHandler(users)
	userHandler := handler.NewUserHandler(users, connections)
	skillHandler := handler.NewSkillHandler(users)
	connectionHandler := handler.NewConnectionHandler(connections)
	notificationHandler := handler.NewNotificationHandler(notifications, opts.Hub)
	messageHandler := handler.NewMessageHandler(messages)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.Logger))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	requireUser := []gin.HandlerFunc{auth.AuthMiddleware(), auth.ActiveUserMiddleware(opts.DB)}

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		authRoutes.Use(ratelimit.Middleware(opts.Limiter, "auth"))
		{
			authRoutes.POST("/register", authHandler.RegisterUser)
			authRoutes.POST("/login", authHandler.LoginUser)
			authRoutes.POST("/guest", authHandler.GuestLogin)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(requireUser...)
		{
			userRoutes.GET("", userHandler.SearchUsers) // Must be before /:id
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.PUT("/me", userHandler.UpdateMe)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.GET("/:id/status", userHandler.GetConnectionStatus)
		}

		skillRoutes := apiV1.Group("/skills")
		skillRoutes.Use(requireUser...)
		{
			skillRoutes.GET("", skillHandler.GetSkills)
		}

		connectionRoutes := apiV1.Group("/connections")
		connectionRoutes.Use(requireUser...)
		{
			connectionRoutes.POST("", ratelimit.Middleware(opts.Limiter, "connections"), connectionHandler.CreateConnection)
			connectionRoutes.GET("", connectionHandler.ListConnections)
			connectionRoutes.GET("/:id", connectionHandler.GetConnection)
			connectionRoutes.PUT("/:id", connectionHandler.RespondConnection)
			connectionRoutes.POST("/:id/accept", connectionHandler.AcceptConnection)
			connectionRoutes.POST("/:id/decline", connectionHandler.DeclineConnection)
			connectionRoutes.POST("/:id/reject", connectionHandler.DeclineConnection)
		}

		// The stream authenticates on its own so EventSource can pass ?token=.
		apiV1.GET("/notifications/stream", auth.StreamAuthMiddleware(), auth.ActiveUserMiddleware(opts.DB), notificationHandler.Stream)

		notificationRoutes := apiV1.Group("/notifications")
		notificationRoutes.Use(requireUser...)
		{
			notificationRoutes.GET("", notificationHandler.ListNotifications)
			notificationRoutes.GET("/unread-count", notificationHandler.UnreadCount)
			notificationRoutes.PUT("/mark-all-read", notificationHandler.MarkAllRead)
			notificationRoutes.PUT("/:id/read", notificationHandler.MarkRead)
		}

		messageRoutes := apiV1.Group("/messages")
		messageRoutes.Use(requireUser...)
		{
			messageRoutes.GET("", messageHandler.ListMessages)
			messageRoutes.POST("", ratelimit.Middleware(opts.Limiter, "messages"), messageHandler.SendMessage)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware(opts.DB))
		{
			// Skills CRUD
			skills := adminRoutes.Group("/skills")
			{
				skills.POST("", skillHandler.CreateSkill)
				skills.GET("", skillHandler.GetSkills)
				skills.PUT("/:id", skillHandler.UpdateSkill)
				skills.DELETE("/:id", skillHandler.DeleteSkill)
			}

			adminRoutes.POST("/notifications", notificationHandler.CreateNotification)
		}
	}

	return router
}

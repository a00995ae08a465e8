package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/middleware"
	"github.com/scentboard/scentboard/pkg/logger"
)

type Handlers struct {
	Users         *UserHandler
	Posts         *PostHandler
	Comments      *CommentHandler
	Interactions  *InteractionHandler
	Notifications *NotificationHandler
}

type RouterConfig struct {
	JWTSecret    string
	AllowOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func NewRouter(h Handlers, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	jwtConfig := &middleware.JWTConfig{Secret: cfg.JWTSecret}
	// optional auth runs first so the request log can carry user_id
	r.Use(middleware.OptionalJWTAuth(jwtConfig), middleware.RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Users.Register)
			auth.POST("/login", h.Users.Login)
			auth.POST("/refresh", h.Users.Refresh)
			auth.POST("/logout", h.Users.Logout)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", h.Users.GetProfile)
			users.GET("/:id/followers", h.Users.GetFollowers)
			users.GET("/:id/following", h.Users.GetFollowing)
			users.GET("/:id/posts", h.Posts.GetUserPosts)
		}

		api.GET("/posts", h.Posts.Discover)
		api.GET("/posts/:id", h.Posts.GetPost)
		api.GET("/posts/:id/comments", h.Comments.GetPostComments)
		api.GET("/posts/:id/likes", h.Interactions.GetPostLikes)
		api.GET("/comments/:id", h.Comments.GetComment)
		api.GET("/comments/:id/replies", h.Comments.GetReplies)

		protected := api.Group("")
		protected.Use(middleware.NewJWTAuth(jwtConfig))
		{
			protected.GET("/me", h.Users.Me)
			protected.PATCH("/me", h.Users.UpdateProfile)
			protected.GET("/me/saved", h.Posts.GetSaved)
			protected.GET("/feed", h.Posts.GetFeed)

			protected.POST("/users/:id/follow", h.Users.Follow)
			protected.DELETE("/users/:id/follow", h.Users.Unfollow)

			protected.POST("/posts", h.Posts.CreatePost)
			protected.PATCH("/posts/:id", h.Posts.UpdatePost)
			protected.DELETE("/posts/:id", h.Posts.DeletePost)
			protected.POST("/posts/:id/like", h.Interactions.LikePost)
			protected.DELETE("/posts/:id/like", h.Interactions.UnlikePost)
			protected.POST("/posts/:id/save", h.Interactions.SavePost)
			protected.DELETE("/posts/:id/save", h.Interactions.UnsavePost)
			protected.POST("/posts/:id/comments", h.Comments.CreateComment)

			protected.PATCH("/comments/:id", h.Comments.UpdateComment)
			protected.DELETE("/comments/:id", h.Comments.DeleteComment)
			protected.POST("/comments/:id/like", h.Interactions.LikeComment)
			protected.DELETE("/comments/:id/like", h.Interactions.UnlikeComment)

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notifications.List)
				notifications.GET("/unread-count", h.Notifications.UnreadCount)
				notifications.POST("/read", h.Notifications.MarkRead)
				notifications.POST("/read-all", h.Notifications.MarkAllRead)
				notifications.DELETE("/:id", h.Notifications.Delete)
			}
		}
	}

	return r
}

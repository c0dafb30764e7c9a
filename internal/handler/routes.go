package handler

import (
	"socialgraph/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on api. sendLimit guards friend request
// creation and may be nil.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, sendLimit gin.HandlerFunc) {
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.LoginUser)
	}

	// Read routes: anonymous viewers get the degraded view.
	public := api.Group("")
	public.Use(auth.OptionalAuthMiddleware())
	{
		public.GET("/users", h.SearchUsers)
		public.GET("/users/:id", h.GetUserByID)
		public.GET("/users/:id/friends", h.GetFriends)
		public.GET("/users/:id/posts", h.GetUserPosts)
		public.GET("/posts/:id", h.GetPost)
		public.GET("/posts/:id/comments", h.GetComments)
		public.GET("/posts/:id/reactions", h.GetReactions)
	}

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.GET("/users/me", h.GetMe)
		protected.PUT("/users/me", h.UpdateMe)
		protected.GET("/users/me/requests", h.ListRequests)
		protected.GET("/users/:id/mutual-friends", h.GetMutualFriends)
		protected.POST("/users/:id/remove", h.RemoveFriend)
		if sendLimit != nil {
			protected.POST("/users/:id/request", sendLimit, h.SendRequest)
		} else {
			protected.POST("/users/:id/request", h.SendRequest)
		}

		protected.POST("/requests/:id/accept", h.AcceptRequest)
		protected.POST("/requests/:id/reject", h.RejectRequest)
		protected.POST("/requests/:id/cancel", h.CancelRequest)

		protected.POST("/posts", h.CreatePost)
		protected.DELETE("/posts/:id", h.DeletePost)
		protected.POST("/posts/:id/comments", h.AddComment)
		protected.PUT("/posts/:id/reaction", h.SetReaction)
		protected.DELETE("/posts/:id/reaction", h.RemoveReaction)
		protected.DELETE("/comments/:id", h.DeleteComment)

		protected.GET("/notifications/stream", h.StreamNotifications)
	}

	adminRoutes := api.Group("/admin")
	adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware(h.store))
	{
		adminRoutes.DELETE("/posts/:id", h.ModeratePost)
		adminRoutes.DELETE("/comments/:id", h.ModerateComment)
	}
}

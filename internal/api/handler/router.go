package handler

import "github.com/gin-gonic/gin"

// NewRouter wires every route onto a new gin engine.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(AccessLogger(), gin.Recovery())
	r.Use(CORSMiddleware(corsOrigins))
	r.Use(AuthorizationContext())

	r.GET("/health", h.Health)

	complaints := r.Group("/complaints")
	{
		complaints.POST("", h.SubmitComplaint)
		complaints.GET("", h.ListComplaints)
		complaints.GET("/deleted", h.ListDeletedComplaints)
		complaints.GET("/user/:email", h.ListComplaintsByReporter)
		complaints.GET("/:id", h.GetComplaint)
		complaints.PUT("/:id", h.TransitionComplaint)
		complaints.DELETE("/:id", h.SoftDeleteComplaint)
		complaints.PUT("/:id/restore", h.RestoreComplaint)
		complaints.DELETE("/:id/permanent", h.PurgeComplaint)
	}

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/google", h.GoogleLogin)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/setup-admin", h.SetupAdmin)

		api.GET("/events", h.ServeEvents)
	}

	return r
}

// Package handler exposes the complaint and identity services over
// JSON/HTTP using gin.
package handler

import (
	"log"
	"net/http"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/feed"

	"github.com/gin-gonic/gin"
)

// Handler holds the services behind the HTTP routes.
type Handler struct {
	Complaints *complaint.Service
	Identity   *auth.IdentityService
	Hub        *feed.Hub
}

func NewHandler(complaints *complaint.Service, identity *auth.IdentityService, hub *feed.Hub) *Handler {
	return &Handler{
		Complaints: complaints,
		Identity:   identity,
		Hub:        hub,
	}
}

// Health reports that the process is serving requests.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError writes err as {"message": ...} with the matching status.
// Internal errors are logged with their cause and shown generically.
func respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), appErr)
	}
	c.AbortWithStatusJSON(appErr.Status(), gin.H{"message": appErr.PublicMessage()})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// bindJSON decodes the request body into v and reports a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperror.Validation("Invalid request body."))
		return false
	}
	return true
}

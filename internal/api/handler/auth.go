package handler

import (
	"net/http"

	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Identity.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Identity.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GoogleLogin handles POST /api/auth/google with {token, role}.
func (h *Handler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Identity.GoogleLogin(c.Request.Context(), req.Token, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Identity.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Logged out")
}

// SetupAdmin creates the configured admin account or re-asserts its role
// and password.
func (h *Handler) SetupAdmin(c *gin.Context) {
	created, err := h.Identity.SetupAdmin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if created {
		respondMessage(c, http.StatusCreated, "Admin account created")
		return
	}
	respondMessage(c, http.StatusOK, "Admin account updated")
}

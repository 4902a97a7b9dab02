package handler

import (
	"net/http"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SubmitComplaint(c *gin.Context) {
	var in models.ComplaintInput
	if !bindJSON(c, &in) {
		return
	}
	created, err := h.Complaints.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListComplaints(c *gin.Context) {
	list, err := h.Complaints.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListComplaintsByReporter(c *gin.Context) {
	list, err := h.Complaints.ListByReporter(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	found, err := h.Complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// TransitionComplaint handles PUT /complaints/:id with {status, adminResponse}.
func (h *Handler) TransitionComplaint(c *gin.Context) {
	// Auth errors take precedence over a malformed body.
	if _, err := h.Complaints.Authorize(c.Request.Context(), complaint.OpTransition); err != nil {
		respondError(c, err)
		return
	}
	var req complaint.TransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.Complaints.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) SoftDeleteComplaint(c *gin.Context) {
	if _, err := h.Complaints.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Complaint moved to recycle bin")
}

func (h *Handler) ListDeletedComplaints(c *gin.Context) {
	list, err := h.Complaints.ListDeleted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) RestoreComplaint(c *gin.Context) {
	restored, changed, err := h.Complaints.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Complaint restored"
	if !changed {
		msg = "Complaint is not in the recycle bin"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "complaint": restored})
}

func (h *Handler) PurgeComplaint(c *gin.Context) {
	if err := h.Complaints.Purge(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Complaint permanently deleted")
}

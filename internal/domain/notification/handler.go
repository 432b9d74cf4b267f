package notification

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"fieldnotify/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Emit handles POST /api/v1/events
// Accepts a business event for detached dispatch and returns 202 Accepted.
func (h *Handler) Emit(c *gin.Context) {
	event, err := decodeEvent(c.Request.Body)
	if err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Emit(c.Request.Context(), event)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, resp)
}

// decodeEvent reads an event body keeping payload numbers as json.Number,
// as the queue payload does, so large numeric ids are not rounded.
func decodeEvent(body io.Reader) (*Event, error) {
	var event Event
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&event); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListNotifications handles GET /api/v1/notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListNotifications(c.Request.Context(), common.UserID(c), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"unread": count})
}

// Stats handles GET /api/v1/notifications/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, stats)
}

// MarkRead handles PATCH /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.MarkRead(c.Request.Context(), common.UserID(c), id); err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"id": id, "read": true})
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	updated, err := h.service.MarkAllRead(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func (h *Handler) DeleteNotification(c *gin.Context) {
	if err := h.service.DeleteNotification(c.Request.Context(), common.UserID(c), c.Param("id")); err != nil {
		common.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListPreferences handles GET /api/v1/preferences
func (h *Handler) ListPreferences(c *gin.Context) {
	prefs, err := h.service.ListPreferences(c.Request.Context(), common.UserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"preferences": prefs})
}

// UpdatePreferences handles PUT /api/v1/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req struct {
		Preferences []*Preference `json:"preferences" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.UpdatePreferences(c.Request.Context(), common.UserID(c), req.Preferences); err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"updated": len(req.Preferences)})
}

// ListRules handles GET /api/v1/admin/rules
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.service.ListRules(c.Request.Context(), c.Query("event_type"))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"rules": rules})
}

// GetRule handles GET /api/v1/admin/rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	rule, err := h.service.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, rule)
}

// CreateRule handles POST /api/v1/admin/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), &req)
	if err != nil {
		slog.Error("create rule failed", "event_type", req.EventType, "error", err)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/v1/admin/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/v1/admin/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	if err := h.service.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		common.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListDeliveryLogs handles GET /api/v1/admin/delivery-logs
func (h *Handler) ListDeliveryLogs(c *gin.Context) {
	var filter DeliveryLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListDeliveryLogs(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// RegisterRoutes registers event intake and admin routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.Emit)

	admin := rg.Group("/admin")
	admin.GET("/rules", h.ListRules)
	admin.POST("/rules", h.CreateRule)
	admin.GET("/rules/:id", h.GetRule)
	admin.PUT("/rules/:id", h.UpdateRule)
	admin.DELETE("/rules/:id", h.DeleteRule)
	admin.GET("/delivery-logs", h.ListDeliveryLogs)
}

// RegisterUserRoutes registers routes scoped to the calling user. The group
// must resolve the user id (see middleware.User).
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.ListNotifications)
	rg.GET("/notifications/unread-count", h.UnreadCount)
	rg.GET("/notifications/stats", h.Stats)
	rg.POST("/notifications/read-all", h.MarkAllRead)
	rg.PATCH("/notifications/:id/read", h.MarkRead)
	rg.DELETE("/notifications/:id", h.DeleteNotification)
	rg.GET("/preferences", h.ListPreferences)
	rg.PUT("/preferences", h.UpdatePreferences)
}

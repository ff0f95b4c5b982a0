package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/accountd/internal/account"
	"github.com/jon4hz/accountd/internal/api/models"
)

func (h *Handler) GetNotificationSettings(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	settings, err := h.svc.GetNotificationSettings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToNotificationSettings(settings))
}

func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req account.NotificationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, account.ErrInvalidJSON(err))
		return
	}
	settings, err := h.svc.UpdateNotificationSettings(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToNotificationSettings(settings))
}

func (h *Handler) GetThemeSettings(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	settings, err := h.svc.GetThemeSettings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToThemeSettings(settings))
}

func (h *Handler) UpdateThemeSettings(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req account.ThemeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, account.ErrInvalidJSON(err))
		return
	}
	settings, err := h.svc.UpdateThemeSettings(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToThemeSettings(settings))
}

func (h *Handler) GetPrivacySettings(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	settings, err := h.svc.GetPrivacySettings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToPrivacySettings(settings))
}

func (h *Handler) UpdatePrivacySettings(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req account.PrivacyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, account.ErrInvalidJSON(err))
		return
	}
	settings, err := h.svc.UpdatePrivacySettings(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToPrivacySettings(settings))
}

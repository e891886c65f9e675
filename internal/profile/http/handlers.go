package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devdash/profile-backend/internal/auth"
	"github.com/devdash/profile-backend/internal/chain"
	"github.com/devdash/profile-backend/internal/profile/domain"
	"github.com/devdash/profile-backend/internal/profile/service"
	"github.com/devdash/profile-backend/internal/publish"
)

type Handler struct {
	engine *service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Register(r gin.IRouter) {
	grp := r.Group("/profile")
	grp.GET("", h.get)
	grp.GET("/draft", h.getDraft)
	grp.PATCH("/draft", h.saveDraft)
	grp.POST("/publish", h.publish)
}

// get is the profile-existence check clients use on startup: 404 means
// authenticated but nothing published and no local edits.
func (h *Handler) get(c *gin.Context) {
	identity := auth.Identity(c)

	exists, err := h.engine.Exists(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "profile": nil})
		return
	}

	p, _, err := h.engine.Draft(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}

func (h *Handler) getDraft(c *gin.Context) {
	identity := auth.Identity(c)

	p, dirty, err := h.engine.Draft(c.Request.Context(), identity)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotAuthenticated) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p, "hasUnpublishedChanges": dirty})
}

func (h *Handler) saveDraft(c *gin.Context) {
	identity := auth.Identity(c)

	var patch domain.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, dirty, err := h.engine.SaveDraft(c.Request.Context(), identity, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error()})
		case isLimitError(err):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p, "hasUnpublishedChanges": dirty})
}

type publishReq struct {
	ConfirmFallback bool `json:"confirmFallback"`
}

func (h *Handler) publish(c *gin.Context) {
	identity := auth.Identity(c)

	var req publishReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
			return
		}
	}

	result, err := h.engine.Publish(c.Request.Context(), identity, req.ConfirmFallback)
	if err != nil {
		h.publishError(c, err)
		return
	}

	resp := gin.H{
		"ok":        true,
		"txHash":    result.TxHash,
		"path":      result.Path,
		"masterCid": result.MasterCID,
	}
	if result.RemainingWei != nil {
		resp["remainingBudgetWei"] = result.RemainingWei.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) publishError(c *gin.Context, err error) {
	var fallback *publish.FallbackRequiredError
	var media *publish.MediaUploadError
	var txErr *chain.TxError

	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, service.ErrPublishInFlight):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.As(err, &fallback):
		c.JSON(http.StatusConflict, gin.H{
			"ok":               false,
			"requiresFallback": true,
			"requiredWei":      fallback.RequiredWei.String(),
			"balanceWei":       fallback.BalanceWei.String(),
		})
	case errors.As(err, &media):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "field": media.Field})
	case errors.As(err, &txErr):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": txErr.Error(), "kind": txErr.Kind})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
	}
}

func isLimitError(err error) bool {
	return errors.Is(err, domain.ErrTooManyFeatured) ||
		errors.Is(err, domain.ErrTooManyBlogPosts) ||
		errors.Is(err, domain.ErrTooManyCertificates) ||
		errors.Is(err, domain.ErrTooManyGalleryItems) ||
		errors.Is(err, domain.ErrVideoWindowTooLong) ||
		errors.Is(err, domain.ErrInvalidVideoWindow)
}

package auth

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// Hydrator is the engine hook invoked once a login verifies: it builds
// the identity's draft/canonical state. Logout tears that state down.
type Hydrator interface {
	Hydrate(ctx context.Context, identity string) error
	Logout(ctx context.Context, identity string) error
}

type HandlerOptions struct {
	Domain    string
	URI       string
	Statement string
	ChainID   int
	// Secure marks session cookies HTTPS-only.
	Secure bool
}

type Handler struct {
	challenges *ChallengeStore
	sessions   *SessionStore
	hydrator   Hydrator
	opts       HandlerOptions
}

func NewHandler(challenges *ChallengeStore, sessions *SessionStore, hydrator Hydrator, opts HandlerOptions) *Handler {
	return &Handler{
		challenges: challenges,
		sessions:   sessions,
		hydrator:   hydrator,
		opts:       opts,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/auth")
	grp.GET("/nonce", h.nonce)
	grp.POST("/verify", h.verify)
	grp.POST("/logout", h.logout)
}

func (h *Handler) nonce(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid address"})
		return
	}

	nonce, err := h.challenges.Issue(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	// A ready-to-sign message is returned alongside the raw nonce so
	// clients don't have to assemble the format themselves.
	msg := SignInMessage{
		Domain:    h.opts.Domain,
		Address:   address,
		Statement: h.opts.Statement,
		URI:       h.opts.URI,
		Version:   "1",
		ChainID:   h.opts.ChainID,
		Nonce:     nonce,
		IssuedAt:  time.Now().UTC(),
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "nonce": nonce, "message": msg.Prepare()})
}

type verifyReq struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	msg, err := ParseSignInMessage(req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	ok, err := h.challenges.Consume(ctx, msg.Address, msg.Nonce)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unknown or expired nonce"})
		return
	}

	if err := VerifySignature(req.Message, req.Signature, msg.Address); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error()})
		return
	}

	token, err := h.sessions.Create(ctx, msg.Address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	// Hydration failures degrade per-source inside the engine; an error
	// here means every source failed, which still leaves a default
	// profile in place, so the login succeeds regardless.
	if err := h.hydrator.Hydrate(ctx, msg.Address); err != nil {
		log.Printf("Warning: hydration for %s: %v", msg.Address, err)
	}

	c.SetCookie(SessionCookie, token, 0, "/", h.opts.Domain, h.opts.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "address": strings.ToLower(msg.Address)})
}

func (h *Handler) logout(c *gin.Context) {
	ctx := c.Request.Context()

	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		if address, err := h.sessions.Resolve(ctx, token); err == nil && address != "" {
			if err := h.hydrator.Logout(ctx, address); err != nil {
				log.Printf("Warning: logout cleanup for %s: %v", address, err)
			}
		}
		if err := h.sessions.Destroy(ctx, token); err != nil {
			log.Printf("Warning: session destroy: %v", err)
		}
	}

	c.SetCookie(SessionCookie, "", -1, "/", h.opts.Domain, h.opts.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

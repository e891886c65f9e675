package budget

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devdash/profile-backend/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	grp := r.Group("/budget")
	grp.GET("", h.balance)
	grp.POST("/confirm-deposit", h.confirmDeposit)
}

func (h *Handler) balance(c *gin.Context) {
	identity := auth.Identity(c)

	view, err := h.svc.BalanceView(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"balanceEth":  view.BalanceEth,
		"balanceUsd":  view.BalanceUsd,
		"priceSource": view.PriceSource,
	})
}

type confirmDepositReq struct {
	TxHash string `json:"txHash"`
	Amount string `json:"amount"`
}

func (h *Handler) confirmDeposit(c *gin.Context) {
	identity := auth.Identity(c)

	var req confirmDepositReq
	if err := c.ShouldBindJSON(&req); err != nil || req.TxHash == "" || req.Amount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	newBalance, err := h.svc.ConfirmDeposit(c.Request.Context(), identity, req.TxHash, req.Amount)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ErrWrongRecipient), errors.Is(err, ErrAmountMismatch):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, ErrDepositNotFound), errors.Is(err, ErrDepositUnsettled):
			status = http.StatusNotFound
		case errors.Is(err, ErrForeignDeposit):
			status = http.StatusForbidden
		case errors.Is(err, ErrDepositFailed), errors.Is(err, ErrDepositAlreadyCredited):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "newBudgetWei": newBalance.String()})
}

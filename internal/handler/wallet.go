package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-club-reservation/internal/service"
)

// WalletHandler exposes the member wallet: balance plus ledger history and
// the immediate deposit path.
type WalletHandler struct {
	Wallet *service.WalletService
}

// NewWalletHandler constructs a WalletHandler.
func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	if svc == nil {
		panic("nil service passed to NewWalletHandler")
	}
	return &WalletHandler{Wallet: svc}
}

// Overview handles GET /v1/wallet and returns the caller's balance, tier
// and transaction history, newest entry first.
func (h *WalletHandler) Overview(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	view, err := h.Wallet.Overview(c.Request().Context(), memberID)
	if err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load wallet"})
	}
	history := make([]echo.Map, 0, len(view.History))
	for i := range view.History {
		t := &view.History[i]
		history = append(history, echo.Map{
			"id":          t.ID,
			"type":        string(t.Type),
			"amount":      t.Amount,
			"description": t.Description,
			"status":      string(t.Status),
			"created_at":  t.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"balance":     view.Balance,
		"tier":        view.Tier.String(),
		"total_spent": view.TotalSpent,
		"history":     history,
	})
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit handles POST /v1/wallet/deposit and credits the caller's wallet
// immediately, returning the new balance.
func (h *WalletHandler) Deposit(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req depositRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	balance, err := h.Wallet.Deposit(c.Request().Context(), memberID, req.Amount)
	if err != nil {
		if writeDomainError(c, err) {
			return nil
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deposit failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefscript/backend/internal/middleware"
	"github.com/chefscript/backend/internal/service"
	"github.com/chefscript/backend/internal/types"
)

type TokenHandler struct {
	ledger *service.TokenLedger
	auth   *service.AuthService
}

func NewTokenHandler(ledger *service.TokenLedger, auth *service.AuthService) *TokenHandler {
	return &TokenHandler{ledger: ledger, auth: auth}
}

func (h *TokenHandler) RegisterRoutes(router *gin.RouterGroup) {
	tokens := router.Group("/tokens")
	{
		tokens.GET("/packages", h.ListPackages)
		tokens.GET("/balance", middleware.AuthMiddleware(h.auth), h.Balance)
		tokens.POST("/purchase", middleware.AuthMiddleware(h.auth), h.Purchase)
	}
}

type PurchaseRequest struct {
	PackageID string `json:"package_id" binding:"required"`
	OrderID   string `json:"order_id" binding:"required"`
}

func (h *TokenHandler) ListPackages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": types.TokenPackages})
}

func (h *TokenHandler) Balance(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": balance})
}

// Purchase credits a completed payment-provider order. The order id is
// unique per purchase so a replayed request cannot credit twice.
func (h *TokenHandler) Purchase(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pkg *types.TokenPackage
	for i := range types.TokenPackages {
		if types.TokenPackages[i].ID == req.PackageID {
			pkg = &types.TokenPackages[i]
			break
		}
	}
	if pkg == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown token package"})
		return
	}

	if err := h.ledger.CompletePurchase(c.Request.Context(), userID, pkg.ID, req.OrderID, pkg.Tokens); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens":  balance,
		"package": pkg.ID,
	})
}

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chefscript/backend/internal/models"
)

// Token costs for billable operations.
const (
	StyleCreationCost  = 10
	FluxImageCost      = 1
	RecraftImageCost   = 2
	plagiarismWordUnit = 500
	feedSpyUnit        = 25
)

// PlagiarismTokenCost is ceil(wordCount/500) * 2.
func PlagiarismTokenCost(wordCount int) int {
	return (wordCount + plagiarismWordUnit - 1) / plagiarismWordUnit * 2
}

// FeedSpyTokenCost is ceil(count/25).
func FeedSpyTokenCost(count int) int {
	return (count + feedSpyUnit - 1) / feedSpyUnit
}

// RecipeImageCost returns the per-recipe token cost for the chosen provider.
func RecipeImageCost(styleValue string) int {
	if styleValue == "flux" {
		return FluxImageCost
	}
	return RecraftImageCost
}

// TokenLedger manages per-user token balances. Debit is a single conditional
// update so concurrent operations cannot both pass a balance check and
// overspend.
type TokenLedger struct {
	db *gorm.DB
}

// NewTokenLedger creates a new TokenLedger instance
func NewTokenLedger(db *gorm.DB) *TokenLedger {
	return &TokenLedger{db: db}
}

// Balance returns the user's current token balance
func (l *TokenLedger) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Select("tokens").First(&user, "id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("failed to load token balance: %w", err)
	}
	return user.Tokens, nil
}

// Debit atomically subtracts amount from the user's balance. When the balance
// does not cover the amount no row is updated and ErrInsufficientTokens is
// returned.
func (l *TokenLedger) Debit(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	result := l.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND tokens >= ?", userID, amount).
		UpdateColumn("tokens", gorm.Expr("tokens - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to deduct tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("balance does not cover %d tokens: %w", amount, ErrInsufficientTokens)
	}
	return nil
}

// Credit adds amount to the user's balance
func (l *TokenLedger) Credit(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	result := l.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("tokens", gorm.Expr("tokens + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to credit tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// Require verifies the balance covers cost before an external call is made.
func (l *TokenLedger) Require(ctx context.Context, userID uuid.UUID, cost int) error {
	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < cost {
		return fmt.Errorf("this operation requires %d tokens: %w", cost, ErrInsufficientTokens)
	}
	return nil
}

// CompletePurchase records a finished token package purchase and credits the
// package's tokens in one transaction. The order id is unique, so replays of
// the same payment confirmation fail on the insert and credit nothing.
func (l *TokenLedger) CompletePurchase(ctx context.Context, userID uuid.UUID, packageID, orderID string, tokens int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase := models.TokenPurchase{
			UserID:    userID,
			PackageID: packageID,
			OrderID:   orderID,
			Tokens:    tokens,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("tokens", gorm.Expr("tokens + ?", tokens))
		if result.Error != nil {
			return fmt.Errorf("failed to credit tokens: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("user not found")
		}
		return nil
	})
}

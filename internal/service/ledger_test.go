package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefscript/backend/internal/service"
	"github.com/chefscript/backend/internal/testhelpers"
)

func TestPlagiarismTokenCost(t *testing.T) {
	cases := []struct {
		words int
		cost  int
	}{
		{1, 2},
		{499, 2},
		{500, 2},
		{501, 4},
		{1000, 4},
		{1001, 6},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.cost, service.PlagiarismTokenCost(tc.words), "words=%d", tc.words)
	}
}

func TestFeedSpyTokenCost(t *testing.T) {
	assert.Equal(t, 1, service.FeedSpyTokenCost(1))
	assert.Equal(t, 1, service.FeedSpyTokenCost(25))
	assert.Equal(t, 2, service.FeedSpyTokenCost(26))
	assert.Equal(t, 4, service.FeedSpyTokenCost(100))
}

func TestRecipeImageCost(t *testing.T) {
	assert.Equal(t, 1, service.RecipeImageCost("flux"))
	assert.Equal(t, 2, service.RecipeImageCost("realistic_image"))
	assert.Equal(t, 2, service.RecipeImageCost("229b2a75-12e4-4a52-a5bf-6d9b034e3a2f"))
}

func TestTokenLedgerDebit(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ledger := service.NewTokenLedger(db)
	ctx := context.Background()

	t.Run("debits when balance covers amount", func(t *testing.T) {
		user := testhelpers.CreateTestUser(t, db, 5)

		require.NoError(t, ledger.Debit(ctx, user.ID, 3))

		balance, err := ledger.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)
	})

	t.Run("rejects debit beyond balance without changing it", func(t *testing.T) {
		user := testhelpers.CreateTestUser(t, db, 2)

		err := ledger.Debit(ctx, user.ID, 3)
		assert.ErrorIs(t, err, service.ErrInsufficientTokens)

		balance, err := ledger.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		user := testhelpers.CreateTestUser(t, db, 2)
		assert.Error(t, ledger.Debit(ctx, user.ID, 0))
		assert.Error(t, ledger.Debit(ctx, user.ID, -1))
	})
}

func TestTokenLedgerRequire(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ledger := service.NewTokenLedger(db)
	ctx := context.Background()

	user := testhelpers.CreateTestUser(t, db, 3)

	assert.NoError(t, ledger.Require(ctx, user.ID, 3))

	err := ledger.Require(ctx, user.ID, 4)
	assert.ErrorIs(t, err, service.ErrInsufficientTokens)
	assert.Contains(t, err.Error(), "requires 4 tokens")
}

func TestTokenLedgerCompletePurchase(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ledger := service.NewTokenLedger(db)
	ctx := context.Background()

	user := testhelpers.CreateTestUser(t, db, 10)

	require.NoError(t, ledger.CompletePurchase(ctx, user.ID, "starter", "ORDER-1", 50))

	balance, err := ledger.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	t.Run("replayed order id credits nothing", func(t *testing.T) {
		err := ledger.CompletePurchase(ctx, user.ID, "starter", "ORDER-1", 50)
		assert.Error(t, err)

		balance, err := ledger.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, balance)
	})
}

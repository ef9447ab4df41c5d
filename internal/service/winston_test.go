package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefscript/backend/internal/testhelpers"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func newTestWinstonService(t *testing.T, ledger *TokenLedger, handler http.Handler) *WinstonService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewWinstonService(server.URL+"/api/plagiarism", ledger)
	svc.retryDelay = 0
	svc.sleep = func(time.Duration) {}
	return svc
}

func winstonOK(w http.ResponseWriter) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"score": 42.0,
		"sources": []map[string]interface{}{
			{
				"url":   "https://example.com/post",
				"score": 80.0,
				"plagiarismFound": []map[string]string{
					{"sequence": "stolen words"},
					{"sequence": "more stolen words"},
				},
				"identicalWordCounts": 10,
				"similarWordCounts":   5,
				"totalNumberOfWords":  100,
			},
		},
		"credits_used":         2,
		"credits_remaining":    998,
		"textWordCounts":       1000,
		"totalPlagiarismWords": 15,
	})
}

func TestCheckPlagiarism(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes the provider response", func(t *testing.T) {
		db := testhelpers.SetupTestDatabase(t)
		ledger := NewTokenLedger(db)
		user := testhelpers.CreateTestUser(t, db, 10)

		svc := newTestWinstonService(t, ledger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			winstonOK(w)
		}))

		result, err := svc.CheckPlagiarism(ctx, user.ID, words(1000), nil)
		require.NoError(t, err)

		assert.InDelta(t, 0.42, result.Score, 1e-9)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, "https://example.com/post", result.Matches[0].Source)
		assert.InDelta(t, 0.8, result.Matches[0].Similarity, 1e-9)
		assert.Equal(t, "stolen words more stolen words", result.Matches[0].Text)
		assert.Equal(t, 10, result.Matches[0].Details.Identical)
		assert.Equal(t, 2, result.Stats.CreditsUsed)
		assert.Equal(t, 1000, result.Stats.WordCount)

		// 1000 words cost 4 tokens, deducted after the check.
		balance, err := ledger.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, balance)
	})

	t.Run("rejects when balance cannot cover the word count", func(t *testing.T) {
		db := testhelpers.SetupTestDatabase(t)
		ledger := NewTokenLedger(db)
		user := testhelpers.CreateTestUser(t, db, 3)

		var calls int32
		svc := newTestWinstonService(t, ledger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			winstonOK(w)
		}))

		_, err := svc.CheckPlagiarism(ctx, user.ID, words(1000), nil)
		assert.ErrorIs(t, err, ErrInsufficientTokens)
		assert.Contains(t, err.Error(), "requires 4 tokens")
		assert.Contains(t, err.Error(), "1000 words")
		// No network call is made on an insufficient balance.
		assert.Zero(t, atomic.LoadInt32(&calls))
	})

	t.Run("retries generic failures then succeeds", func(t *testing.T) {
		db := testhelpers.SetupTestDatabase(t)
		ledger := NewTokenLedger(db)
		user := testhelpers.CreateTestUser(t, db, 10)

		var calls int32
		svc := newTestWinstonService(t, ledger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			winstonOK(w)
		}))

		result, err := svc.CheckPlagiarism(ctx, user.ID, words(100), nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.42, result.Score, 1e-9)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("does not retry authorization failures", func(t *testing.T) {
		db := testhelpers.SetupTestDatabase(t)
		ledger := NewTokenLedger(db)
		user := testhelpers.CreateTestUser(t, db, 10)

		var calls int32
		svc := newTestWinstonService(t, ledger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad key"})
		}))

		_, err := svc.CheckPlagiarism(ctx, user.ID, words(100), nil)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

		// Nothing is deducted on failure.
		balance, err := ledger.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, balance)
	})

	t.Run("maps upstream gateway timeout to a timeout failure", func(t *testing.T) {
		db := testhelpers.SetupTestDatabase(t)
		ledger := NewTokenLedger(db)
		user := testhelpers.CreateTestUser(t, db, 10)

		svc := newTestWinstonService(t, ledger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGatewayTimeout)
		}))

		_, err := svc.CheckPlagiarism(ctx, user.ID, words(100), nil)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Contains(t, err.Error(), "smaller text")
	})

	t.Run("requires non-empty text", func(t *testing.T) {
		db := testhelpers.SetupTestDatabase(t)
		ledger := NewTokenLedger(db)
		user := testhelpers.CreateTestUser(t, db, 10)

		svc := newTestWinstonService(t, ledger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		_, err := svc.CheckPlagiarism(ctx, user.ID, "   ", nil)
		assert.ErrorContains(t, err, "text is required")
	})
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("   \n\t"))
	assert.Equal(t, 3, CountWords("one two three"))
	assert.Equal(t, 3, CountWords("  one\ntwo\tthree  "))
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spottrader/src/model"
)

func TestPositionRepositoryFlatSymbolReturnsNil(t *testing.T) {
	repo := (&PositionRepository{}).WithDB(newTestDB(t))

	position, err := repo.FindBySymbol(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestPositionRepositoryUpsertKeyedBySymbol(t *testing.T) {
	repo := (&PositionRepository{}).WithDB(newTestDB(t))
	ctx := context.Background()

	openedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &model.Position{
		Symbol:     "BTC/USDT",
		State:      model.PositionStateOpen,
		EntryPrice: 100,
		OpenedAt:   openedAt,
	}))

	// Upserting the same symbol replaces the row instead of adding one.
	require.NoError(t, repo.Upsert(ctx, &model.Position{
		Symbol:     "BTC/USDT",
		State:      model.PositionStateOpen,
		EntryPrice: 105,
		OpenedAt:   openedAt.Add(time.Minute),
	}))

	positions, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 105.0, positions[0].EntryPrice)

	position, err := repo.FindBySymbol(ctx, "BTC/USDT")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, model.PositionStateOpen, position.State)
}

func TestPositionRepositoryStateTransitions(t *testing.T) {
	repo := (&PositionRepository{}).WithDB(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Position{
		Symbol:     "ETH/USDT",
		State:      model.PositionStateOpen,
		EntryPrice: 50,
		OpenedAt:   time.Now().UTC(),
	}))

	require.NoError(t, repo.UpdateState(ctx, "ETH/USDT", model.PositionStateClosing))

	position, err := repo.FindBySymbol(ctx, "ETH/USDT")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, model.PositionStateClosing, position.State)

	// Delete returns the symbol to flat.
	require.NoError(t, repo.Delete(ctx, "ETH/USDT"))

	position, err = repo.FindBySymbol(ctx, "ETH/USDT")
	require.NoError(t, err)
	assert.Nil(t, position)

	// Deleting a flat symbol is a no-op, not an error.
	require.NoError(t, repo.Delete(ctx, "ETH/USDT"))
}

func TestPositionRepositoryFindAllOrdersBySymbol(t *testing.T) {
	repo := (&PositionRepository{}).WithDB(newTestDB(t))
	ctx := context.Background()

	for _, symbol := range []string{"SOL/USDT", "BTC/USDT", "ETH/USDT"} {
		require.NoError(t, repo.Upsert(ctx, &model.Position{
			Symbol:     symbol,
			State:      model.PositionStateOpen,
			EntryPrice: 1,
			OpenedAt:   time.Now().UTC(),
		}))
	}

	positions, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, "BTC/USDT", positions[0].Symbol)
	assert.Equal(t, "ETH/USDT", positions[1].Symbol)
	assert.Equal(t, "SOL/USDT", positions[2].Symbol)
}

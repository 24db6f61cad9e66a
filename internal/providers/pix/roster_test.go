package pix

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revenuepulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTransferSubscriptions(t *testing.T) {
	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	source := NewTransferSource(config.NewStaticPixRoster([]config.PixSubscription{
		{ID: "pix_1", CustomerName: "Ana", PlanType: "Mensal", Amount: decimal.NewFromInt(120), StartDate: start, Active: true},
		{ID: "pix_2", CustomerName: "Bruno", PlanType: "Anual", Amount: decimal.NewFromInt(900), StartDate: start, Active: false},
	}))

	got, err := source.ListTransferSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pix_1", got[0].ID)
	assert.Equal(t, "Mensal", got[0].PlanType)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, start, got[0].StartDate)
	assert.False(t, got[1].Active)
}

func TestListTransferSubscriptionsEmptyRoster(t *testing.T) {
	source := NewTransferSource(config.NewStaticPixRoster(nil))

	got, err := source.ListTransferSubscriptions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListTransferSubscriptionsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTransferSource(config.NewStaticPixRoster(nil)).ListTransferSubscriptions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/model"
	"github.com/171k/ICT602-Laundroyale/internal/repository"
)

func newLedger() (*Ledger, *repository.TokenRepo, *repository.VoucherRepo, *docstore.MemStore) {
	store := docstore.NewMemStore()
	tokens := repository.NewTokenRepo(store)
	vouchers := repository.NewVoucherRepo(store)
	return NewLedger(tokens, vouchers), tokens, vouchers, store
}

func TestLedger_AvailableTokenCount(t *testing.T) {
	ctx := context.Background()
	ledger, tokens, _, _ := newLedger()

	assert.Equal(t, 0, ledger.AvailableTokenCount(ctx, "u1"))

	_, err := tokens.Create(ctx, model.Token{UserID: "u1", OrderID: "o1"})
	require.NoError(t, err)
	_, err = tokens.Create(ctx, model.Token{UserID: "u1", OrderID: "o2", Used: true})
	require.NoError(t, err)
	_, err = tokens.Create(ctx, model.Token{UserID: "u2", OrderID: "o3"})
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.AvailableTokenCount(ctx, "u1"))
}

func TestLedger_AvailableTokenCountZeroOnError(t *testing.T) {
	ctx := context.Background()
	ledger, _, _, store := newLedger()

	_, err := repository.NewTokenRepo(store).Create(ctx, model.Token{UserID: "u1"})
	require.NoError(t, err)

	store.DenyReads("tokens", true)
	assert.Equal(t, 0, ledger.AvailableTokenCount(ctx, "u1"),
		"balance reads never fail the caller")
}

func TestLedger_UseToken(t *testing.T) {
	ctx := context.Background()
	ledger, tokens, _, _ := newLedger()

	assert.True(t, errors.Is(ledger.UseToken(ctx, "u1"), repository.ErrNoTokens))

	_, err := tokens.Create(ctx, model.Token{UserID: "u1", OrderID: "o1"})
	require.NoError(t, err)

	require.NoError(t, ledger.UseToken(ctx, "u1"))
	assert.Equal(t, 0, ledger.AvailableTokenCount(ctx, "u1"))
}

func TestLedger_IssueVoucher(t *testing.T) {
	ctx := context.Background()
	ledger, _, _, _ := newLedger()

	id, err := ledger.IssueVoucher(ctx, "u1", model.VoucherTypeRM5Off)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	vouchers, err := ledger.Vouchers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, vouchers, 1)

	v := vouchers[0]
	assert.Equal(t, model.VoucherTypeRM5Off, v.Type)
	assert.False(t, v.Used)
	require.NotNil(t, v.ExpiresAt)

	expected := time.Now().UTC().AddDate(0, 0, model.VoucherValidityDays)
	assert.WithinDuration(t, expected, *v.ExpiresAt, time.Minute)
	assert.True(t, v.Valid(time.Now()))
}

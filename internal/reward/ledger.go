// Package reward is the thin read/consume layer over tokens and vouchers.
// Tokens are a soft benefit: balance reads never fail the caller.
package reward

import (
	"context"
	"log"
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/model"
)

type tokenStore interface {
	CountUnused(ctx context.Context, userID string) (int, error)
	UseOne(ctx context.Context, userID string) error
}

type voucherStore interface {
	Create(ctx context.Context, voucher model.Voucher) (string, error)
	ListByUser(ctx context.Context, userID string) ([]model.Voucher, error)
}

type Ledger struct {
	tokens   tokenStore
	vouchers voucherStore
}

func NewLedger(tokens tokenStore, vouchers voucherStore) *Ledger {
	return &Ledger{tokens: tokens, vouchers: vouchers}
}

// AvailableTokenCount returns the user's unused token balance, 0 on any
// store error.
func (l *Ledger) AvailableTokenCount(ctx context.Context, userID string) int {
	count, err := l.tokens.CountUnused(ctx, userID)
	if err != nil {
		log.Printf("WARN: failed to count tokens for user %s, reporting 0: %v", userID, err)
		return 0
	}
	return count
}

// UseToken consumes one unused token; which one is unspecified.
func (l *Ledger) UseToken(ctx context.Context, userID string) error {
	return l.tokens.UseOne(ctx, userID)
}

// IssueVoucher creates a voucher valid for 30 days.
func (l *Ledger) IssueVoucher(ctx context.Context, userID, voucherType string) (string, error) {
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, model.VoucherValidityDays)

	return l.vouchers.Create(ctx, model.Voucher{
		UserID:    userID,
		Type:      voucherType,
		ExpiresAt: &expires,
		CreatedAt: now,
	})
}

func (l *Ledger) Vouchers(ctx context.Context, userID string) ([]model.Voucher, error) {
	return l.vouchers.ListByUser(ctx, userID)
}

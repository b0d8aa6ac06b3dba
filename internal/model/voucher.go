package model

import (
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
)

const (
	// VoucherTypeRM5Off is the only discount type in circulation: a fixed
	// RM5 off one payment.
	VoucherTypeRM5Off   = "rm5_off"
	RM5DiscountAmount   = 5.0
	VoucherValidityDays = 30
)

type Voucher struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Used      bool       `json:"used"`
	OrderID   string     `json:"order_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Valid reports whether the voucher can still be applied: unused and, when an
// expiry is set, not yet expired.
func (v Voucher) Valid(now time.Time) bool {
	if v.Used {
		return false
	}
	if v.ExpiresAt == nil {
		return true
	}
	return v.ExpiresAt.After(now)
}

func VoucherFromDoc(doc docstore.Doc) Voucher {
	typ := asString(doc.Data["type"])
	if typ == "" {
		typ = VoucherTypeRM5Off
	}

	v := Voucher{
		ID:      doc.ID,
		UserID:  asString(doc.Data["user_id"]),
		Type:    typ,
		Used:    asBool(doc.Data["used"]),
		OrderID: asString(doc.Data["order_id"]),
	}
	if expires, ok := asTime(doc.Data["expires_at"]); ok {
		v.ExpiresAt = &expires
	}
	if created, ok := asTime(doc.Data["created_at"]); ok {
		v.CreatedAt = created
	}
	return v
}

func (v Voucher) Data() map[string]interface{} {
	data := map[string]interface{}{
		"user_id":    v.UserID,
		"type":       v.Type,
		"used":       v.Used,
		"created_at": v.CreatedAt,
	}
	if v.OrderID != "" {
		data["order_id"] = v.OrderID
	}
	if v.ExpiresAt != nil {
		data["expires_at"] = *v.ExpiresAt
	}
	return data
}

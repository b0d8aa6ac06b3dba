package model

import (
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type Payment struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

func PaymentFromDoc(doc docstore.Doc) Payment {
	status := asString(doc.Data["status"])
	if status == "" {
		status = PaymentStatusPending
	}

	p := Payment{
		ID:            doc.ID,
		OrderID:       asString(doc.Data["order_id"]),
		Amount:        asFloat(doc.Data["amount"]),
		Status:        status,
		PaymentMethod: asString(doc.Data["payment_method"]),
		TransactionID: asString(doc.Data["transaction_id"]),
	}
	if paidAt, ok := asTime(doc.Data["paid_at"]); ok {
		p.PaidAt = &paidAt
	}
	return p
}

func (p Payment) Data() map[string]interface{} {
	data := map[string]interface{}{
		"order_id": p.OrderID,
		"amount":   p.Amount,
		"status":   p.Status,
	}
	if p.PaymentMethod != "" {
		data["payment_method"] = p.PaymentMethod
	}
	if p.TransactionID != "" {
		data["transaction_id"] = p.TransactionID
	}
	if p.PaidAt != nil {
		data["paid_at"] = *p.PaidAt
	}
	return data
}

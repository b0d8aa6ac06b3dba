package model

import (
	"time"

	"github.com/171k/ICT602-Laundroyale/internal/docstore"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	// Booking duration bounds, inclusive.
	MinBookingDuration = 30 * time.Minute
	MaxBookingDuration = 180 * time.Minute
)

type Order struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MachineID   string    `json:"machine_id"`
	MachineName string    `json:"machine_name"`
	Temperature string    `json:"temperature"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	// HasSlot is false when the stored document is missing a timestamp;
	// such orders never count as schedule conflicts.
	HasSlot     bool      `json:"-"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	PaymentID   string    `json:"payment_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Overlaps reports a half-open interval conflict between the order's slot and
// [start, end).
func (o Order) Overlaps(start, end time.Time) bool {
	if !o.HasSlot {
		return false
	}
	return start.Before(o.EndTime) && o.StartTime.Before(end)
}

// StatusForStart returns the status a freshly confirmed order should carry:
// pending while the slot is still in the future, active once it has begun.
func StatusForStart(start, now time.Time) string {
	if start.After(now) {
		return OrderStatusPending
	}
	return OrderStatusActive
}

func OrderFromDoc(doc docstore.Doc) Order {
	start, startOK := asTime(doc.Data["start_time"])
	end, endOK := asTime(doc.Data["end_time"])
	created, _ := asTime(doc.Data["created_at"])

	status := asString(doc.Data["status"])
	if status == "" {
		status = OrderStatusPending
	}

	return Order{
		ID:          doc.ID,
		UserID:      asString(doc.Data["user_id"]),
		MachineID:   asString(doc.Data["machine_id"]),
		MachineName: asString(doc.Data["machine_name"]),
		Temperature: asString(doc.Data["temperature"]),
		StartTime:   start,
		EndTime:     end,
		HasSlot:     startOK && endOK,
		Status:      status,
		TotalAmount: asFloat(doc.Data["total_amount"]),
		PaymentID:   asString(doc.Data["payment_id"]),
		CreatedAt:   created,
	}
}

func (o Order) Data() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      o.UserID,
		"machine_id":   o.MachineID,
		"machine_name": o.MachineName,
		"temperature":  o.Temperature,
		"start_time":   o.StartTime,
		"end_time":     o.EndTime,
		"status":       o.Status,
		"total_amount": o.TotalAmount,
		"payment_id":   o.PaymentID,
		"created_at":   o.CreatedAt,
	}
}

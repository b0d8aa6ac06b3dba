package model

import "github.com/171k/ICT602-Laundroyale/internal/docstore"

const (
	MachineTypeWasher = "washer"
	MachineTypeDryer  = "dryer"

	MachineStatusAvailable   = "available"
	MachineStatusMaintenance = "maintenance"
	MachineStatusUnavailable = "unavailable"
)

type Machine struct {
	ID     string  `json:"id"`
	Name   string  `json:"machine_name"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

func (m Machine) Bookable() bool {
	return m.Status == MachineStatusAvailable
}

func MachineFromDoc(doc docstore.Doc) Machine {
	status := asString(doc.Data["status"])
	if status == "" {
		status = MachineStatusAvailable
	}
	return Machine{
		ID:     doc.ID,
		Name:   asString(doc.Data["machine_name"]),
		Type:   asString(doc.Data["type"]),
		Price:  asFloat(doc.Data["price"]),
		Status: status,
	}
}

func (m Machine) Data() map[string]interface{} {
	return map[string]interface{}{
		"machine_name": m.Name,
		"type":         m.Type,
		"price":        m.Price,
		"status":       m.Status,
	}
}

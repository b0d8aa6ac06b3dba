package model

import "github.com/171k/ICT602-Laundroyale/internal/docstore"

// Token is the reward minted once per settled payment.
type Token struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id,omitempty"`
	Used    bool   `json:"used"`
}

func TokenFromDoc(doc docstore.Doc) Token {
	return Token{
		ID:      doc.ID,
		UserID:  asString(doc.Data["user_id"]),
		OrderID: asString(doc.Data["order_id"]),
		Used:    asBool(doc.Data["used"]),
	}
}

func (t Token) Data() map[string]interface{} {
	data := map[string]interface{}{
		"user_id": t.UserID,
		"used":    t.Used,
	}
	if t.OrderID != "" {
		data["order_id"] = t.OrderID
	}
	return data
}

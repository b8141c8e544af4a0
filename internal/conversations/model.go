// Package conversations implements the reportback conversation flow: a
// per-(phone, campaign) record collects a photo, caption, quantity and
// motivation over successive inbound messages, and a completion sequence
// submits the finished reportback to the content system.
package conversations

import (
	"time"

	"github.com/google/uuid"
)

// Record is the durable state of one reportback conversation. Progress is
// never stored; it is derived from which fields are filled (see DeriveState).
type Record struct {
	ID           uuid.UUID `json:"id"`
	Phone        string    `json:"phone"`
	Campaign     string    `json:"campaign"`
	PhotoURL     string    `json:"photoUrl"`
	Caption      string    `json:"caption"`
	Quantity     string    `json:"quantity"`
	WhyImportant string    `json:"whyImportant"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

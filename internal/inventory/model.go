package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a collectible granted to an account by the case-opening system.
// This service only reads items; granting and spending them happens elsewhere.
type Item struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Name       string          `json:"name"`
	Rarity     string          `json:"rarity"`
	Value      decimal.Decimal `json:"value"`
	Image      string          `json:"image,omitempty"`
	ObtainedAt time.Time       `json:"obtained_at"`
}

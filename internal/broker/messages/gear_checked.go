package messages

import (
	"time"

	"github.com/BearBump/GearCheck/internal/models"
)

// GearChecked публикуется после каждой проверки снаряжения, удачной или нет.
type GearChecked struct {
	GearID    string    `json:"gear_id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	CheckedAt time.Time `json:"checked_at"`

	Enriched bool   `json:"enriched"`
	Status   string `json:"status"`

	HazardType     string `json:"hazard_type,omitempty"`
	ConditionScore *int   `json:"condition_score,omitempty"`
	ExpiryYear     *int   `json:"expiry_year,omitempty"`
}

// NewGearChecked собирает событие из элемента после проверки.
// enriched == false значит, что ИИ не ответил и элемент остался прежним.
func NewGearChecked(item models.GearItem, checkedAt time.Time, enriched bool) GearChecked {
	msg := GearChecked{
		GearID:         item.ID,
		Name:           item.Name,
		Brand:          item.Brand,
		Model:          item.Model,
		CheckedAt:      checkedAt,
		Enriched:       enriched,
		Status:         item.Status,
		ConditionScore: item.ConditionScore,
		ExpiryYear:     item.ExpiryYear,
	}
	if item.RecallInfo != nil {
		msg.HazardType = item.RecallInfo.HazardType
	}
	return msg
}

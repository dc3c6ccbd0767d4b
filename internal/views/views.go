// Package views holds pure read-side computations over an inventory snapshot.
// Nothing here is cached: callers recompute on every store change.
package views

import (
	"time"

	"github.com/BearBump/GearCheck/internal/models"
)

const (
	// HighDangerConditionBelow и ReminderConditionBelow намеренно разные.
	HighDangerConditionBelow = 50
	ReminderConditionBelow   = 60
)

func Stats(items []models.GearItem) models.InventoryStats {
	st := models.InventoryStats{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case models.RecallStatusSafe:
			st.Safe++
		case models.RecallStatusWarning, models.RecallStatusRecalled:
			st.Alerts++
		case models.RecallStatusUnknown:
			st.Unknown++
		}
	}
	return st
}

// HighDangerItems: статус recalled/warning ИЛИ оценка состояния < 50.
func HighDangerItems(items []models.GearItem) []models.GearItem {
	out := []models.GearItem{}
	for _, it := range items {
		alert := it.Status == models.RecallStatusRecalled || it.Status == models.RecallStatusWarning
		worn := it.ConditionScore != nil && *it.ConditionScore < HighDangerConditionBelow
		if alert || worn {
			out = append(out, it)
		}
	}
	return out
}

// Reminders: срок службы истёк (год <= текущего) ИЛИ оценка состояния < 60.
func Reminders(items []models.GearItem, now time.Time) []models.GearItem {
	year := now.Year()
	out := []models.GearItem{}
	for _, it := range items {
		expired := it.ExpiryYear != nil && *it.ExpiryYear <= year
		worn := it.ConditionScore != nil && *it.ConditionScore < ReminderConditionBelow
		if expired || worn {
			out = append(out, it)
		}
	}
	return out
}

package enrichment

import (
	"context"

	"github.com/BearBump/GearCheck/internal/models"
)

type InspectionDetails struct {
	ExpiryYear *int
	Tasks      []string
	WeakPoints []string
}

type ConditionResult struct {
	Score int
	Label string
}

// Client — внешний ИИ-сервис. Любая ошибка считается "обогащение недоступно".
type Client interface {
	CheckRecall(ctx context.Context, item models.GearItem) (models.RecallResult, error)
	GetInspectionDetails(ctx context.Context, item models.GearItem) (InspectionDetails, error)
	AnalyzeCondition(ctx context.Context, item models.GearItem) (ConditionResult, error)
	AssessImmediateSafety(ctx context.Context, item models.GearItem, trip models.TripContext) (string, error)
	AnalyzeLoadout(ctx context.Context, items []models.GearItem, trip models.TripContext) (models.LoadoutAnalysis, error)
	GetRecentRecalls(ctx context.Context) ([]models.RecentRecall, error)
	GetRecallStats(ctx context.Context) (models.RecallStats, error)
}

// ConditionLabel переводит оценку 0..100 в подпись, если провайдер её не вернул.
func ConditionLabel(score int) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 30:
		return "Worn"
	default:
		return "Retire"
	}
}

// ClampScore держит оценку в диапазоне 0..100.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

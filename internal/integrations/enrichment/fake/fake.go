package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/GearCheck/internal/integrations/enrichment"
	"github.com/BearBump/GearCheck/internal/models"
)

// FakeClient — детерминированный "ИИ" без сети: результат зависит только от
// (brand, model, name). Используется в тестах и в офлайн-режиме (ai_mode: fake).
type FakeClient struct {
	now func() time.Time
}

func New() *FakeClient { return &FakeClient{now: func() time.Time { return time.Now().UTC() }} }

func hashOf(item models.GearItem) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(item.Brand)))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(strings.ToLower(item.Model)))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(strings.ToLower(item.Name)))
	return h.Sum32()
}

func (f *FakeClient) CheckRecall(ctx context.Context, item models.GearItem) (models.RecallResult, error) {
	v := hashOf(item)

	// ~10% отозвано, ~10% с предупреждением, остальное безопасно
	res := models.RecallResult{
		Status:      models.RecallStatusSafe,
		Summary:     fmt.Sprintf("No active recalls found for %s %s.", item.Brand, item.Model),
		LastChecked: f.now(),
	}
	switch v % 10 {
	case 0:
		res.Status = models.RecallStatusRecalled
		res.Summary = fmt.Sprintf("%s %s is subject to a manufacturer recall.", item.Brand, item.Model)
		res.HazardReason = "Component may fail under load."
		res.HazardType = "structural"
		res.AffectedRegion = item.Region
		res.ActionSteps = []string{"Stop using the product immediately.", "Contact the manufacturer for a replacement."}
		res.Sources = []models.Source{{Title: "Fake recall registry", URI: "https://example.invalid/recalls/" + strconv.FormatUint(uint64(v), 16)}}
	case 1:
		res.Status = models.RecallStatusWarning
		res.Summary = fmt.Sprintf("Safety notice issued for some %s %s batches.", item.Brand, item.Model)
		res.HazardReason = "Possible premature wear."
		res.HazardType = "wear"
		res.AffectedRegion = item.Region
		res.ActionSteps = []string{"Inspect before each use."}
	}
	return res, nil
}

func (f *FakeClient) GetInspectionDetails(ctx context.Context, item models.GearItem) (enrichment.InspectionDetails, error) {
	v := hashOf(item)
	base := purchaseYear(item.PurchaseDate, f.now().Year())
	expiry := base + 5 + int(v%6)
	return enrichment.InspectionDetails{
		ExpiryYear: &expiry,
		Tasks: []string{
			fmt.Sprintf("Inspect %s for visible damage.", strings.ToLower(item.Name)),
			"Check stitching and load-bearing points.",
		},
		WeakPoints: []string{"Load-bearing seams"},
	}, nil
}

func (f *FakeClient) AnalyzeCondition(ctx context.Context, item models.GearItem) (enrichment.ConditionResult, error) {
	v := hashOf(item)
	age := f.now().Year() - purchaseYear(item.PurchaseDate, f.now().Year())
	if age < 0 {
		age = 0
	}
	score := enrichment.ClampScore(100 - age*8 - int(v%15))
	return enrichment.ConditionResult{Score: score, Label: enrichment.ConditionLabel(score)}, nil
}

func (f *FakeClient) AssessImmediateSafety(ctx context.Context, item models.GearItem, trip models.TripContext) (string, error) {
	if item.Status == models.RecallStatusRecalled {
		return fmt.Sprintf("Do not take %s on a %s trip: it is recalled.", item.Name, trip.TripType), nil
	}
	return fmt.Sprintf("%s looks fine for a %s trip. Inspect before use.", item.Name, trip.TripType), nil
}

func (f *FakeClient) AnalyzeLoadout(ctx context.Context, items []models.GearItem, trip models.TripContext) (models.LoadoutAnalysis, error) {
	have := map[string]bool{}
	var flags []string
	for _, it := range items {
		have[it.Category] = true
		if it.Status == models.RecallStatusRecalled || it.Status == models.RecallStatusWarning {
			flags = append(flags, fmt.Sprintf("%s has status %s.", it.Name, it.Status))
		}
	}
	missing := []string{}
	for _, c := range []string{models.CategorySafety, models.CategoryHiking} {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	if flags == nil {
		flags = []string{}
	}
	risk := "low"
	if len(flags) > 0 {
		risk = "high"
	} else if len(missing) > 0 {
		risk = "medium"
	}
	return models.LoadoutAnalysis{
		Summary:           fmt.Sprintf("%d items analyzed for a %s trip.", len(items), trip.TripType),
		RiskLevel:         risk,
		MissingCategories: missing,
		RedFlags:          flags,
		Suggestions:       []string{"Pack a first-aid kit."},
		AnalyzedAt:        f.now(),
	}, nil
}

func (f *FakeClient) GetRecentRecalls(ctx context.Context) ([]models.RecentRecall, error) {
	return []models.RecentRecall{
		{Product: "Trail Stove 2", Brand: "Acme", Date: "2025-03-01", Hazard: "fire", Region: models.RegionUS},
		{Product: "Lock Carabiner", Brand: "Summit", Date: "2025-01-15", Hazard: "gate failure", Region: models.RegionEU},
	}, nil
}

func (f *FakeClient) GetRecallStats(ctx context.Context) (models.RecallStats, error) {
	return models.RecallStats{
		HazardBreakdown: []models.HazardShare{
			{Hazard: "structural", Percent: 45},
			{Hazard: "fire", Percent: 30},
			{Hazard: "other", Percent: 25},
		},
		HighRiskCategory: models.CategoryClimbing,
	}, nil
}

// purchaseYear вытаскивает год из "2019" или "2019-05-01"; иначе возвращает fallback.
func purchaseYear(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y
		}
	}
	return fallback
}

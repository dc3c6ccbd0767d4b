package models

import "time"

// Статусы отзыва (recall) снаряжения.
const (
	RecallStatusUnknown  = "unknown"
	RecallStatusSafe     = "safe"
	RecallStatusWarning  = "warning"
	RecallStatusRecalled = "recalled"
)

const (
	CategoryClimbing = "climbing"
	CategoryCamping  = "camping"
	CategoryHiking   = "hiking"
	CategoryWater    = "water"
	CategoryWinter   = "winter"
	CategoryCycling  = "cycling"
	CategorySafety   = "safety"
	CategoryOther    = "other"
)

const (
	RegionUS     = "US"
	RegionEU     = "EU"
	RegionUK     = "UK"
	RegionCA     = "CA"
	RegionAU     = "AU"
	RegionGlobal = "GLOBAL"
)

var categories = map[string]struct{}{
	CategoryClimbing: {}, CategoryCamping: {}, CategoryHiking: {}, CategoryWater: {},
	CategoryWinter: {}, CategoryCycling: {}, CategorySafety: {}, CategoryOther: {},
}

var regions = map[string]struct{}{
	RegionUS: {}, RegionEU: {}, RegionUK: {}, RegionCA: {}, RegionAU: {}, RegionGlobal: {},
}

func IsValidCategory(c string) bool {
	_, ok := categories[c]
	return ok
}

func IsValidRegion(r string) bool {
	_, ok := regions[r]
	return ok
}

func IsValidRecallStatus(s string) bool {
	switch s {
	case RecallStatusUnknown, RecallStatusSafe, RecallStatusWarning, RecallStatusRecalled:
		return true
	}
	return false
}

type Source struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

type RecallResult struct {
	Status         string    `json:"status" yaml:"status"`
	Summary        string    `json:"summary" yaml:"summary"`
	HazardReason   string    `json:"hazardReason,omitempty" yaml:"hazard_reason,omitempty"`
	HazardType     string    `json:"hazardType,omitempty" yaml:"hazard_type,omitempty"`
	AffectedRegion string    `json:"affectedRegion,omitempty" yaml:"affected_region,omitempty"`
	ActionSteps    []string  `json:"actionSteps,omitempty" yaml:"action_steps,omitempty"`
	Sources        []Source  `json:"sources,omitempty" yaml:"sources,omitempty"`
	LastChecked    time.Time `json:"lastChecked" yaml:"last_checked"`
}

type InspectionTask struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

// GearItem — единица снаряжения. Поля после Notes заполняются обогащением.
type GearItem struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Brand        string `json:"brand" yaml:"brand"`
	Model        string `json:"model" yaml:"model"`
	Category     string `json:"category" yaml:"category"`
	PurchaseDate string `json:"purchaseDate" yaml:"purchase_date"`
	Region       string `json:"region" yaml:"region"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty" yaml:"serial_number,omitempty"`

	Status          string           `json:"status" yaml:"status"`
	RecallInfo      *RecallResult    `json:"recallInfo,omitempty" yaml:"recall_info,omitempty"`
	ExpiryYear      *int             `json:"expiryYear,omitempty" yaml:"expiry_year,omitempty"`
	InspectionTasks []InspectionTask `json:"inspectionTasks,omitempty" yaml:"inspection_tasks,omitempty"`
	InspectionDue   bool             `json:"inspectionDue" yaml:"inspection_due"`
	ConditionScore  *int             `json:"conditionScore,omitempty" yaml:"condition_score,omitempty"`
	ConditionLabel  string           `json:"conditionLabel,omitempty" yaml:"condition_label,omitempty"`
	WeakPoints      []string         `json:"weakPoints,omitempty" yaml:"weak_points,omitempty"`
	InLoadout       bool             `json:"inLoadout" yaml:"in_loadout"`
}

type GearCreateInput struct {
	Name         string
	Brand        string
	Model        string
	Category     string
	PurchaseDate string
	Region       string
	Notes        string
	SerialNumber string
}

// Enrichment — патч, который получается из трёх успешных вызовов ИИ.
type Enrichment struct {
	Recall          RecallResult
	ExpiryYear      *int
	InspectionTasks []InspectionTask
	WeakPoints      []string
	ConditionScore  int
	ConditionLabel  string
}

// WithEnrichment возвращает копию с применённым патчем; исходный элемент не меняется.
func (g GearItem) WithEnrichment(e Enrichment) GearItem {
	out := g.Clone()
	status := e.Recall.Status
	if !IsValidRecallStatus(status) {
		status = RecallStatusUnknown
	}
	out.Status = status
	recall := e.Recall
	recall.Status = status
	recall.ActionSteps = cloneStrings(recall.ActionSteps)
	if recall.Sources != nil {
		recall.Sources = append([]Source(nil), recall.Sources...)
	}
	out.RecallInfo = &recall
	out.ExpiryYear = cloneInt(e.ExpiryYear)
	out.InspectionTasks = append([]InspectionTask(nil), e.InspectionTasks...)
	out.WeakPoints = cloneStrings(e.WeakPoints)
	score := e.ConditionScore
	out.ConditionScore = &score
	out.ConditionLabel = e.ConditionLabel
	out.InspectionDue = true
	return out
}

// SameProduct сообщает, описывают ли два элемента один и тот же продукт.
// Результат проверки отзывов привязан именно к name/brand/model.
func (g GearItem) SameProduct(o GearItem) bool {
	return g.Name == o.Name && g.Brand == o.Brand && g.Model == o.Model
}

// Clone делает глубокую копию, чтобы снимки стора не делили слайсы и указатели.
func (g GearItem) Clone() GearItem {
	out := g
	if g.RecallInfo != nil {
		r := *g.RecallInfo
		r.ActionSteps = cloneStrings(r.ActionSteps)
		if r.Sources != nil {
			r.Sources = append([]Source(nil), r.Sources...)
		}
		out.RecallInfo = &r
	}
	out.ExpiryYear = cloneInt(g.ExpiryYear)
	out.ConditionScore = cloneInt(g.ConditionScore)
	if g.InspectionTasks != nil {
		out.InspectionTasks = append([]InspectionTask(nil), g.InspectionTasks...)
	}
	out.WeakPoints = cloneStrings(g.WeakPoints)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func IntPtr(v int) *int { return &v }

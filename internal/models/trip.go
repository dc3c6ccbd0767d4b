package models

import "time"

const DefaultTripType = "day-hike"

type TripContext struct {
	TripType   string   `json:"tripType"`
	Conditions []string `json:"conditions"`
}

func DefaultTripContext() TripContext {
	return TripContext{TripType: DefaultTripType, Conditions: []string{}}
}

type LoadoutAnalysis struct {
	Summary           string    `json:"summary"`
	RiskLevel         string    `json:"riskLevel"`
	MissingCategories []string  `json:"missingCategories"`
	RedFlags          []string  `json:"redFlags"`
	Suggestions       []string  `json:"suggestions"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

type RecentRecall struct {
	Product string `json:"product"`
	Brand   string `json:"brand"`
	Date    string `json:"date"`
	Hazard  string `json:"hazard"`
	Region  string `json:"region"`
}

type HazardShare struct {
	Hazard  string `json:"hazard"`
	Percent int    `json:"percent"`
}

type RecallStats struct {
	HazardBreakdown  []HazardShare `json:"hazardBreakdown"`
	HighRiskCategory string        `json:"highRiskCategory"`
}

type InventoryStats struct {
	Total   int `json:"total"`
	Safe    int `json:"safe"`
	Alerts  int `json:"alerts"`
	Unknown int `json:"unknown"`
}

package proxyhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/GearCheck/internal/integrations/enrichment"
	"github.com/BearBump/GearCheck/internal/models"
	"github.com/pkg/errors"
)

// ErrRateLimited возвращается на HTTP 429 от шлюза.
var ErrRateLimited = errors.New("enrichment gateway rate limit (429)")

// Client ходит в JSON-шлюз обогащения, который сам держит ключи провайдера.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type gearBody struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	PurchaseDate string `json:"purchase_date"`
	Region       string `json:"region"`
	Notes        string `json:"notes,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Status       string `json:"status,omitempty"`
}

type tripBody struct {
	TripType   string   `json:"trip_type"`
	Conditions []string `json:"conditions"`
}

type recallResp struct {
	Status         string   `json:"status"`
	Summary        string   `json:"summary"`
	HazardReason   string   `json:"hazard_reason"`
	HazardType     string   `json:"hazard_type"`
	AffectedRegion string   `json:"affected_region"`
	ActionSteps    []string `json:"action_steps"`
	Sources        []struct {
		Title string `json:"title"`
		URI   string `json:"uri"`
	} `json:"sources"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

type inspectionResp struct {
	ExpiryYear *int     `json:"expiry_year,omitempty"`
	Tasks      []string `json:"tasks"`
	WeakPoints []string `json:"weak_points"`
}

type conditionResp struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

type verdictResp struct {
	Verdict string `json:"verdict"`
}

type loadoutResp struct {
	Summary           string   `json:"summary"`
	RiskLevel         string   `json:"risk_level"`
	MissingCategories []string `json:"missing_categories"`
	RedFlags          []string `json:"red_flags"`
	Suggestions       []string `json:"suggestions"`
}

type recentRecallResp struct {
	Product string `json:"product"`
	Brand   string `json:"brand"`
	Date    string `json:"date"`
	Hazard  string `json:"hazard"`
	Region  string `json:"region"`
}

type statsResp struct {
	HazardBreakdown []struct {
		Hazard  string `json:"hazard"`
		Percent int    `json:"percent"`
	} `json:"hazard_breakdown"`
	HighRiskCategory string `json:"high_risk_category"`
}

func toGearBody(it models.GearItem) gearBody {
	return gearBody{
		ID: it.ID, Name: it.Name, Brand: it.Brand, Model: it.Model, Category: it.Category,
		PurchaseDate: it.PurchaseDate, Region: it.Region, Notes: it.Notes,
		SerialNumber: it.SerialNumber, Status: it.Status,
	}
}

func toTripBody(t models.TripContext) tripBody {
	conds := t.Conditions
	if conds == nil {
		conds = []string{}
	}
	return tripBody{TripType: t.TripType, Conditions: conds}
}

func (c *Client) CheckRecall(ctx context.Context, item models.GearItem) (models.RecallResult, error) {
	var rb recallResp
	if err := c.do(ctx, http.MethodPost, "/v1/recall", toGearBody(item), &rb); err != nil {
		return models.RecallResult{}, err
	}
	status := rb.Status
	if status == "" {
		status = models.RecallStatusUnknown
	}
	checked := time.Now().UTC()
	if rb.CheckedAt != nil {
		checked = rb.CheckedAt.UTC()
	}
	res := models.RecallResult{
		Status:         status,
		Summary:        rb.Summary,
		HazardReason:   rb.HazardReason,
		HazardType:     rb.HazardType,
		AffectedRegion: rb.AffectedRegion,
		ActionSteps:    rb.ActionSteps,
		LastChecked:    checked,
	}
	for _, s := range rb.Sources {
		res.Sources = append(res.Sources, models.Source{Title: s.Title, URI: s.URI})
	}
	return res, nil
}

func (c *Client) GetInspectionDetails(ctx context.Context, item models.GearItem) (enrichment.InspectionDetails, error) {
	var rb inspectionResp
	if err := c.do(ctx, http.MethodPost, "/v1/inspection", toGearBody(item), &rb); err != nil {
		return enrichment.InspectionDetails{}, err
	}
	return enrichment.InspectionDetails{ExpiryYear: rb.ExpiryYear, Tasks: rb.Tasks, WeakPoints: rb.WeakPoints}, nil
}

func (c *Client) AnalyzeCondition(ctx context.Context, item models.GearItem) (enrichment.ConditionResult, error) {
	var rb conditionResp
	if err := c.do(ctx, http.MethodPost, "/v1/condition", toGearBody(item), &rb); err != nil {
		return enrichment.ConditionResult{}, err
	}
	score := enrichment.ClampScore(rb.Score)
	label := rb.Label
	if label == "" {
		label = enrichment.ConditionLabel(score)
	}
	return enrichment.ConditionResult{Score: score, Label: label}, nil
}

func (c *Client) AssessImmediateSafety(ctx context.Context, item models.GearItem, trip models.TripContext) (string, error) {
	body := struct {
		Gear gearBody `json:"gear"`
		Trip tripBody `json:"trip"`
	}{toGearBody(item), toTripBody(trip)}

	var rb verdictResp
	if err := c.do(ctx, http.MethodPost, "/v1/verdict", body, &rb); err != nil {
		return "", err
	}
	if rb.Verdict == "" {
		return "", errors.New("empty verdict")
	}
	return rb.Verdict, nil
}

func (c *Client) AnalyzeLoadout(ctx context.Context, items []models.GearItem, trip models.TripContext) (models.LoadoutAnalysis, error) {
	gear := make([]gearBody, 0, len(items))
	for _, it := range items {
		gear = append(gear, toGearBody(it))
	}
	body := struct {
		Gear []gearBody `json:"gear"`
		Trip tripBody   `json:"trip"`
	}{gear, toTripBody(trip)}

	var rb loadoutResp
	if err := c.do(ctx, http.MethodPost, "/v1/loadout", body, &rb); err != nil {
		return models.LoadoutAnalysis{}, err
	}
	return models.LoadoutAnalysis{
		Summary:           rb.Summary,
		RiskLevel:         rb.RiskLevel,
		MissingCategories: nonNil(rb.MissingCategories),
		RedFlags:          nonNil(rb.RedFlags),
		Suggestions:       nonNil(rb.Suggestions),
		AnalyzedAt:        time.Now().UTC(),
	}, nil
}

func (c *Client) GetRecentRecalls(ctx context.Context) ([]models.RecentRecall, error) {
	var rb []recentRecallResp
	if err := c.do(ctx, http.MethodGet, "/v1/recalls/recent", nil, &rb); err != nil {
		return nil, err
	}
	out := make([]models.RecentRecall, 0, len(rb))
	for _, r := range rb {
		out = append(out, models.RecentRecall{Product: r.Product, Brand: r.Brand, Date: r.Date, Hazard: r.Hazard, Region: r.Region})
	}
	return out, nil
}

func (c *Client) GetRecallStats(ctx context.Context) (models.RecallStats, error) {
	var rb statsResp
	if err := c.do(ctx, http.MethodGet, "/v1/recalls/stats", nil, &rb); err != nil {
		return models.RecallStats{}, err
	}
	out := models.RecallStats{HighRiskCategory: rb.HighRiskCategory, HazardBreakdown: []models.HazardShare{}}
	for _, h := range rb.HazardBreakdown {
		out.HazardBreakdown = append(out.HazardBreakdown, models.HazardShare{Hazard: h.Hazard, Percent: h.Percent})
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = path

	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("enrichment gateway http %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

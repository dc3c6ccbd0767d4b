package genaiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/GearCheck/internal/integrations/enrichment"
	"github.com/BearBump/GearCheck/internal/models"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Client — живой клиент обогащения поверх Gemini API.
type Client struct {
	models generator
	model  string

	rl                 RateLimiter
	rateLimitPerMinute int64

	now func() time.Time
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("genai api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return newWithGenerator(gc.Models, model), nil
}

func newWithGenerator(g generator, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		models: g,
		model:  model,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithRateLimit включает общий поминутный лимит запросов к провайдеру.
func (c *Client) WithRateLimit(rl RateLimiter, perMinute int64) *Client {
	if rl != nil && perMinute > 0 {
		c.rl = rl
		c.rateLimitPerMinute = perMinute
	}
	return c
}

func describe(it models.GearItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s %s (%s)\n", it.Brand, it.Model, it.Name)
	fmt.Fprintf(&b, "Category: %s\nPurchased: %s\nRegion: %s\n", it.Category, it.PurchaseDate, it.Region)
	if it.SerialNumber != "" {
		fmt.Fprintf(&b, "Serial number: %s\n", it.SerialNumber)
	}
	if it.Notes != "" {
		fmt.Fprintf(&b, "Owner notes: %s\n", it.Notes)
	}
	return b.String()
}

func describeTrip(t models.TripContext) string {
	conds := "none"
	if len(t.Conditions) > 0 {
		conds = strings.Join(t.Conditions, ", ")
	}
	return fmt.Sprintf("Trip type: %s\nConditions: %s\n", t.TripType, conds)
}

type recallJSON struct {
	Status         string   `json:"status"`
	Summary        string   `json:"summary"`
	HazardReason   string   `json:"hazardReason"`
	HazardType     string   `json:"hazardType"`
	AffectedRegion string   `json:"affectedRegion"`
	ActionSteps    []string `json:"actionSteps"`
}

func (c *Client) CheckRecall(ctx context.Context, item models.GearItem) (models.RecallResult, error) {
	prompt := "Search official recall databases and manufacturer notices for safety recalls of this outdoor gear.\n" +
		describe(item) +
		`Answer with a single JSON object: {"status": "safe"|"warning"|"recalled", "summary": string, ` +
		`"hazardReason": string, "hazardType": string, "affectedRegion": string, "actionSteps": [string]}.`

	// Поиск Google нельзя совмещать с JSON-схемой, поэтому JSON достаём из текста.
	resp, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return models.RecallResult{}, err
	}

	var rj recallJSON
	if err := decodeJSON(responseText(resp), &rj); err != nil {
		return models.RecallResult{}, err
	}
	status := strings.ToLower(strings.TrimSpace(rj.Status))
	if !models.IsValidRecallStatus(status) {
		status = models.RecallStatusUnknown
	}
	return models.RecallResult{
		Status:         status,
		Summary:        rj.Summary,
		HazardReason:   rj.HazardReason,
		HazardType:     rj.HazardType,
		AffectedRegion: rj.AffectedRegion,
		ActionSteps:    rj.ActionSteps,
		Sources:        groundingSources(resp),
		LastChecked:    c.now(),
	}, nil
}

var inspectionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"expiryYear": {Type: genai.TypeInteger},
		"tasks":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"weakPoints": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"tasks", "weakPoints"},
}

func (c *Client) GetInspectionDetails(ctx context.Context, item models.GearItem) (enrichment.InspectionDetails, error) {
	prompt := "Estimate the retirement year, list concrete inspection tasks and known weak points for this gear.\n" + describe(item)

	var out struct {
		ExpiryYear *int     `json:"expiryYear"`
		Tasks      []string `json:"tasks"`
		WeakPoints []string `json:"weakPoints"`
	}
	if err := c.generateJSON(ctx, prompt, inspectionSchema, &out); err != nil {
		return enrichment.InspectionDetails{}, err
	}
	return enrichment.InspectionDetails{ExpiryYear: out.ExpiryYear, Tasks: out.Tasks, WeakPoints: out.WeakPoints}, nil
}

var conditionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score": {Type: genai.TypeInteger},
		"label": {Type: genai.TypeString},
	},
	Required: []string{"score", "label"},
}

func (c *Client) AnalyzeCondition(ctx context.Context, item models.GearItem) (enrichment.ConditionResult, error) {
	prompt := "Score the likely condition of this gear from 0 (unsafe) to 100 (new) based on age and type, with a short label.\n" + describe(item)

	var out struct {
		Score int    `json:"score"`
		Label string `json:"label"`
	}
	if err := c.generateJSON(ctx, prompt, conditionSchema, &out); err != nil {
		return enrichment.ConditionResult{}, err
	}
	score := enrichment.ClampScore(out.Score)
	label := out.Label
	if label == "" {
		label = enrichment.ConditionLabel(score)
	}
	return enrichment.ConditionResult{Score: score, Label: label}, nil
}

func (c *Client) AssessImmediateSafety(ctx context.Context, item models.GearItem, trip models.TripContext) (string, error) {
	prompt := "In two sentences, say whether this gear is safe to take on the trip below and what to check first.\n" +
		describe(item) + "Known recall status: " + item.Status + "\n" + describeTrip(trip)

	resp, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", errors.New("empty verdict")
	}
	return text, nil
}

var loadoutSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":           {Type: genai.TypeString},
		"riskLevel":         {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
		"missingCategories": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"redFlags":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"suggestions":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"summary", "riskLevel", "missingCategories", "redFlags", "suggestions"},
}

func (c *Client) AnalyzeLoadout(ctx context.Context, items []models.GearItem, trip models.TripContext) (models.LoadoutAnalysis, error) {
	var b strings.Builder
	b.WriteString("Review this packed loadout for the trip. Report missing gear categories, red flags and suggestions.\n")
	b.WriteString(describeTrip(trip))
	for i, it := range items {
		fmt.Fprintf(&b, "--- Item %d ---\n%sStatus: %s\n", i+1, describe(it), it.Status)
		if it.ConditionScore != nil {
			fmt.Fprintf(&b, "Condition score: %d\n", *it.ConditionScore)
		}
	}

	var out struct {
		Summary           string   `json:"summary"`
		RiskLevel         string   `json:"riskLevel"`
		MissingCategories []string `json:"missingCategories"`
		RedFlags          []string `json:"redFlags"`
		Suggestions       []string `json:"suggestions"`
	}
	if err := c.generateJSON(ctx, b.String(), loadoutSchema, &out); err != nil {
		return models.LoadoutAnalysis{}, err
	}
	return models.LoadoutAnalysis{
		Summary:           out.Summary,
		RiskLevel:         out.RiskLevel,
		MissingCategories: nonNil(out.MissingCategories),
		RedFlags:          nonNil(out.RedFlags),
		Suggestions:       nonNil(out.Suggestions),
		AnalyzedAt:        c.now(),
	}, nil
}

var recentRecallsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"product": {Type: genai.TypeString},
			"brand":   {Type: genai.TypeString},
			"date":    {Type: genai.TypeString},
			"hazard":  {Type: genai.TypeString},
			"region":  {Type: genai.TypeString},
		},
		Required: []string{"product", "brand", "date", "hazard"},
	},
}

func (c *Client) GetRecentRecalls(ctx context.Context) ([]models.RecentRecall, error) {
	prompt := "List up to 5 recent (last 12 months) safety recalls of outdoor, climbing or camping gear."
	var out []models.RecentRecall
	if err := c.generateJSON(ctx, prompt, recentRecallsSchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var recallStatsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"hazardBreakdown": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"hazard":  {Type: genai.TypeString},
					"percent": {Type: genai.TypeInteger},
				},
			},
		},
		"highRiskCategory": {Type: genai.TypeString},
	},
	Required: []string{"hazardBreakdown", "highRiskCategory"},
}

func (c *Client) GetRecallStats(ctx context.Context) (models.RecallStats, error) {
	prompt := "Summarize outdoor gear recalls of the last year: percentage breakdown by hazard type and the highest-risk gear category."
	var out models.RecallStats
	if err := c.generateJSON(ctx, prompt, recallStatsSchema, &out); err != nil {
		return models.RecallStats{}, err
	}
	if out.HazardBreakdown == nil {
		out.HazardBreakdown = []models.HazardShare{}
	}
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	resp, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return err
	}
	return decodeJSON(responseText(resp), out)
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "genai generate")
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("genai returned no candidates")
	}
	return resp, nil
}

func (c *Client) waitRateLimit(ctx context.Context) error {
	if c.rl == nil || c.rateLimitPerMinute <= 0 {
		return nil
	}
	key := fmt.Sprintf("rl:genai:%s:%s", c.model, c.now().Format("200601021504"))
	allowed, n, err := c.rl.Allow(ctx, key, c.rateLimitPerMinute, 70*time.Second)
	if err != nil {
		return err
	}
	if !allowed {
		// Лимит на минуту исчерпан: немного притормозим, но запрос всё равно отправим.
		slog.Warn("genai rate limit exceeded", "model", c.model, "count", n)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func groundingSources(resp *genai.GenerateContentResponse) []models.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []models.Source
	seen := map[string]struct{}{}
	for _, ch := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if ch == nil || ch.Web == nil || ch.Web.URI == "" {
			continue
		}
		if _, ok := seen[ch.Web.URI]; ok {
			continue
		}
		seen[ch.Web.URI] = struct{}{}
		out = append(out, models.Source{Title: ch.Web.Title, URI: ch.Web.URI})
	}
	return out
}

// decodeJSON терпит markdown-обёртку ```json ... ``` и текст вокруг объекта.
func decodeJSON(text string, out any) error {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if !json.Valid([]byte(s)) {
		start := strings.IndexAny(s, "{[")
		end := strings.LastIndexAny(s, "}]")
		if start < 0 || end <= start {
			return errors.New("no json in model response")
		}
		s = s[start : end+1]
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return errors.Wrap(err, "decode model json")
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package genaiclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/GearCheck/internal/models"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text      string
	grounding *genai.GroundingMetadata
	err       error

	calls   int
	lastCfg *genai.GenerateContentConfig
	model   string
}

func (g *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.calls++
	g.lastCfg = config
	g.model = model
	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:           &genai.Content{Role: string(genai.RoleModel), Parts: []*genai.Part{{Text: g.text}}},
			GroundingMetadata: g.grounding,
		}},
	}, nil
}

type fakeRL struct {
	allowed bool
	calls   int
	err     error
}

func (r *fakeRL) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	r.calls++
	return r.allowed, int64(r.calls), r.err
}

func TestCheckRecall_ParsesFencedJSONAndSources(t *testing.T) {
	g := &fakeGenerator{
		text: "Here you go:\n```json\n{\"status\":\"Recalled\",\"summary\":\"Buckle cracks\",\"actionSteps\":[\"stop\"]}\n```",
		grounding: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{Title: "CPSC", URI: "https://example.org/a"}},
			{Web: &genai.GroundingChunkWeb{Title: "CPSC dup", URI: "https://example.org/a"}},
			{Web: nil},
		}},
	}
	c := newWithGenerator(g, "")

	res, err := c.CheckRecall(context.Background(), models.GearItem{Brand: "Black Diamond", Model: "Momentum"})
	require.NoError(t, err)
	require.Equal(t, models.RecallStatusRecalled, res.Status)
	require.Equal(t, "Buckle cracks", res.Summary)
	require.Equal(t, []models.Source{{Title: "CPSC", URI: "https://example.org/a"}}, res.Sources)
	require.False(t, res.LastChecked.IsZero())
	require.Equal(t, DefaultModel, g.model)
	require.Len(t, g.lastCfg.Tools, 1)
	require.NotNil(t, g.lastCfg.Tools[0].GoogleSearch)
}

func TestCheckRecall_UnknownStatusNormalized(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: `{"status":"probably fine","summary":"?"}`}, "m")
	res, err := c.CheckRecall(context.Background(), models.GearItem{})
	require.NoError(t, err)
	require.Equal(t, models.RecallStatusUnknown, res.Status)
}

func TestCheckRecall_NoJSON(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: "I could not find anything."}, "m")
	_, err := c.CheckRecall(context.Background(), models.GearItem{})
	require.Error(t, err)
}

func TestAnalyzeCondition_UsesSchema(t *testing.T) {
	g := &fakeGenerator{text: `{"score": 42, "label": ""}`}
	c := newWithGenerator(g, "m")

	res, err := c.AnalyzeCondition(context.Background(), models.GearItem{Name: "Helmet"})
	require.NoError(t, err)
	require.Equal(t, 42, res.Score)
	require.Equal(t, "Worn", res.Label)
	require.Equal(t, "application/json", g.lastCfg.ResponseMIMEType)
	require.Equal(t, conditionSchema, g.lastCfg.ResponseSchema)
}

func TestGetInspectionDetails(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: `{"expiryYear": 2031, "tasks": ["a","b"], "weakPoints": ["c"]}`}, "m")
	res, err := c.GetInspectionDetails(context.Background(), models.GearItem{})
	require.NoError(t, err)
	require.Equal(t, 2031, *res.ExpiryYear)
	require.Equal(t, []string{"a", "b"}, res.Tasks)
}

func TestAnalyzeLoadout_FillsEmptyLists(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: `{"summary":"ok","riskLevel":"low"}`}, "m")
	score := 70
	res, err := c.AnalyzeLoadout(context.Background(), []models.GearItem{{Name: "Tent", ConditionScore: &score}}, models.DefaultTripContext())
	require.NoError(t, err)
	require.NotNil(t, res.MissingCategories)
	require.NotNil(t, res.RedFlags)
	require.NotNil(t, res.Suggestions)
}

func TestSidebarCalls(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: `[{"product":"Stove","brand":"Acme","date":"2025-01-01","hazard":"fire","region":"US"}]`}, "m")
	rr, err := c.GetRecentRecalls(context.Background())
	require.NoError(t, err)
	require.Len(t, rr, 1)

	c = newWithGenerator(&fakeGenerator{text: `{"hazardBreakdown":[{"hazard":"fire","percent":70}],"highRiskCategory":"camping"}`}, "m")
	st, err := c.GetRecallStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, "camping", st.HighRiskCategory)
	require.Equal(t, 70, st.HazardBreakdown[0].Percent)
}

func TestAssessImmediateSafety_EmptyIsError(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{text: "   "}, "m")
	_, err := c.AssessImmediateSafety(context.Background(), models.GearItem{}, models.DefaultTripContext())
	require.Error(t, err)
}

func TestGenerate_ProviderErrorWrapped(t *testing.T) {
	c := newWithGenerator(&fakeGenerator{err: errors.New("quota")}, "m")
	_, err := c.AnalyzeCondition(context.Background(), models.GearItem{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "genai generate")
}

func TestRateLimit_ConsultedAndErrorStops(t *testing.T) {
	g := &fakeGenerator{text: `{"score": 90, "label": "Excellent"}`}
	rl := &fakeRL{allowed: true}
	c := newWithGenerator(g, "m").WithRateLimit(rl, 10)

	_, err := c.AnalyzeCondition(context.Background(), models.GearItem{})
	require.NoError(t, err)
	require.Equal(t, 1, rl.calls)

	rl.err = errors.New("redis down")
	_, err = c.AnalyzeCondition(context.Background(), models.GearItem{})
	require.Error(t, err)
	require.Equal(t, 1, g.calls)
}

func TestRateLimit_NotAllowedStillSends(t *testing.T) {
	g := &fakeGenerator{text: `{"score": 90, "label": "Excellent"}`}
	c := newWithGenerator(g, "m").WithRateLimit(&fakeRL{allowed: false}, 1)

	_, err := c.AnalyzeCondition(context.Background(), models.GearItem{})
	require.NoError(t, err)
	require.Equal(t, 1, g.calls)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), "", "")
	require.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]int
	require.NoError(t, decodeJSON("```json\n{\"a\":1}\n```", &v))
	require.Equal(t, 1, v["a"])
	require.NoError(t, decodeJSON("prefix {\"a\":2} suffix", &v))
	require.Equal(t, 2, v["a"])
	require.Error(t, decodeJSON("nothing here", &v))
}

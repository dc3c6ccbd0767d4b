package enricher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/GearCheck/internal/integrations/enrichment"
	"github.com/BearBump/GearCheck/internal/integrations/enrichment/mocks"
	"github.com/BearBump/GearCheck/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixed(e *Enricher) *Enricher {
	n := 0
	e.newID = func() string {
		n++
		return "task-" + string(rune('0'+n))
	}
	e.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func rope() models.GearItem {
	return models.GearItem{
		ID:           "g1",
		Name:         "Dynamic Rope",
		Brand:        "Mammut",
		Model:        "Crag 9.5",
		Category:     models.CategoryClimbing,
		PurchaseDate: "2019",
		Region:       models.RegionEU,
		Status:       models.RecallStatusUnknown,
		WeakPoints:   []string{"old note"},
	}
}

func TestEnricher_EnrichOne_AllSucceed(t *testing.T) {
	cl := &mocks.MockClient{}
	cl.On("CheckRecall", mock.Anything, mock.Anything).Return(models.RecallResult{
		Status:  models.RecallStatusRecalled,
		Summary: "recalled",
	}, nil)
	cl.On("GetInspectionDetails", mock.Anything, mock.Anything).Return(enrichment.InspectionDetails{
		ExpiryYear: models.IntPtr(2029),
		Tasks:      []string{"check sheath", "check core"},
		WeakPoints: []string{"ends"},
	}, nil)
	cl.On("AnalyzeCondition", mock.Anything, mock.Anything).Return(enrichment.ConditionResult{Score: 72}, nil)

	e := fixed(New(cl))
	in := rope()
	out := e.EnrichOne(context.Background(), in)

	require.Equal(t, models.RecallStatusRecalled, out.Status)
	require.NotNil(t, out.RecallInfo)
	require.Equal(t, "recalled", out.RecallInfo.Summary)
	require.False(t, out.RecallInfo.LastChecked.IsZero())
	require.Equal(t, 2029, *out.ExpiryYear)
	require.Equal(t, []models.InspectionTask{
		{ID: "task-1", Description: "check sheath"},
		{ID: "task-2", Description: "check core"},
	}, out.InspectionTasks)
	require.Equal(t, []string{"ends"}, out.WeakPoints)
	require.Equal(t, 72, *out.ConditionScore)
	require.Equal(t, "Good", out.ConditionLabel)
	require.True(t, out.InspectionDue)

	// входной элемент не меняется
	require.Equal(t, rope(), in)
	require.Equal(t, int64(1), e.Stats().TotalEnriched)
	cl.AssertExpectations(t)
}

func TestEnricher_EnrichOne_AnyFailureKeepsItem(t *testing.T) {
	for _, failing := range []string{"CheckRecall", "GetInspectionDetails", "AnalyzeCondition"} {
		t.Run(failing, func(t *testing.T) {
			cl := &mocks.MockClient{}
			boom := errors.New("boom")
			recErr, inspErr, condErr := error(nil), error(nil), error(nil)
			switch failing {
			case "CheckRecall":
				recErr = boom
			case "GetInspectionDetails":
				inspErr = boom
			default:
				condErr = boom
			}
			cl.On("CheckRecall", mock.Anything, mock.Anything).Return(models.RecallResult{Status: models.RecallStatusSafe}, recErr).Maybe()
			cl.On("GetInspectionDetails", mock.Anything, mock.Anything).Return(enrichment.InspectionDetails{Tasks: []string{"x"}}, inspErr).Maybe()
			cl.On("AnalyzeCondition", mock.Anything, mock.Anything).Return(enrichment.ConditionResult{Score: 90}, condErr).Maybe()

			e := New(cl)
			in := rope()
			out := e.EnrichOne(context.Background(), in)

			require.Equal(t, in, out)
			st := e.Stats()
			require.Equal(t, int64(0), st.TotalEnriched)
			require.Equal(t, int64(1), st.TotalDegraded)
			require.Equal(t, "boom", st.LastError)
		})
	}
}

func TestEnricher_EnrichOne_InvalidStatusBecomesUnknown(t *testing.T) {
	cl := &mocks.MockClient{}
	cl.On("CheckRecall", mock.Anything, mock.Anything).Return(models.RecallResult{Status: "maybe"}, nil)
	cl.On("GetInspectionDetails", mock.Anything, mock.Anything).Return(enrichment.InspectionDetails{}, nil)
	cl.On("AnalyzeCondition", mock.Anything, mock.Anything).Return(enrichment.ConditionResult{Score: 140, Label: "Mint"}, nil)

	out := New(cl).EnrichOne(context.Background(), rope())
	require.Equal(t, models.RecallStatusUnknown, out.Status)
	require.Equal(t, 100, *out.ConditionScore)
	require.Equal(t, "Mint", out.ConditionLabel)
	require.Empty(t, out.InspectionTasks)
}

func TestEnricher_QuickVerdict(t *testing.T) {
	trip := models.TripContext{TripType: "alpine", Conditions: []string{"snow"}}

	cl := &mocks.MockClient{}
	cl.On("AssessImmediateSafety", mock.Anything, mock.Anything, trip).Return("OK for snow.", nil).Once()
	cl.On("AssessImmediateSafety", mock.Anything, mock.Anything, trip).Return("", errors.New("down")).Once()

	e := New(cl)
	require.Equal(t, "OK for snow.", e.QuickVerdict(context.Background(), rope(), trip))
	require.Equal(t, FallbackVerdict, e.QuickVerdict(context.Background(), rope(), trip))
	require.Equal(t, "Could not assess, inspect manually.", FallbackVerdict)
}

func TestEnricher_AnalyzeLoadout_Degrades(t *testing.T) {
	cl := &mocks.MockClient{}
	cl.On("AnalyzeLoadout", mock.Anything, mock.Anything, mock.Anything).Return(models.LoadoutAnalysis{}, errors.New("down"))

	e := fixed(New(cl))
	res := e.AnalyzeLoadout(context.Background(), []models.GearItem{rope()}, models.DefaultTripContext())
	require.Empty(t, res.MissingCategories)
	require.NotNil(t, res.MissingCategories)
	require.Empty(t, res.RedFlags)
	require.Len(t, res.Suggestions, 1)
	require.Equal(t, e.now(), res.AnalyzedAt)
}

func TestEnricher_AnalyzeLoadout_OK(t *testing.T) {
	cl := &mocks.MockClient{}
	cl.On("AnalyzeLoadout", mock.Anything, mock.Anything, mock.Anything).Return(models.LoadoutAnalysis{
		Summary:   "fine",
		RiskLevel: "low",
	}, nil)

	e := fixed(New(cl))
	res := e.AnalyzeLoadout(context.Background(), []models.GearItem{rope()}, models.DefaultTripContext())
	require.Equal(t, "fine", res.Summary)
	require.Equal(t, e.now(), res.AnalyzedAt)
}

func TestEnricher_SidebarDegrades(t *testing.T) {
	cl := &mocks.MockClient{}
	cl.On("GetRecentRecalls", mock.Anything).Return(nil, errors.New("down"))
	cl.On("GetRecallStats", mock.Anything).Return(models.RecallStats{}, errors.New("down"))

	e := New(cl)
	recalls, err := e.RecentRecalls(context.Background())
	require.Error(t, err)
	require.NotNil(t, recalls)
	require.Empty(t, recalls)

	stats, err := e.RecallStats(context.Background())
	require.Error(t, err)
	require.NotNil(t, stats.HazardBreakdown)
	require.Empty(t, stats.HighRiskCategory)
}

func TestEnricher_WithConcurrency(t *testing.T) {
	e := New(nil)
	require.Equal(t, 8, e.concurrency)
	e.WithConcurrency(3)
	require.Equal(t, 3, e.concurrency)
	e.WithConcurrency(0)
	require.Equal(t, 3, e.concurrency)
}

func TestEnricher_Enrich_ReturnsPatchOrError(t *testing.T) {
	ts := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	cl := &mocks.MockClient{}
	cl.On("CheckRecall", mock.Anything, mock.Anything).Return(models.RecallResult{Status: models.RecallStatusRecalled, LastChecked: ts}, nil).Once()
	cl.On("GetInspectionDetails", mock.Anything, mock.Anything).Return(enrichment.InspectionDetails{}, nil)
	cl.On("AnalyzeCondition", mock.Anything, mock.Anything).Return(enrichment.ConditionResult{Score: 20}, nil)

	e := New(cl)
	p, err := e.Enrich(context.Background(), rope())
	require.NoError(t, err)
	require.Equal(t, models.RecallStatusRecalled, p.Recall.Status)
	require.Equal(t, ts, p.Recall.LastChecked)
	require.Equal(t, 20, p.ConditionScore)

	cl.On("CheckRecall", mock.Anything, mock.Anything).Return(models.RecallResult{}, errors.New("down")).Once()
	_, err = e.Enrich(context.Background(), rope())
	require.Error(t, err)
	require.Equal(t, int64(1), e.Stats().TotalEnriched)
	require.Equal(t, int64(1), e.Stats().TotalDegraded)
}

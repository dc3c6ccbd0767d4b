package enricher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/GearCheck/internal/integrations/enrichment"
	"github.com/BearBump/GearCheck/internal/metrics"
	"github.com/BearBump/GearCheck/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FallbackVerdict отдаётся, когда быстрая оценка безопасности недоступна.
const FallbackVerdict = "Could not assess, inspect manually."

const fallbackSuggestion = "AI analysis is unavailable. Review each item manually before departure."

// Enricher ходит во внешний ИИ и превращает ответы в данные снаряжения.
// Любая ошибка клиента гасится здесь: наружу уходит безопасный fallback.
type Enricher struct {
	client enrichment.Client

	concurrency int
	newID       func() string
	now         func() time.Time

	startedAtUnixNano int64
	lastRunUnixNano   atomic.Int64
	totalEnriched     atomic.Int64
	totalDegraded     atomic.Int64
	inFlight          atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(client enrichment.Client) *Enricher {
	return &Enricher{
		client:            client,
		concurrency:       8,
		newID:             uuid.NewString,
		now:               func() time.Time { return time.Now().UTC() },
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (e *Enricher) WithConcurrency(n int) *Enricher {
	if n > 0 {
		e.concurrency = n
	}
	return e
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	TotalEnriched int64      `json:"totalEnriched"`
	TotalDegraded int64      `json:"totalDegraded"`
	InFlight      int64      `json:"inFlight"`
	LastError     string     `json:"lastError,omitempty"`
}

func (e *Enricher) Stats() Stats {
	st := Stats{
		StartedAt:     time.Unix(0, e.startedAtUnixNano).UTC(),
		TotalEnriched: e.totalEnriched.Load(),
		TotalDegraded: e.totalDegraded.Load(),
		InFlight:      e.inFlight.Load(),
	}
	if n := e.lastRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRunAt = &t
	}
	e.lastErrorMu.Lock()
	st.LastError = e.lastError
	e.lastErrorMu.Unlock()
	return st
}

func (e *Enricher) recordError(err error) {
	e.totalDegraded.Add(1)
	e.lastErrorMu.Lock()
	e.lastError = err.Error()
	e.lastErrorMu.Unlock()
}

// EnrichOne запускает три запроса параллельно и применяет патч, только если успешны все три.
// При ошибке возвращается исходный элемент без изменений.
func (e *Enricher) EnrichOne(ctx context.Context, item models.GearItem) models.GearItem {
	patch, err := e.Enrich(ctx, item)
	if err != nil {
		return item
	}
	return item.WithEnrichment(patch)
}

// Enrich возвращает сам патч обогащения. Ошибка означает, что применять нечего.
func (e *Enricher) Enrich(ctx context.Context, item models.GearItem) (models.Enrichment, error) {
	started := time.Now()
	e.lastRunUnixNano.Store(started.UTC().UnixNano())
	e.inFlight.Add(1)
	metrics.EnrichmentInFlight.Inc()
	defer func() {
		e.inFlight.Add(-1)
		metrics.EnrichmentInFlight.Dec()
	}()

	patch, err := e.enrichPatch(ctx, item)
	metrics.Observe("enrich_one", started, err)
	if err != nil {
		e.recordError(err)
		slog.Error("enrich gear", "gear_id", item.ID, "error", err.Error())
		return models.Enrichment{}, err
	}
	e.totalEnriched.Add(1)
	return patch, nil
}

func (e *Enricher) enrichPatch(ctx context.Context, item models.GearItem) (models.Enrichment, error) {
	var (
		recall     models.RecallResult
		inspection enrichment.InspectionDetails
		condition  enrichment.ConditionResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recall, err = e.client.CheckRecall(gctx, item)
		return err
	})
	g.Go(func() error {
		var err error
		inspection, err = e.client.GetInspectionDetails(gctx, item)
		return err
	})
	g.Go(func() error {
		var err error
		condition, err = e.client.AnalyzeCondition(gctx, item)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Enrichment{}, err
	}

	if recall.LastChecked.IsZero() {
		recall.LastChecked = e.now()
	}
	tasks := make([]models.InspectionTask, 0, len(inspection.Tasks))
	for _, d := range inspection.Tasks {
		tasks = append(tasks, models.InspectionTask{ID: e.newID(), Description: d})
	}
	score := enrichment.ClampScore(condition.Score)
	label := condition.Label
	if label == "" {
		label = enrichment.ConditionLabel(score)
	}

	return models.Enrichment{
		Recall:          recall,
		ExpiryYear:      inspection.ExpiryYear,
		InspectionTasks: tasks,
		WeakPoints:      inspection.WeakPoints,
		ConditionScore:  score,
		ConditionLabel:  label,
	}, nil
}

// EnrichPatches обогащает только элементы со статусом unknown и дожидается всех.
// В результате только успешные: id -> патч. Неудачные элементы в карту не попадают.
func (e *Enricher) EnrichPatches(ctx context.Context, items []models.GearItem) map[string]models.Enrichment {
	var (
		mu  sync.Mutex
		out = make(map[string]models.Enrichment)
	)

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for _, it := range items {
		if it.Status != models.RecallStatusUnknown {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(it models.GearItem) {
			defer func() {
				<-sem
				wg.Done()
			}()
			patch, err := e.Enrich(ctx, it)
			if err != nil {
				return
			}
			mu.Lock()
			out[it.ID] = patch
			mu.Unlock()
		}(it)
	}
	wg.Wait()
	return out
}

// EnrichAll возвращает входной список в том же порядке, применив успешные патчи.
// Остальные элементы проходят как есть.
func (e *Enricher) EnrichAll(ctx context.Context, items []models.GearItem) []models.GearItem {
	patches := e.EnrichPatches(ctx, items)

	out := make([]models.GearItem, len(items))
	for i, it := range items {
		if p, ok := patches[it.ID]; ok {
			out[i] = it.WithEnrichment(p)
			continue
		}
		out[i] = it
	}
	return out
}

// Eligible возвращает id элементов, которые EnrichAll будет обогащать.
func Eligible(items []models.GearItem) []string {
	ids := []string{}
	for _, it := range items {
		if it.Status == models.RecallStatusUnknown {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (e *Enricher) QuickVerdict(ctx context.Context, item models.GearItem, trip models.TripContext) string {
	started := time.Now()
	v, err := e.client.AssessImmediateSafety(ctx, item, trip)
	metrics.Observe("quick_verdict", started, err)
	if err != nil {
		e.recordError(err)
		slog.Error("quick verdict", "gear_id", item.ID, "error", err.Error())
		return FallbackVerdict
	}
	return v
}

// DegradedLoadoutAnalysis — ответ анализа снаряжения, когда ИИ недоступен.
func DegradedLoadoutAnalysis(now time.Time) models.LoadoutAnalysis {
	return models.LoadoutAnalysis{
		Summary:           "Loadout analysis unavailable.",
		RiskLevel:         "unknown",
		MissingCategories: []string{},
		RedFlags:          []string{},
		Suggestions:       []string{fallbackSuggestion},
		AnalyzedAt:        now,
	}
}

func (e *Enricher) AnalyzeLoadout(ctx context.Context, items []models.GearItem, trip models.TripContext) models.LoadoutAnalysis {
	started := time.Now()
	res, err := e.client.AnalyzeLoadout(ctx, items, trip)
	metrics.Observe("analyze_loadout", started, err)
	if err != nil {
		e.recordError(err)
		slog.Error("analyze loadout", "items", len(items), "error", err.Error())
		return DegradedLoadoutAnalysis(e.now())
	}
	if res.AnalyzedAt.IsZero() {
		res.AnalyzedAt = e.now()
	}
	return res
}

func (e *Enricher) RecentRecalls(ctx context.Context) ([]models.RecentRecall, error) {
	started := time.Now()
	res, err := e.client.GetRecentRecalls(ctx)
	metrics.Observe("recent_recalls", started, err)
	if err != nil {
		e.recordError(err)
		slog.Error("recent recalls", "error", err.Error())
		return []models.RecentRecall{}, err
	}
	if res == nil {
		res = []models.RecentRecall{}
	}
	return res, nil
}

func (e *Enricher) RecallStats(ctx context.Context) (models.RecallStats, error) {
	started := time.Now()
	res, err := e.client.GetRecallStats(ctx)
	metrics.Observe("recall_stats", started, err)
	if err != nil {
		e.recordError(err)
		slog.Error("recall stats", "error", err.Error())
		return models.RecallStats{HazardBreakdown: []models.HazardShare{}}, err
	}
	if res.HazardBreakdown == nil {
		res.HazardBreakdown = []models.HazardShare{}
	}
	return res, nil
}

package gear

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/GearCheck/internal/broker/messages"
	"github.com/BearBump/GearCheck/internal/cache"
	"github.com/BearBump/GearCheck/internal/models"
	"github.com/BearBump/GearCheck/internal/views"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("gear not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	recentRecallsKey = "sidebar:recent-recalls"
	recallStatsKey   = "sidebar:recall-stats"
)

type Store interface {
	Add(item models.GearItem) error
	UpdateFunc(id string, fn func(models.GearItem) models.GearItem) (models.GearItem, bool)
	MergeMatching(ids []string, merge func(models.GearItem) (models.GearItem, bool)) []string
	Remove(id string) bool
	Get(id string) (models.GearItem, bool)
	List() []models.GearItem
}

type Enricher interface {
	Enrich(ctx context.Context, item models.GearItem) (models.Enrichment, error)
	EnrichPatches(ctx context.Context, items []models.GearItem) map[string]models.Enrichment
	QuickVerdict(ctx context.Context, item models.GearItem, trip models.TripContext) string
	AnalyzeLoadout(ctx context.Context, items []models.GearItem, trip models.TripContext) models.LoadoutAnalysis
	RecentRecalls(ctx context.Context) ([]models.RecentRecall, error)
	RecallStats(ctx context.Context) (models.RecallStats, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	store Store
	enr   Enricher

	pub   Publisher
	topic string

	cache      cache.BytesCache
	sidebarTTL time.Duration

	now func() time.Time

	mu       sync.RWMutex
	trip     models.TripContext
	analysis *models.LoadoutAnalysis
}

func New(store Store, enr Enricher) *Service {
	return &Service{
		store: store,
		enr:   enr,
		trip:  models.DefaultTripContext(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithPublisher включает публикацию gear.checked. nil выключает.
func (s *Service) WithPublisher(p Publisher, topic string) *Service {
	s.pub = p
	s.topic = topic
	return s
}

// WithSidebarCache кэширует ответы ИИ для боковой панели на ttl.
func (s *Service) WithSidebarCache(c cache.BytesCache, ttl time.Duration) *Service {
	s.cache = c
	s.sidebarTTL = ttl
	return s
}

func validate(in models.GearCreateInput) (models.GearCreateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	if in.Name == "" {
		return in, errors.Wrap(ErrInvalidInput, "name is required")
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if !models.IsValidCategory(in.Category) {
		return in, errors.Wrapf(ErrInvalidInput, "unknown category %q", in.Category)
	}
	if in.Region == "" {
		in.Region = models.RegionGlobal
	}
	if !models.IsValidRegion(in.Region) {
		return in, errors.Wrapf(ErrInvalidInput, "unknown region %q", in.Region)
	}
	return in, nil
}

func (s *Service) AddGear(ctx context.Context, in models.GearCreateInput) (models.GearItem, error) {
	in, err := validate(in)
	if err != nil {
		return models.GearItem{}, err
	}
	item := models.GearItem{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Brand:        in.Brand,
		Model:        in.Model,
		Category:     in.Category,
		PurchaseDate: in.PurchaseDate,
		Region:       in.Region,
		Notes:        in.Notes,
		SerialNumber: in.SerialNumber,
		Status:       models.RecallStatusUnknown,
	}
	if err := s.store.Add(item); err != nil {
		return models.GearItem{}, err
	}
	return item, nil
}

// UpdateGear меняет описательные поля. Если поменялся сам продукт (name/brand/model),
// прошлый результат проверки отзывов больше не относится к нему: статус снова unknown.
func (s *Service) UpdateGear(ctx context.Context, id string, in models.GearCreateInput) (models.GearItem, error) {
	in, err := validate(in)
	if err != nil {
		return models.GearItem{}, err
	}
	out, ok := s.store.UpdateFunc(id, func(g models.GearItem) models.GearItem {
		if !g.SameProduct(models.GearItem{Name: in.Name, Brand: in.Brand, Model: in.Model}) {
			g.Status = models.RecallStatusUnknown
			g.RecallInfo = nil
		}
		g.Name = in.Name
		g.Brand = in.Brand
		g.Model = in.Model
		g.Category = in.Category
		g.PurchaseDate = in.PurchaseDate
		g.Region = in.Region
		g.Notes = in.Notes
		g.SerialNumber = in.SerialNumber
		return g
	})
	if !ok {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "update %s", id)
	}
	return out, nil
}

func (s *Service) RemoveGear(ctx context.Context, id string) error {
	if !s.store.Remove(id) {
		return errors.Wrapf(ErrNotFound, "remove %s", id)
	}
	return nil
}

func (s *Service) List(ctx context.Context) []models.GearItem {
	return s.store.List()
}

func (s *Service) Get(ctx context.Context, id string) (models.GearItem, error) {
	it, ok := s.store.Get(id)
	if !ok {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "get %s", id)
	}
	return it, nil
}

// CheckOne обогащает один элемент и накладывает патч на текущее состояние в сторе.
// Если элемент удалили, пока шла проверка, возвращается ErrNotFound.
func (s *Service) CheckOne(ctx context.Context, id string) (models.GearItem, error) {
	it, ok := s.store.Get(id)
	if !ok {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "check %s", id)
	}
	ctx = context.WithoutCancel(ctx)

	patch, err := s.enr.Enrich(ctx, it)
	if err != nil {
		s.publish(ctx, it, false)
		return it, nil
	}

	applied := s.store.MergeMatching([]string{id}, mergePatches(
		map[string]models.GearItem{id: it},
		map[string]models.Enrichment{id: patch},
	))
	out, ok := s.store.Get(id)
	if !ok {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "check %s: removed while checking", id)
	}
	s.publish(ctx, out, len(applied) == 1)
	return out, nil
}

// CheckAll обогащает все элементы со статусом unknown и накладывает успешные патчи одним проходом.
// Правки, сделанные во время проверки, сохраняются: патч трогает только поля обогащения.
func (s *Service) CheckAll(ctx context.Context) []models.GearItem {
	ctx = context.WithoutCancel(ctx)
	before := s.store.List()

	basis := make(map[string]models.GearItem)
	eligible := make([]string, 0, len(before))
	for _, it := range before {
		if it.Status == models.RecallStatusUnknown {
			basis[it.ID] = it
			eligible = append(eligible, it.ID)
		}
	}
	if len(eligible) == 0 {
		return before
	}

	patches := s.enr.EnrichPatches(ctx, before)
	ids := make([]string, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	applied := s.store.MergeMatching(ids, mergePatches(basis, patches))

	appliedSet := make(map[string]struct{}, len(applied))
	for _, id := range applied {
		appliedSet[id] = struct{}{}
	}
	out := s.store.List()
	current := make(map[string]models.GearItem, len(out))
	for _, it := range out {
		current[it.ID] = it
	}
	for _, id := range eligible {
		it, ok := current[id]
		if !ok {
			continue
		}
		_, enriched := appliedSet[id]
		s.publish(ctx, it, enriched)
	}
	return out
}

// mergePatches накладывает патч, только если продукт не поменяли с момента снимка basis:
// иначе результат проверки относится к другому продукту.
func mergePatches(basis map[string]models.GearItem, patches map[string]models.Enrichment) func(models.GearItem) (models.GearItem, bool) {
	return func(g models.GearItem) (models.GearItem, bool) {
		p, ok := patches[g.ID]
		if !ok {
			return g, false
		}
		if b, ok := basis[g.ID]; !ok || !b.SameProduct(g) {
			return g, false
		}
		return g.WithEnrichment(p), true
	}
}

func (s *Service) publish(ctx context.Context, item models.GearItem, enriched bool) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(messages.NewGearChecked(item, s.now(), enriched))
	if err != nil {
		slog.Error("marshal gear.checked", "gear_id", item.ID, "error", err.Error())
		return
	}
	if err := s.pub.Publish(ctx, s.topic, []byte(item.ID), b); err != nil {
		slog.Error("publish gear.checked", "gear_id", item.ID, "error", err.Error())
	}
}

func (s *Service) ToggleTask(ctx context.Context, gearID, taskID string) (models.GearItem, error) {
	found := false
	out, ok := s.store.UpdateFunc(gearID, func(g models.GearItem) models.GearItem {
		for i := range g.InspectionTasks {
			if g.InspectionTasks[i].ID == taskID {
				g.InspectionTasks[i].Completed = !g.InspectionTasks[i].Completed
				found = true
			}
		}
		return g
	})
	if !ok {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "gear %s", gearID)
	}
	if !found {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "task %s", taskID)
	}
	return out, nil
}

func (s *Service) ToggleLoadout(ctx context.Context, id string) (models.GearItem, error) {
	out, ok := s.store.UpdateFunc(id, func(g models.GearItem) models.GearItem {
		g.InLoadout = !g.InLoadout
		return g
	})
	if !ok {
		return models.GearItem{}, errors.Wrapf(ErrNotFound, "toggle loadout %s", id)
	}
	return out, nil
}

func (s *Service) QuickVerdict(ctx context.Context, id string) (string, error) {
	it, ok := s.store.Get(id)
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "verdict %s", id)
	}
	return s.enr.QuickVerdict(context.WithoutCancel(ctx), it, s.Trip()), nil
}

func (s *Service) Trip() models.TripContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.TripContext{
		TripType:   s.trip.TripType,
		Conditions: append([]string{}, s.trip.Conditions...),
	}
}

func (s *Service) SetTrip(ctx context.Context, trip models.TripContext) (models.TripContext, error) {
	trip.TripType = strings.TrimSpace(trip.TripType)
	if trip.TripType == "" {
		return models.TripContext{}, errors.Wrap(ErrInvalidInput, "tripType is required")
	}
	conds := make([]string, 0, len(trip.Conditions))
	for _, c := range trip.Conditions {
		if c = strings.TrimSpace(c); c != "" {
			conds = append(conds, c)
		}
	}
	trip.Conditions = conds

	s.mu.Lock()
	s.trip = trip
	s.mu.Unlock()
	return s.Trip(), nil
}

// AnalyzeLoadout анализирует элементы, отмеченные для похода. Пустой набор ничего не запускает.
func (s *Service) AnalyzeLoadout(ctx context.Context) (*models.LoadoutAnalysis, error) {
	loadout := make([]models.GearItem, 0)
	for _, it := range s.store.List() {
		if it.InLoadout {
			loadout = append(loadout, it)
		}
	}
	if len(loadout) == 0 {
		return s.LastAnalysis(), nil
	}

	res := s.enr.AnalyzeLoadout(context.WithoutCancel(ctx), loadout, s.Trip())
	s.mu.Lock()
	s.analysis = &res
	s.mu.Unlock()
	return s.LastAnalysis(), nil
}

func (s *Service) LastAnalysis() *models.LoadoutAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analysis == nil {
		return nil
	}
	a := *s.analysis
	return &a
}

func (s *Service) Stats(ctx context.Context) models.InventoryStats {
	return views.Stats(s.store.List())
}

func (s *Service) HighDanger(ctx context.Context) []models.GearItem {
	return views.HighDangerItems(s.store.List())
}

func (s *Service) Reminders(ctx context.Context) []models.GearItem {
	return views.Reminders(s.store.List(), s.now())
}

// RecentRecalls отдаёт ленту отзывов; кэшируется только успешный ответ ИИ.
func (s *Service) RecentRecalls(ctx context.Context) []models.RecentRecall {
	var out []models.RecentRecall
	if s.cachedJSON(ctx, recentRecallsKey, &out) {
		return out
	}
	out, err := s.enr.RecentRecalls(context.WithoutCancel(ctx))
	if err == nil {
		s.storeJSON(ctx, recentRecallsKey, out)
	}
	return out
}

func (s *Service) RecallStats(ctx context.Context) models.RecallStats {
	var out models.RecallStats
	if s.cachedJSON(ctx, recallStatsKey, &out) {
		return out
	}
	out, err := s.enr.RecallStats(context.WithoutCancel(ctx))
	if err == nil {
		s.storeJSON(ctx, recallStatsKey, out)
	}
	return out
}

func (s *Service) cachedJSON(ctx context.Context, key string, dst any) bool {
	if s.cache == nil || s.sidebarTTL <= 0 {
		return false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("sidebar cache get", "key", key, "error", err.Error())
		return false
	}
	if !ok {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func (s *Service) storeJSON(ctx context.Context, key string, v any) {
	if s.cache == nil || s.sidebarTTL <= 0 {
		return
	}
	b, _ := json.Marshal(v)
	if err := s.cache.Set(ctx, key, b, s.sidebarTTL); err != nil {
		slog.Warn("sidebar cache set", "key", key, "error", err.Error())
	}
}

package inventory

import (
	"sync"

	"github.com/BearBump/GearCheck/internal/models"
	"github.com/pkg/errors"
)

var ErrDuplicateID = errors.New("gear id already exists")

// Storage — упорядоченный список снаряжения в памяти процесса.
// Новые элементы идут в начало, остальные операции порядок не меняют.
type Storage struct {
	mu    sync.RWMutex
	items []models.GearItem
}

func New() *Storage {
	return &Storage{}
}

func (s *Storage) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Storage) Add(item models.GearItem) error {
	if item.ID == "" {
		return errors.New("gear id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(item.ID) >= 0 {
		return errors.Wrapf(ErrDuplicateID, "add %s", item.ID)
	}
	next := make([]models.GearItem, 0, len(s.items)+1)
	next = append(next, item.Clone())
	next = append(next, s.items...)
	s.items = next
	return nil
}

// Update заменяет элемент с тем же id. Неизвестный id молча игнорируется.
func (s *Storage) Update(item models.GearItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(item)
}

func (s *Storage) replace(item models.GearItem) bool {
	i := s.indexOf(item.ID)
	if i < 0 {
		return false
	}
	s.items[i] = item.Clone()
	return true
}

// UpdateFunc — атомарное чтение-изменение-запись одного элемента.
func (s *Storage) UpdateFunc(id string, fn func(models.GearItem) models.GearItem) (models.GearItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.GearItem{}, false
	}
	next := fn(s.items[i].Clone())
	next.ID = id
	s.items[i] = next.Clone()
	return next.Clone(), true
}

// MergeMatching за одну блокировку применяет merge к текущим элементам с id из ids.
// merge возвращает false, если элемент надо оставить как есть.
// Возвращает id реально изменённых элементов в порядке хранилища.
func (s *Storage) MergeMatching(ids []string, merge func(models.GearItem) (models.GearItem, bool)) []string {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := make([]string, 0, len(ids))
	for i := range s.items {
		id := s.items[i].ID
		if _, ok := want[id]; !ok {
			continue
		}
		next, ok := merge(s.items[i].Clone())
		if !ok {
			continue
		}
		next.ID = id
		s.items[i] = next.Clone()
		applied = append(applied, id)
	}
	return applied
}

func (s *Storage) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	next := make([]models.GearItem, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	s.items = next
	return true
}

func (s *Storage) Get(id string) (models.GearItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.GearItem{}, false
	}
	return s.items[i].Clone(), true
}

// List возвращает снимок; изменения снимка не затрагивают хранилище.
func (s *Storage) List() []models.GearItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GearItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Clone())
	}
	return out
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

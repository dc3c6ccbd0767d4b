package inventory

import (
	"os"

	"github.com/BearBump/GearCheck/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v4"
)

type seedFile struct {
	Gear []models.GearItem `yaml:"gear"`
}

// LoadSeed читает стартовый список снаряжения из YAML и добавляет его в том же порядке,
// что и в файле. Пустые id генерируются, пустой статус становится unknown.
// Повторяющиеся id отклоняются до изменения хранилища.
func (s *Storage) LoadSeed(filename string) (int, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return 0, errors.Wrap(err, "read seed file")
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, errors.Wrap(err, "unmarshal seed yaml")
	}

	seen := make(map[string]struct{}, len(sf.Gear))
	for i := range sf.Gear {
		it := &sf.Gear[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if _, ok := seen[it.ID]; ok {
			return 0, errors.Wrapf(ErrDuplicateID, "seed %s", it.ID)
		}
		if _, ok := s.Get(it.ID); ok {
			return 0, errors.Wrapf(ErrDuplicateID, "seed %s", it.ID)
		}
		seen[it.ID] = struct{}{}
		if !models.IsValidRecallStatus(it.Status) {
			it.Status = models.RecallStatusUnknown
		}
		if !models.IsValidCategory(it.Category) {
			it.Category = models.CategoryOther
		}
		if !models.IsValidRegion(it.Region) {
			it.Region = models.RegionGlobal
		}
	}

	// Add кладёт в начало, поэтому идём с конца.
	added := 0
	for i := len(sf.Gear) - 1; i >= 0; i-- {
		if err := s.Add(sf.Gear[i]); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

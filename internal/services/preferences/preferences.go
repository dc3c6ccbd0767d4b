package preferences

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BearBump/GearCheck/internal/cache"
	"github.com/pkg/errors"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	themeKey = "pref:theme"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

func IsValidTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark
}

// Service держит текущую тему и пишет её в KV при каждом изменении.
type Service struct {
	kv cache.BytesCache

	mu    sync.RWMutex
	theme string
}

// New читает сохранённую тему; если её нет или KV недоступен, берётся defaultTheme.
func New(ctx context.Context, kv cache.BytesCache, defaultTheme string) *Service {
	if !IsValidTheme(defaultTheme) {
		defaultTheme = ThemeLight
	}
	s := &Service{kv: kv, theme: defaultTheme}

	b, ok, err := kv.Get(ctx, themeKey)
	if err != nil {
		slog.Warn("read theme preference", "error", err.Error())
		return s
	}
	if ok && IsValidTheme(string(b)) {
		s.theme = string(b)
	}
	return s
}

func (s *Service) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme меняет тему в памяти и сразу пишет её в KV.
// Ошибка записи не откатывает тему: она просто не переживёт рестарт.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	if !IsValidTheme(theme) {
		return errors.Wrapf(ErrInvalidTheme, "got %q", theme)
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	if err := s.kv.Set(ctx, themeKey, []byte(theme), 0); err != nil {
		return errors.Wrap(err, "persist theme")
	}
	return nil
}

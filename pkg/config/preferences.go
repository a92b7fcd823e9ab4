package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Theme is the display palette.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" ("" means light).
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, "":
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return Light, fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Persist stores a theme choice.
type Persist func(Theme) error

// Preferences is the user's display preference, passed explicitly to the view
// layer. Writes go through the persistence hook.
type Preferences struct {
	mu        sync.RWMutex
	theme     Theme
	persist   Persist
	listeners []func(Theme)
}

// NewPreferences starts from initial. A nil persist keeps changes in memory.
func NewPreferences(initial Theme, persist Persist) *Preferences {
	if initial == "" {
		initial = Light
	}
	return &Preferences{theme: initial, persist: persist}
}

// Theme returns the active theme.
func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// SetTheme changes and persists the theme. On a persistence failure the
// in-memory value is kept and the error returned.
func (p *Preferences) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	p.apply(t)
	if p.persist == nil {
		return nil
	}
	if err := p.persist(t); err != nil {
		return fmt.Errorf("failed to persist theme: %w", err)
	}
	return nil
}

// Toggle flips light/dark and returns the new theme.
func (p *Preferences) Toggle() (Theme, error) {
	next := p.Theme().Opposite()
	return next, p.SetTheme(next)
}

// Reload applies a theme changed outside this process without persisting it.
func (p *Preferences) Reload(t Theme) {
	if _, err := ParseTheme(string(t)); err != nil {
		return
	}
	p.apply(t)
}

// OnChange registers fn to run after every theme change.
func (p *Preferences) OnChange(fn func(Theme)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Preferences) apply(t Theme) {
	p.mu.Lock()
	if p.theme == t {
		p.mu.Unlock()
		return
	}
	p.theme = t
	listeners := make([]func(Theme), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
}

// ViperPersist writes only the theme key into the config file v was loaded
// from, or ~/.netmapper.yaml when none is in use. Other keys already in the
// file are kept; flag, env and default values held by v are never written.
func ViperPersist(v *viper.Viper) Persist {
	return func(t Theme) error {
		path := v.ConfigFileUsed()
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, FileName)
		}

		file := viper.New()
		file.SetConfigFile(path)
		file.SetConfigType("yaml")
		if err := file.ReadInConfig(); err != nil && !isMissingConfig(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		file.Set(KeyTheme, string(t))
		return file.WriteConfig()
	}
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// WatchTheme reloads p when v's config file is edited on disk.
func WatchTheme(v *viper.Viper, p *Preferences) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		if t, err := ParseTheme(v.GetString(KeyTheme)); err == nil {
			p.Reload(t)
		}
	})
	v.WatchConfig()
}

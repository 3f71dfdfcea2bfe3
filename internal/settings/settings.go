package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings are the user preferences edited from the dashboard
type Settings struct {
	DiscordNotifications bool   `yaml:"discord_notifications" json:"discordNotifications"`
	WebhookURL           string `yaml:"webhook_url" json:"webhookUrl"`
}

// Validate rejects a configuration that cannot deliver notifications
func (s Settings) Validate() error {
	if s.WebhookURL == "" {
		if s.DiscordNotifications {
			return errors.New("une URL de webhook est requise pour activer les notifications Discord")
		}
		return nil
	}

	u, err := url.Parse(s.WebhookURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("URL de webhook invalide: %q", s.WebhookURL)
	}
	return nil
}

// Store keeps Settings in a YAML file
type Store struct {
	path    string
	mu      sync.RWMutex
	current Settings
}

// Open loads the settings file at path. A missing file yields defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return s, nil
}

// Get returns the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates and persists the settings
func (s *Store) Save(next Settings) error {
	next.WebhookURL = strings.TrimSpace(next.WebhookURL)
	if err := next.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if dir := filepath.Dir(s.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create settings directory: %w", err)
			}
		}
		tmp := s.path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o600); err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
		if err := os.Rename(tmp, s.path); err != nil {
			return fmt.Errorf("failed to replace settings: %w", err)
		}
	}

	s.current = next
	return nil
}

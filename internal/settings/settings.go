// Package settings persists operator preferences independently of the
// session: they survive logout and are cleared only by an explicit reset.
package settings

import (
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"modpanel.org/internal/api"
	"modpanel.org/internal/ids"
	"modpanel.org/internal/store"
)

// Settings are general console preferences.
type Settings struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	EmailNotifications   bool   `json:"email_notifications"`
	SessionTimeout       int    `json:"session_timeout"` // minutes
	Language             string `json:"language"`
	Timezone             string `json:"timezone"`
	ShowConfirmations    bool   `json:"show_confirmations"`
	AutoRefreshDashboard bool   `json:"auto_refresh_dashboard"`
	RefreshInterval      int    `json:"refresh_interval"` // seconds
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Theme:                "light",
		NotificationsEnabled: true,
		EmailNotifications:   false,
		SessionTimeout:       60,
		Language:             "en",
		Timezone:             "UTC",
		ShowConfirmations:    true,
		AutoRefreshDashboard: false,
		RefreshInterval:      30,
	}
}

// WidgetSize is a dashboard widget footprint.
type WidgetSize string

const (
	WidgetSmall  WidgetSize = "small"
	WidgetMedium WidgetSize = "medium"
	WidgetLarge  WidgetSize = "large"
)

// SavedFilter is a named reusable listing filter.
type SavedFilter struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Filters   api.FilterOptions `json:"filters"`
	CreatedAt time.Time         `json:"created_at"`
}

// Customization is the dashboard layout record.
type Customization struct {
	VisibleWidgets []string              `json:"visible_widgets"`
	WidgetOrder    []string              `json:"widget_order"`
	WidgetSizes    map[string]WidgetSize `json:"widget_sizes"`
	SavedFilters   []SavedFilter         `json:"saved_filters"`
}

// DefaultCustomization returns the documented default layout.
func DefaultCustomization() Customization {
	return Customization{
		VisibleWidgets: []string{"stats", "recent_actions", "top_groups", "trends"},
		WidgetOrder:    []string{"stats", "recent_actions", "top_groups", "trends"},
		WidgetSizes: map[string]WidgetSize{
			"stats":          WidgetSmall,
			"recent_actions": WidgetLarge,
			"top_groups":     WidgetMedium,
			"trends":         WidgetLarge,
		},
		SavedFilters: []SavedFilter{},
	}
}

// SettingsUpdate patches individual settings fields; nil fields are untouched.
type SettingsUpdate struct {
	Theme                *string
	NotificationsEnabled *bool
	EmailNotifications   *bool
	SessionTimeout       *int
	Language             *string
	Timezone             *string
	ShowConfirmations    *bool
	AutoRefreshDashboard *bool
	RefreshInterval      *int
}

// CustomizationUpdate patches individual layout fields; nil fields are untouched.
type CustomizationUpdate struct {
	VisibleWidgets []string
	WidgetOrder    []string
	WidgetSizes    map[string]WidgetSize
}

// Manager holds the current preference snapshots and mediates persistence.
// Every update is a serialized read-modify-write against the in-memory
// snapshot, so two updates in close succession both land.
type Manager struct {
	mu      sync.Mutex
	st      *store.Store
	current Settings
	custom  Customization
}

// Open loads persisted preferences. A corrupt record silently resolves to the
// defaults, mirroring how the session treats unreadable storage.
func Open(st *store.Store) *Manager {
	m := &Manager{
		st:      st,
		current: DefaultSettings(),
		custom:  DefaultCustomization(),
	}
	if raw, ok := st.Get(store.KeySettings); ok {
		var loaded Settings
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			log.Debugf("stored settings rejected: %v", err)
		} else {
			m.current = loaded
		}
	}
	if raw, ok := st.Get(store.KeyCustomization); ok {
		var loaded Customization
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			log.Debugf("stored customization rejected: %v", err)
		} else {
			m.custom = loaded
		}
	}
	return m
}

// Settings returns the current snapshot.
func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Customization returns the current layout snapshot.
func (m *Manager) Customization() Customization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.custom
}

// Update applies the patch and persists the merged record.
func (m *Manager) Update(upd SettingsUpdate) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current
	if upd.Theme != nil {
		next.Theme = *upd.Theme
	}
	if upd.NotificationsEnabled != nil {
		next.NotificationsEnabled = *upd.NotificationsEnabled
	}
	if upd.EmailNotifications != nil {
		next.EmailNotifications = *upd.EmailNotifications
	}
	if upd.SessionTimeout != nil {
		next.SessionTimeout = *upd.SessionTimeout
	}
	if upd.Language != nil {
		next.Language = *upd.Language
	}
	if upd.Timezone != nil {
		next.Timezone = *upd.Timezone
	}
	if upd.ShowConfirmations != nil {
		next.ShowConfirmations = *upd.ShowConfirmations
	}
	if upd.AutoRefreshDashboard != nil {
		next.AutoRefreshDashboard = *upd.AutoRefreshDashboard
	}
	if upd.RefreshInterval != nil {
		next.RefreshInterval = *upd.RefreshInterval
	}

	if err := m.persistSettings(next); err != nil {
		return m.current, err
	}
	m.current = next
	return next, nil
}

// UpdateCustomization applies the patch and persists the merged layout.
func (m *Manager) UpdateCustomization(upd CustomizationUpdate) (Customization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.custom
	if upd.VisibleWidgets != nil {
		next.VisibleWidgets = upd.VisibleWidgets
	}
	if upd.WidgetOrder != nil {
		next.WidgetOrder = upd.WidgetOrder
	}
	if upd.WidgetSizes != nil {
		next.WidgetSizes = upd.WidgetSizes
	}

	if err := m.persistCustomization(next); err != nil {
		return m.custom, err
	}
	m.custom = next
	return next, nil
}

// AddSavedFilter stores a named filter and returns it with its identifier.
func (m *Manager) AddSavedFilter(name string, filters api.FilterOptions) (SavedFilter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := SavedFilter{
		ID:        ids.New(),
		Name:      name,
		Filters:   filters,
		CreatedAt: time.Now().UTC(),
	}
	next := m.custom
	next.SavedFilters = append(append([]SavedFilter(nil), m.custom.SavedFilters...), filter)
	if err := m.persistCustomization(next); err != nil {
		return SavedFilter{}, err
	}
	m.custom = next
	return filter, nil
}

// RemoveSavedFilter drops a filter by id. Unknown ids are ignored.
func (m *Manager) RemoveSavedFilter(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.custom
	kept := make([]SavedFilter, 0, len(m.custom.SavedFilters))
	for _, filter := range m.custom.SavedFilters {
		if filter.ID != id {
			kept = append(kept, filter)
		}
	}
	next.SavedFilters = kept
	if err := m.persistCustomization(next); err != nil {
		return err
	}
	m.custom = next
	return nil
}

// Reset restores the defaults and deletes both persisted records. This is the
// explicit preference wipe; logout does not touch preferences.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.st.Delete(store.KeySettings); err != nil {
		return err
	}
	if err := m.st.Delete(store.KeyCustomization); err != nil {
		return err
	}
	m.current = DefaultSettings()
	m.custom = DefaultCustomization()
	return nil
}

func (m *Manager) persistSettings(s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.st.Set(store.KeySettings, string(data))
}

func (m *Manager) persistCustomization(c Customization) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return m.st.Set(store.KeyCustomization, string(data))
}

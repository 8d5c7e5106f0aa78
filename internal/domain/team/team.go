// Package team holds the team registry and gift-name resolution.
package team

import (
	"strings"
	"sync"
)

// Team is one configured battle team. Identity is the ID; the four gift
// name slots (legacy plus low/mid/high tiers) all resolve to this team.
type Team struct {
	ID           string `json:"id" koanf:"id"`
	Name         string `json:"name" koanf:"name"`
	Color        string `json:"color" koanf:"color"`
	Icon         string `json:"icon" koanf:"icon"`
	GiftName     string `json:"giftName" koanf:"gift_name"`
	GiftNameLow  string `json:"giftName_low" koanf:"gift_name_low"`
	GiftNameMid  string `json:"giftName_mid" koanf:"gift_name_mid"`
	GiftNameHigh string `json:"giftName_high" koanf:"gift_name_high"`
	GiftIcon     string `json:"giftIcon" koanf:"gift_icon"`
	GiftIconLow  string `json:"giftIcon_low" koanf:"gift_icon_low"`
	GiftIconMid  string `json:"giftIcon_mid" koanf:"gift_icon_mid"`
	GiftIconHigh string `json:"giftIcon_high" koanf:"gift_icon_high"`
}

// giftSlots returns the four matchable gift-name slots.
func (t Team) giftSlots() [4]string {
	return [4]string{t.GiftName, t.GiftNameLow, t.GiftNameMid, t.GiftNameHigh}
}

// Registry is a read-mostly list of teams in configured order. The engine
// consults it on every gift; the control surface swaps it on config update.
type Registry struct {
	mu    sync.RWMutex
	teams []Team
}

// NewRegistry creates a registry with an initial team list.
func NewRegistry(teams []Team) *Registry {
	r := &Registry{}
	r.Replace(teams)
	return r
}

// Replace swaps the whole team list, keeping configured order.
func (r *Registry) Replace(teams []Team) {
	cp := make([]Team, len(teams))
	copy(cp, teams)
	r.mu.Lock()
	r.teams = cp
	r.mu.Unlock()
}

// Teams returns a copy of the team list in configured order.
func (r *Registry) Teams() []Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]Team, len(r.teams))
	copy(cp, r.teams)
	return cp
}

// IDs returns the team ids in configured order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.teams))
	for i, t := range r.teams {
		ids[i] = t.ID
	}
	return ids
}

// Get returns the team with the given id.
func (r *Registry) Get(id string) (Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// normalize lowercases and trims a gift name for matching.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindByGift resolves a gift name to a team id. Matching is
// case-insensitive and trimmed on both sides, across all four gift-name
// slots. When several teams configure the same gift name, the first team
// in configured order wins. Empty input never matches.
func (r *Registry) FindByGift(giftName string) (string, bool) {
	incoming := normalize(giftName)
	if incoming == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.teams {
		for _, slot := range t.giftSlots() {
			if slot != "" && normalize(slot) == incoming {
				return t.ID, true
			}
		}
	}
	return "", false
}

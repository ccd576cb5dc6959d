package services

import (
	"sort"
	"sync"

	"github.com/zatekoja/clinicavailability/internal/domain/entities"
)

// AvailabilityCache holds the merged availability of one search session, keyed by professional id.
// Readers get copies; all writes go through Merge or the slot/day mutators.
type AvailabilityCache struct {
	mu      sync.RWMutex
	entries map[string]*entities.ProfessionalAvailability
}

// NewAvailabilityCache creates an empty cache
func NewAvailabilityCache() *AvailabilityCache {
	return &AvailabilityCache{
		entries: make(map[string]*entities.ProfessionalAvailability),
	}
}

// Merge stores every entry of incoming, replacing prior entries for the same id.
// Entries for ids not present in incoming are left untouched.
func (c *AvailabilityCache) Merge(incoming map[string]*entities.ProfessionalAvailability) {
	if len(incoming) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, availability := range incoming {
		if availability == nil {
			continue
		}
		c.entries[id] = availability.Clone()
	}
}

// Get returns a copy of the cached availability for id.
func (c *AvailabilityCache) Get(id string) (*entities.ProfessionalAvailability, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	availability, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return availability.Clone(), true
}

// GetMany returns copies of the cached entries among ids. Uncached ids are omitted.
func (c *AvailabilityCache) GetMany(ids []string) map[string]*entities.ProfessionalAvailability {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*entities.ProfessionalAvailability, len(ids))
	for _, id := range ids {
		if availability, ok := c.entries[id]; ok {
			out[id] = availability.Clone()
		}
	}
	return out
}

// Has reports whether id is cached.
func (c *AvailabilityCache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// CachedIDs returns the cached professional ids in ascending order.
func (c *AvailabilityCache) CachedIDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// InvalidateSlot marks the slot matched by m on date as unavailable.
// It reports whether a slot flipped from available to unavailable.
// Uncached professionals or days are a no-op.
func (c *AvailabilityCache) InvalidateSlot(id, date string, m entities.SlotMatcher) bool {
	return c.setSlotAvailability(id, date, m, false)
}

// RestoreSlot marks the slot matched by m on date as available again.
// It reports whether a slot flipped from unavailable to available.
func (c *AvailabilityCache) RestoreSlot(id, date string, m entities.SlotMatcher) bool {
	return c.setSlotAvailability(id, date, m, true)
}

func (c *AvailabilityCache) setSlotAvailability(id, date string, m entities.SlotMatcher, available bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	day := c.entries[id].Day(date)
	if day == nil {
		return false
	}

	for i := range day.Slots {
		if !m.Matches(day.Slots[i]) {
			continue
		}
		if day.Slots[i].Available == available {
			return false
		}
		day.Slots[i].Available = available
		return true
	}
	return false
}

// ReplaceDay swaps one cached day for day. Other days and professionals are untouched.
// It reports false when the professional or the date is not cached.
func (c *AvailabilityCache) ReplaceDay(id string, day entities.ScheduleDay) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.entries[id].Day(day.Date)
	if current == nil {
		return false
	}
	current.Slots = append([]entities.ScheduleSlot{}, day.Slots...)
	return true
}

// Len returns the number of cached professionals
func (c *AvailabilityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

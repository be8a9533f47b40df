package application

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// MirrorEntry is the latest successfully synced tree of one base.
type MirrorEntry struct {
	Base               model.Base
	SyncID             string
	SyncedAt           time.Time
	LastNotificationAt time.Time // zero until a verified notification arrives
	Notifications      int
}

// MirrorCache holds the latest tree of every synced base in memory. Stored
// trees are never mutated; a new sync replaces the whole tree.
type MirrorCache struct {
	mu      sync.RWMutex
	entries map[string]*MirrorEntry
	now     func() time.Time
}

// NewMirrorCache creates an empty MirrorCache.
func NewMirrorCache() *MirrorCache {
	return &MirrorCache{
		entries: make(map[string]*MirrorEntry),
		now:     time.Now,
	}
}

// Put replaces the tree of base.ID, keeping its notification history.
func (c *MirrorCache) Put(syncID string, base model.Base) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[base.ID]
	if !ok {
		entry = &MirrorEntry{}
		c.entries[base.ID] = entry
	}
	entry.Base = base
	entry.SyncID = syncID
	entry.SyncedAt = c.now()
}

// Get returns a copy of the entry for baseID.
func (c *MirrorCache) Get(baseID string) (MirrorEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[baseID]
	if !ok {
		return MirrorEntry{}, false
	}
	return *entry, true
}

// List returns copies of every entry ordered by base id.
func (c *MirrorCache) List() []MirrorEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]MirrorEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base.ID < out[j].Base.ID })
	return out
}

// RecordNotification notes a verified notification for a mirrored base. It
// reports false when the base has not been synced in this process.
func (c *MirrorCache) RecordNotification(baseID string, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[baseID]
	if !ok {
		return false
	}
	entry.LastNotificationAt = at
	entry.Notifications++
	return true
}

// Resolved is the result of looking up a resource address. Table is set for
// table and record addresses; Record only for record addresses.
type Resolved struct {
	Address model.ResourceAddress
	Base    model.Base
	Table   model.Table
	Record  model.Record
}

// Resolve looks up addr in the mirrored trees.
func (c *MirrorCache) Resolve(addr model.ResourceAddress) (Resolved, error) {
	entry, ok := c.Get(addr.BaseID)
	if !ok {
		return Resolved{}, model.NewNotFoundError(fmt.Sprintf("Base '%s' has not been synced.", addr.BaseID))
	}

	res := Resolved{Address: addr, Base: entry.Base}
	if addr.Kind == model.AddressKindBase {
		return res, nil
	}

	table, ok := entry.Base.Tables[addr.TableID]
	if !ok {
		return Resolved{}, model.NewNotFoundError(fmt.Sprintf("Could not find Airtable Table: '%s'", addr.TableID))
	}
	res.Table = table
	if addr.Kind == model.AddressKindTable {
		return res, nil
	}

	record, ok := table.Records[addr.RecordID]
	if !ok {
		return Resolved{}, model.NewNotFoundError(fmt.Sprintf("Could not find Airtable Record: '%s'", addr.RecordID))
	}
	res.Record = record
	return res, nil
}

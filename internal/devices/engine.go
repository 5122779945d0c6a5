/*
SPDX-License-Identifier: GPL-3.0-or-later

Copyright (C) 2025 The NSDevLog Agent Authors

This file is part of NSDevLog Agent.

NSDevLog Agent is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

NSDevLog Agent is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with NSDevLog Agent. If not, see https://www.gnu.org/licenses/.
*/

// nsdevlog-agent/internal/devices/engine.go
// Package devices resolves WWNs seen in the device log to human-readable
// aliases and node symbols, using a secondary index built from the external
// device/port dataset. Lookups are cached in a bounded LRU; NPIV virtual
// WWNs are disambiguated from the physical port hosting them.

package devices

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
	"github.com/sanwatch/nsdevlog-agent/internal/nsdevlog"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// DefaultCacheSize bounds the resolution cache when the config does not
// say otherwise.
const DefaultCacheSize = 10000

type locKey struct {
	sw   string
	slot int
	port int
}

// index is an immutable snapshot of the dataset. Refresh builds a new
// one and swaps the pointer; readers never observe a partial rebuild.
type index struct {
	byWWN      map[string]*model.PortRecord
	byLocation map[locKey]*model.PortRecord
	records    int
}

// Engine is the device resolution engine. Safe for concurrent readers;
// Refresh may run concurrently with in-flight lookups.
type Engine struct {
	idx    atomic.Pointer[index]
	cache  *lru.Cache[string, model.Resolution]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats is a point-in-time snapshot of the engine's coverage and cache
// behaviour.
type Stats struct {
	Records        int
	WithAlias      int
	WithSymbol     int
	NPIVRecords    int
	UniqueSwitches int
	CacheEntries   int
	CacheHits      uint64
	CacheMisses    uint64
}

// NewEngine creates an engine with an empty index and a bounded LRU
// cache. cacheSize <= 0 selects DefaultCacheSize.
func NewEngine(cacheSize int) (*Engine, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := lru.New[string, model.Resolution](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create resolution cache: %w", err)
	}
	return &Engine{cache: c}, nil
}

// Refresh rebuilds the resolution index from a full dataset snapshot and
// invalidates the cache wholesale. On error the previous index stays
// live and the cache is untouched.
func (e *Engine) Refresh(records []model.PortRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("refusing to index an empty device/port dataset")
	}

	next := &index{
		byWWN:      make(map[string]*model.PortRecord, len(records)),
		byLocation: make(map[locKey]*model.PortRecord, len(records)),
	}
	for i := range records {
		rec := &records[i]
		wwn := nsdevlog.NormalizeWWN(rec.WWN)
		if wwn == "" {
			utils.Debug("skipping dataset record with invalid wwn %q", rec.WWN)
			continue
		}
		rec.WWN = wwn
		rec.PhysicalPortWWN = nsdevlog.NormalizeWWN(rec.PhysicalPortWWN)
		next.byWWN[wwn] = rec
		// Location map keeps the physical attachment; virtual WWNs
		// sharing the port must not shadow it.
		key := locKey{sw: rec.Switch, slot: rec.SlotNumber, port: rec.PortNumber}
		if cur, ok := next.byLocation[key]; !ok || (cur.Virtual() && !rec.Virtual()) {
			next.byLocation[key] = rec
		}
		next.records++
	}
	if next.records == 0 {
		return fmt.Errorf("device/port dataset contained no usable records")
	}

	e.idx.Store(next)
	e.cache.Purge()
	utils.Info("device resolution index refreshed: %d records, %d locations",
		next.records, len(next.byLocation))
	return nil
}

// Resolve maps a WWN (plus its switch and slot/port location, used as a
// fallback key) to an alias and node symbol. A miss is a valid outcome,
// returned with Found=false and cached like any other result so repeated
// misses never touch the index again until the next refresh.
func (e *Engine) Resolve(wwn, switchName, slotPort string) model.Resolution {
	key := nsdevlog.NormalizeWWN(wwn)
	if key == "" {
		return model.Resolution{}
	}

	if res, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return res
	}
	e.misses.Add(1)

	idx := e.idx.Load()
	if idx == nil {
		// No dataset loaded yet; do not cache, the index may appear.
		return model.Resolution{}
	}

	rec := idx.byWWN[key]
	if rec == nil {
		if slot, port, ok := nsdevlog.SlotPort(slotPort); ok {
			rec = idx.byLocation[locKey{sw: switchName, slot: slot, port: port}]
		}
	}

	var res model.Resolution
	if rec != nil {
		res = e.resolveRecord(idx, key, rec)
	}
	e.cache.Add(key, res)
	return res
}

// resolveRecord applies the NPIV rule: a WWN equal to its record's
// physical port WWN is attached directly, so the physical port's own
// symbolic name applies. A differing WWN is a virtual N_Port; its own
// symbolic name wins, with the physical port's alias as fallback when
// the virtual WWN has no name of its own.
func (e *Engine) resolveRecord(idx *index, wwn string, rec *model.PortRecord) model.Resolution {
	res := model.Resolution{Alias: rec.ZoneAlias, Found: true}

	if rec.PhysicalPortWWN == "" || rec.PhysicalPortWWN == wwn {
		res.NodeSymbol = rec.Symbol()
		return res
	}

	utils.Debug("NPIV: %s is hosted on physical port %s", wwn, rec.PhysicalPortWWN)
	res.NodeSymbol = rec.Symbol()
	if res.NodeSymbol == "" {
		if phys := idx.byWWN[rec.PhysicalPortWWN]; phys != nil {
			if phys.ZoneAlias != "" {
				res.NodeSymbol = phys.ZoneAlias
			} else {
				res.NodeSymbol = phys.Symbol()
			}
		}
	}
	return res
}

// Stats reports index coverage and cache counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		CacheEntries: e.cache.Len(),
		CacheHits:    e.hits.Load(),
		CacheMisses:  e.misses.Load(),
	}
	idx := e.idx.Load()
	if idx == nil {
		return s
	}
	s.Records = idx.records
	switches := make(map[string]struct{})
	for _, rec := range idx.byWWN {
		if rec.ZoneAlias != "" {
			s.WithAlias++
		}
		if rec.Symbol() != "" {
			s.WithSymbol++
		}
		if rec.Virtual() {
			s.NPIVRecords++
		}
		switches[rec.Switch] = struct{}{}
	}
	s.UniqueSwitches = len(switches)
	return s
}

// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package timing

import "sync"

// KeyedMutex serializes work per key. Time events of the same
// (race, timing point) pair must be processed one at a time while
// disjoint pairs proceed in parallel; one mutex per key gives exactly
// that. Mutexes are never evicted, which is fine for the bounded key
// space of an event's races.
type KeyedMutex struct {
	locks sync.Map
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedMutex) Lock(key string) {
	k.mutex(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedMutex) Unlock(key string) {
	k.mutex(key).Unlock()
}

func (k *KeyedMutex) mutex(key string) *sync.Mutex {
	if mu, ok := k.locks.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// PairKey is the lock key for one (race, timing point) pair.
func PairKey(raceID, timingPoint string) string {
	return raceID + "\x00" + timingPoint
}

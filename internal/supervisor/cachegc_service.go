// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package supervisor

import (
	"context"
	"time"
)

// GarbageCollector matches auth.VerdictCache's RunGC method without
// importing the auth package.
type GarbageCollector interface {
	RunGC(ctx context.Context, interval time.Duration) error
}

// CacheGCService periodically reclaims space in the badger-backed
// verdict cache.
type CacheGCService struct {
	gc       GarbageCollector
	interval time.Duration
}

// NewCacheGCService wraps the collector.
func NewCacheGCService(gc GarbageCollector, interval time.Duration) *CacheGCService {
	return &CacheGCService{gc: gc, interval: interval}
}

// Serve runs GC cycles until ctx is canceled.
func (s *CacheGCService) Serve(ctx context.Context) error {
	return s.gc.RunGC(ctx, s.interval)
}

func (s *CacheGCService) String() string { return "auth-cache-gc" }

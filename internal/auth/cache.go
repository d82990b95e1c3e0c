// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/heatsheet/internal/logging"
)

// VerdictCache stores allow verdicts from the user service in Badger
// with a TTL. Only positive verdicts are cached: a revoked token must
// not stay usable longer than the TTL, and a denied one costs only the
// upstream round trip it would cost anyway.
type VerdictCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewVerdictCache opens (or creates) the Badger store at path.
func NewVerdictCache(path string, ttl time.Duration) (*VerdictCache, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{}).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open verdict cache at %s: %w", path, err)
	}
	return &VerdictCache{db: db, ttl: ttl}, nil
}

// key hashes the token together with the role list, so the same token
// checked against different role sets yields distinct verdicts. The
// raw token never touches disk.
func (c *VerdictCache) key(token string, roles []string) []byte {
	sum := sha256.Sum256([]byte(token + "\x00" + strings.Join(roles, ",")))
	return sum[:]
}

// Allowed reports whether an allow verdict is cached, and the subject
// recorded with it.
func (c *VerdictCache) Allowed(token string, roles []string) (string, bool) {
	var subject string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(token, roles))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			subject = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return subject, true
}

// StoreAllow caches an allow verdict with its subject.
func (c *VerdictCache) StoreAllow(token string, roles []string, subject string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(c.key(token, roles), []byte(subject)).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Warn().Err(err).Msg("failed to cache authorize verdict")
	}
}

// RunGC runs Badger value-log garbage collection until the context is
// canceled. Run it as a supervised background service.
func (c *VerdictCache) RunGC(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// 0.5 reclaims files that are at least half garbage.
			for {
				if err := c.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Close closes the underlying Badger store.
func (c *VerdictCache) Close() error {
	return c.db.Close()
}

// badgerLogger routes Badger's log output into zerolog at debug level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+strings.TrimSpace(format), args...)
}

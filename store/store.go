// Package store is the persistence gateway. The engine saves opaque
// JSON blobs under fixed keys; the backend is picked by configuration
// and hidden behind one small interface.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/scriptrpg/config"
)

// Well-known blob keys.
const (
	KeyScript  = "scriptrpg:script"
	KeySession = "scriptrpg:session"
)

var ErrUnknownMode = errors.New("store: unknown mode")

// Store reads and writes opaque blobs. Get reports presence explicitly
// so callers can tell an empty save from a missing one.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend named by cfg.Mode.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Mode {
	case "sqlite", "mysql":
		return openGorm(cfg)
	case "redis":
		return openRedis(cfg)
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

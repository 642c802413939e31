package repository

import (
	"context"

	"telegram-pizza-shop/internal/domain/model"
)

// SnapshotStore is the port for durable persistence of the full conversation
// snapshot behind a single logical key.
//
// Load must distinguish the three outcomes precisely: genuinely absent data
// yields a fresh empty snapshot, a transport failure yields
// domain.ErrStoreUnavailable, and an undecodable blob yields
// domain.ErrStoreCorrupt (never a silently fabricated empty snapshot).
type SnapshotStore interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	// Save persists the snapshot according to the configured flush policy:
	// immediately by default, or deferred until Flush when on-flush mode is on.
	Save(ctx context.Context, snap *model.Snapshot) error
	// Update runs one atomic load-mutate-save cycle. Cycles are serialized
	// store-wide: the whole blob is read back and rewritten, so two
	// interleaved cycles would erase each other's committed mutations. When
	// fn returns an error nothing is written.
	Update(ctx context.Context, fn func(snap *model.Snapshot) error) error
	// Flush forces any deferred snapshot out to the store.
	Flush(ctx context.Context) error
	// MergeInitial merges a bootstrap seed into whatever is persisted on first
	// boot. Persisted values win; the seed only fills gaps.
	MergeInitial(ctx context.Context, seed model.SharedData) (*model.Snapshot, error)
}

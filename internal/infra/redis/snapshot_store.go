package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/repository"
	"telegram-pizza-shop/internal/infra/metrics"
)

var _ repository.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore persists the whole conversation snapshot as one JSON blob
// under a single key. A snapshot is only ever written after a transition has
// fully completed, so the persisted blob never holds a half-applied state.
type SnapshotStore struct {
	client RedisClient
	key    string

	// onFlush defers writes until Flush; the default is write-through to keep
	// the crash-loss window minimal.
	onFlush bool
	mu      sync.Mutex
	pending *model.Snapshot

	// cycle serializes whole load-mutate-save cycles. Every Load deserializes
	// an independent copy of all sessions, so an unserialized concurrent cycle
	// would write back a stale view and erase another chat's committed
	// transition.
	cycle sync.Mutex

	log *zerolog.Logger
}

func NewSnapshotStore(client RedisClient, key string, onFlush bool, logger *zerolog.Logger) *SnapshotStore {
	l := logger.With().Str("component", "SnapshotStore").Str("store_key", key).Logger()
	return &SnapshotStore{
		client:  client,
		key:     key,
		onFlush: onFlush,
		log:     &l,
	}
}

func (s *SnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %q: %v", domain.ErrStoreUnavailable, s.key, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Not retried and never papered over with fabricated empty data.
		return nil, fmt.Errorf("%w: key %q: %v", domain.ErrStoreCorrupt, s.key, err)
	}
	if snap.Sessions == nil {
		snap.Sessions = make(map[int64]*model.Session)
	}
	if snap.Conversations == nil {
		snap.Conversations = make(map[string]string)
	}
	if snap.CallbackData == nil {
		snap.CallbackData = make(map[string]string)
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	if s.onFlush {
		s.mu.Lock()
		s.pending = snap
		s.mu.Unlock()
		return nil
	}
	return s.write(ctx, snap)
}

func (s *SnapshotStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	s.mu.Unlock()
	if snap == nil {
		return nil
	}
	return s.write(ctx, snap)
}

// Update runs fn against the current snapshot and writes the result back,
// holding the cycle lock for the whole round trip. All snapshot mutation in
// the process goes through here; Load and Save remain exposed for read-only
// inspection and the flush path.
func (s *SnapshotStore) Update(ctx context.Context, fn func(snap *model.Snapshot) error) error {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	snap, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return s.Save(ctx, snap)
}

func (s *SnapshotStore) MergeInitial(ctx context.Context, seed model.SharedData) (*model.Snapshot, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	// Persisted values win; the seed only fills what the store doesn't have.
	if snap.Shared.Credential.Token == "" {
		snap.Shared.Credential = seed.Credential
	}
	if snap.Shared.Menu == nil {
		snap.Shared.Menu = seed.Menu
	}
	if err := s.write(ctx, snap); err != nil {
		return nil, err
	}
	s.log.Info().Msg("snapshot store initialized")
	return snap, nil
}

func (s *SnapshotStore) write(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	start := time.Now()
	if err := s.client.Set(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("%w: set %q: %v", domain.ErrStoreUnavailable, s.key, err)
	}
	metrics.ObserveStoreFlush(time.Since(start).Seconds())
	return nil
}

package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sssssubin/cart-service/internal/pricing"
	pkgredis "github.com/sssssubin/cart-service/pkg/redis"
)

// Snapshot is the persisted cart state, written after every mutation.
// Totals are denormalized for cheap display on load; the cart itself is
// re-priced whenever it is touched.
type Snapshot struct {
	Items          []Line `json:"items"`
	TotalAmount    string `json:"totalAmount"`
	TotalItemCount int    `json:"totalItemCount"`
	LoyaltyPoints  int64  `json:"loyaltyPoints"`
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartStateKey(sessionID string) string
	LastSelectedKey(sessionID string) string
}

// SnapshotStore persists cart snapshots and selection tracking in Redis.
type SnapshotStore struct {
	kv  kvStore
	ttl time.Duration
}

// NewSnapshotStore wires the store to the shared Redis client.
func NewSnapshotStore(kv kvStore, ttl time.Duration) (*SnapshotStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &SnapshotStore{kv: kv, ttl: ttl}, nil
}

// Save writes the session's snapshot.
func (s *SnapshotStore) Save(ctx context.Context, state *State, quote pricing.Result) error {
	snap := Snapshot{
		Items:          state.Lines,
		TotalAmount:    quote.Total.String(),
		TotalItemCount: quote.ItemCount,
		LoyaltyPoints:  quote.LoyaltyPoints,
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return s.kv.Set(ctx, s.kv.CartStateKey(state.SessionID), string(payload), s.ttl)
}

// Load returns the session's cart state. Missing and malformed payloads both
// come back as a fresh empty cart; corrupt state must never be fatal.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*State, error) {
	state := &State{SessionID: sessionID}

	raw, err := s.kv.Get(ctx, s.kv.CartStateKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return state, nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return state, nil
	}
	for _, item := range snap.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		state.Lines = append(state.Lines, item)
	}
	return state, nil
}

// Clear drops the session's snapshot.
func (s *SnapshotStore) Clear(ctx context.Context, sessionID string) error {
	return s.kv.Del(ctx, s.kv.CartStateKey(sessionID))
}

// RecordSelection tracks the product a session last selected. The global
// entry (empty session) feeds the recommendation-sale picker.
func (s *SnapshotStore) RecordSelection(ctx context.Context, sessionID, productID string) error {
	if err := s.kv.Set(ctx, s.kv.LastSelectedKey(sessionID), productID, s.ttl); err != nil {
		return err
	}
	return s.kv.Set(ctx, s.kv.LastSelectedKey(""), productID, s.ttl)
}

// LastSelected returns the most recently selected product id across all
// sessions, or empty when nothing was selected yet.
func (s *SnapshotStore) LastSelected(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, s.kv.LastSelectedKey(""))
	if err != nil {
		if pkgredis.IsNil(err) {
			return "", nil
		}
		return "", err
	}
	return raw, nil
}

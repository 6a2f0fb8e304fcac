package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devispro/devispro/internal/shared"
)

const draftKeyPrefix = "devis:draft:"

// DraftStore keeps in-progress DRAFT quotations in Redis so every edit is
// autosaved cheaply; a background job flushes drafts to the database.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore constructs a draft store. ttl bounds how long an abandoned
// draft survives.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

// Put stores the quotation snapshot, refreshing its TTL.
func (s *DraftStore) Put(ctx context.Context, q *Quotation) error {
	data, err := Serialize(q)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, draftKeyPrefix+q.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("quote: put draft %s: %w", q.ID, err)
	}
	return nil
}

// Get loads a draft by quotation id.
func (s *DraftStore) Get(ctx context.Context, id string) (*Quotation, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("quote: get draft %s: %w", id, err)
	}
	return Deserialize(data)
}

// Delete removes a draft once the quotation leaves DRAFT.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, draftKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("quote: delete draft %s: %w", id, err)
	}
	return nil
}

// ListIDs returns the ids of every stored draft.
func (s *DraftStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, draftKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(draftKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("quote: scan drafts: %w", err)
	}
	return ids, nil
}

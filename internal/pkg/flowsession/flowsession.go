package flowsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no live session exists for an id.
var ErrNotFound = errors.New("flowsession: session not found")

// State is the position of a client inside a multi-step flow.
type State string

const (
	// StateAwaitingToken means a delivery token is out and has not been redeemed.
	StateAwaitingToken State = "awaiting_token"

	// StateAwaitingCode means the token was redeemed and a code is pending entry.
	StateAwaitingCode State = "awaiting_code"
)

// Session is the per-client flow record.
//
// The id is an opaque value handed to the client as a cookie; everything else
// lives server-side in Redis.
type Session struct {
	ID        string    `json:"id"`
	SubjectID int64     `json:"subject_id"`
	TokenID   string    `json:"token_id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps flow sessions in Redis with a fixed lifetime.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore builds a session store. Sessions expire ttl after their last Put.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Store{
		client: client,
		prefix: "flow:session:",
		ttl:    ttl,
	}
}

// Put writes the session and (re)arms its TTL.
func (s *Store) Put(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("flowsession: marshal %q: %w", sess.ID, err)
	}

	if err := s.client.Set(ctx, s.prefix+sess.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("flowsession: put %q: %w", sess.ID, err)
	}

	return nil
}

// Get returns the live session for id, or ErrNotFound when it expired or never
// existed.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("flowsession: get %q: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("flowsession: decode %q: %w", id, err)
	}

	return &sess, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("flowsession: delete %q: %w", id, err)
	}

	return nil
}

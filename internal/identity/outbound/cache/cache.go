package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tokenKeyPrefix = "reset:token:"
	codeKeyPrefix  = "reset:code:"
)

// Cache holds the short-lived password-reset artifacts: delivery-token records
// keyed by the keyed hash of the opaque token, and verification-code hashes
// keyed by subject.
//
// Both kinds of entries are single-use. Redemption and consumption are done
// with GETDEL so that concurrent attempts can succeed at most once, without a
// watch/retry loop.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{
		client: client,
		ins:    ins,
	}
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IssueDeliveryToken stores the record behind an emailed QR link. The caller
// hashes the plaintext token; only the hash reaches the cache.
func (s *Cache) IssueDeliveryToken(ctx context.Context, tokenHash string, rec entity.DeliveryToken, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "IssueDeliveryToken")
	defer func() { s.endSpan(span, err) }()

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode delivery token record: %w", err)
	}

	err = s.client.Set(ctx, tokenKeyPrefix+tokenHash, raw, ttl).Err()
	return err
}

// RedeemDeliveryToken takes the record for tokenHash and removes it in one
// atomic step. The first caller wins; every later caller gets ErrNotFound,
// which also covers expired and never-issued tokens.
func (s *Cache) RedeemDeliveryToken(ctx context.Context, tokenHash string) (_ *entity.DeliveryToken, err error) {
	ctx, span := s.startSpan(ctx, "RedeemDeliveryToken")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.GetDel(ctx, tokenKeyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec entity.DeliveryToken
	if err = json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode delivery token record: %w", err)
	}

	return &rec, nil
}

// RevokeDeliveryToken discards an issued token, e.g. when the email carrying
// it could not be sent or when a resend supersedes it.
func (s *Cache) RevokeDeliveryToken(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeDeliveryToken")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Del(ctx, tokenKeyPrefix+tokenHash).Err()
	return err
}

// SaveVerificationCode stores the code hash for a subject. A subject has at
// most one live code: writing a new one overwrites whatever was there.
func (s *Cache) SaveVerificationCode(ctx context.Context, subjectID int64, codeHash string, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "SaveVerificationCode")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Set(ctx, fmt.Sprintf("%s%d", codeKeyPrefix, subjectID), codeHash, ttl).Err()
	return err
}

// ConsumeVerificationCode takes the stored code hash for a subject and removes
// it in one atomic step. The code is spent no matter what the caller decides
// about the comparison afterwards.
func (s *Cache) ConsumeVerificationCode(ctx context.Context, subjectID int64) (_ string, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeVerificationCode")
	defer func() { s.endSpan(span, err) }()

	codeHash, err := s.client.GetDel(ctx, fmt.Sprintf("%s%d", codeKeyPrefix, subjectID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", goerror.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return codeHash, nil
}

// DropVerificationCode discards a stored code, e.g. when the email carrying it
// could not be sent.
func (s *Cache) DropVerificationCode(ctx context.Context, subjectID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DropVerificationCode")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Del(ctx, fmt.Sprintf("%s%d", codeKeyPrefix, subjectID)).Err()
	return err
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "idempotency"

var (
	// ErrInFlight is returned when a request with the same key is still running
	ErrInFlight = errors.New("request with this idempotency key is in progress")
	// ErrFingerprintMismatch is returned when a key is reused for a different request
	ErrFingerprintMismatch = errors.New("idempotency key was used for a different request")
)

// Response is a stored HTTP response replayed for a repeated request
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// record is what lives under a key: the fingerprint of the request that
// claimed it and, once finished, its response
type record struct {
	Fingerprint string    `json:"fingerprint"`
	Response    *Response `json:"response,omitempty"`
}

// Fingerprint identifies a request by method, route template and body.
// Two requests with the same fingerprint are the same request.
func Fingerprint(method, route string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{' '})
	h.Write([]byte(route))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// IdempotencyStore remembers the outcome of requests carrying an
// Idempotency-Key so a retry gets the first answer instead of a second write.
type IdempotencyStore struct {
	client *redis.Client
	scope  string
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose keys live under scope and expire after ttl
func NewIdempotencyStore(client *redis.Client, scope string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, scope: scope, ttl: ttl}
}

func (s *IdempotencyStore) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", idempotencyPrefix, s.scope, k)
}

// Begin claims key for the request identified by fingerprint. It returns
// (nil, nil) when the caller owns the key and must run the request, the
// stored response when the same request already completed, ErrInFlight when
// the same request is still running, or ErrFingerprintMismatch when the key
// belongs to a different request.
func (s *IdempotencyStore) Begin(ctx context.Context, key, fingerprint string) (*Response, error) {
	pending, err := json.Marshal(record{Fingerprint: fingerprint})
	if err != nil {
		return nil, fmt.Errorf("encode idempotency record: %w", err)
	}
	claimed, err := s.client.SetNX(ctx, s.key(key), pending, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SetNX and Get; try once more
		return s.Begin(ctx, key, fingerprint)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}

	var stored record
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	switch {
	case stored.Fingerprint != fingerprint:
		return nil, ErrFingerprintMismatch
	case stored.Response == nil:
		return nil, ErrInFlight
	}
	return stored.Response, nil
}

// Complete stores the response of the request identified by fingerprint
func (s *IdempotencyStore) Complete(ctx context.Context, key, fingerprint string, resp Response) error {
	data, err := json.Marshal(record{Fingerprint: fingerprint, Response: &resp})
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl).Err()
}

// Abort releases key without storing a response so the request can be retried
func (s *IdempotencyStore) Abort(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

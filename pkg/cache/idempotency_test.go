package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fp = Fingerprint("POST", "/v1/rides", []byte(`{"member_id":"94031820982","bike_id":1}`))

func newStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewIdempotencyStore(client, "rides", time.Hour), mr
}

func TestIdempotencyStore_FirstCallerOwnsTheKey(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	resp, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.True(t, mr.Exists("idempotency:rides:abc"))

	_, err = store.Begin(ctx, "abc", fp)
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestIdempotencyStore_ReplaysCompletedResponse(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	body := json.RawMessage(`{"id":7}`)
	require.NoError(t, store.Complete(ctx, "abc", fp, Response{Status: http.StatusCreated, Body: body}))

	resp, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"id":7}`, string(resp.Body))
}

func TestIdempotencyStore_RejectsReuseForDifferentRequest(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	other := Fingerprint("POST", "/v1/rides", []byte(`{"member_id":"94031820982","bike_id":2}`))

	_, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)

	_, err = store.Begin(ctx, "abc", other)
	assert.ErrorIs(t, err, ErrFingerprintMismatch)

	require.NoError(t, store.Complete(ctx, "abc", fp, Response{Status: http.StatusCreated, Body: json.RawMessage(`{"id":7}`)}))
	resp, err := store.Begin(ctx, "abc", other)
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
	assert.Nil(t, resp)
}

func TestFingerprint(t *testing.T) {
	body := []byte(`{"bike_id":1}`)

	assert.Equal(t, Fingerprint("POST", "/v1/rides", body), Fingerprint("POST", "/v1/rides", body))
	assert.NotEqual(t, Fingerprint("POST", "/v1/rides", body), Fingerprint("POST", "/v1/rides", []byte(`{"bike_id":2}`)))
	assert.NotEqual(t, Fingerprint("POST", "/v1/rides", body), Fingerprint("PUT", "/v1/rides", body))
	assert.Len(t, Fingerprint("POST", "/v1/rides", nil), 64)
}

func TestIdempotencyStore_AbortAllowsRetry(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	require.NoError(t, store.Abort(ctx, "abc"))

	resp, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestIdempotencyStore_KeysExpire(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	resp, err := store.Begin(ctx, "abc", fp)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestIdempotencyStore_RedisDown(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	_, err := store.Begin(context.Background(), "abc", fp)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInFlight)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), Config{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	defer Close(client)

	stats := GetClientStats(client)
	assert.Contains(t, stats, "total_conns")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := NewRedisClient(context.Background(), Config{Host: host, Port: port, DialTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odontosorriso/booking-platform/internal/clinic"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, nil), mr
}

func TestRedisStoreUpdateAndGet(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "5511999990000", func(s *Session) error {
		s.State = StateCollectingDate
		s.Draft.Treatment = "limpeza"
		s.Append(FromPatient, "quero uma limpeza", time.Now().UTC())
		return nil
	})
	require.NoError(t, err)

	sess, err := store.Get(ctx, "5511999990000")
	require.NoError(t, err)
	assert.Equal(t, StateCollectingDate, sess.State)
	assert.Equal(t, clinic.TreatmentLimpeza, sess.Draft.Treatment)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, FromPatient, sess.Messages[0].From)
}

func TestRedisStoreGetUnknownPhone(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "5500000000000")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUpdateErrorDiscardsMutation(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "5511999990000", func(s *Session) error {
		s.Append(FromPatient, "Oi", time.Now().UTC())
		return nil
	})
	require.NoError(t, err)

	_, err = store.Update(ctx, "5511999990000", func(s *Session) error {
		s.Append(FromPatient, "descartada", time.Now().UTC())
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	sess, err := store.Get(ctx, "5511999990000")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 1)
}

func TestRedisStoreListNewestFirst(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	current := base
	store = store.WithClock(func() time.Time { return current })

	_, err := store.Update(ctx, "5511000000001", func(s *Session) error { return nil })
	require.NoError(t, err)

	current = base.Add(time.Minute)
	_, err = store.Update(ctx, "5511000000002", func(s *Session) error { return nil })
	require.NoError(t, err)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "5511000000002", sessions[0].Phone)
	assert.Equal(t, "5511000000001", sessions[1].Phone)
}

func TestRedisStoreSetsTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)

	_, err := store.Update(context.Background(), "5511999990000", func(s *Session) error { return nil })
	require.NoError(t, err)

	ttl := mr.TTL(sessionKey("5511999990000"))
	assert.Greater(t, ttl, 29*24*time.Hour)
}

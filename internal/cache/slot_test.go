package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot(t *testing.T, slot Slot) {
	ctx := context.Background()

	_, err := slot.Get(ctx, "session-a")
	assert.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, slot.Set(ctx, "session-a", []byte("first")))
	require.NoError(t, slot.Set(ctx, "session-a", []byte("second")))
	require.NoError(t, slot.Set(ctx, "session-b", []byte("other")))

	got, err := slot.Get(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	got, err = slot.Get(ctx, "session-b")
	require.NoError(t, err)
	assert.Equal(t, "other", string(got))

	require.NoError(t, slot.Delete(ctx, "session-b"))
	_, err = slot.Get(ctx, "session-b")
	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func testSlotWatch(t *testing.T, slot Slot) {
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := slot.Watch(ctx, "session-w")
	require.NoError(t, err)

	require.NoError(t, slot.Set(context.Background(), "session-w", []byte("v1")))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after write")
	}

	cancel()

	// the channel is closed once the watch context is done
	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemorySlot(t *testing.T) {
	testSlot(t, NewMemorySlot())
	testSlotWatch(t, NewMemorySlot())
}

func TestFileSlot(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)

	testSlot(t, slot)
	testSlotWatch(t, slot)
}

func TestFileSlot_KeyIsSanitized(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir)
	require.NoError(t, err)

	require.NoError(t, slot.Set(context.Background(), "../escape:key", []byte("x")))
	assert.Contains(t, slot.path("../escape:key"), slot.dir)
}

func TestRedisSlot(t *testing.T) {
	s := miniredis.RunT(t)

	slot, err := NewRedisSlot("redis://"+s.Addr(), 0)
	require.NoError(t, err)
	defer slot.Close()

	testSlot(t, slot)
	testSlotWatch(t, slot)
}

func TestRedisSlot_TTL(t *testing.T) {
	s := miniredis.RunT(t)

	slot, err := NewRedisSlot("redis://"+s.Addr(), time.Minute)
	require.NoError(t, err)
	defer slot.Close()

	ctx := context.Background()
	require.NoError(t, slot.Set(ctx, "session-ttl", []byte("v")))

	s.FastForward(2 * time.Minute)

	_, err = slot.Get(ctx, "session-ttl")
	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestNewRedisSlot_BadURL(t *testing.T) {
	_, err := NewRedisSlot("://nope", 0)
	assert.Error(t, err)
}

package scriptcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha1Hex(t *testing.T, body []byte) string {
	t.Helper()
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}

// TestScriptReferenceCounting implements spec.md §8 scenario 4.
func TestScriptReferenceCounting(t *testing.T) {
	c := NewCache(nil, nil)
	ctx := context.Background()
	body := []byte("FOO")

	d1 := c.Add(ctx, body)
	d2 := c.Add(ctx, body)
	assert.Equal(t, d1, d2)
	assert.Equal(t, sha1Hex(t, body), d1)

	c.Remove(ctx, d1)
	got, ok := c.Get(ctx, d1)
	require.True(t, ok, "entry must survive one of two Remove calls")
	assert.Equal(t, body, got)

	c.Remove(ctx, d1)
	_, ok = c.Get(ctx, d1)
	assert.False(t, ok, "entry must be gone once refcount reaches zero")
}

func TestDigestFormat(t *testing.T) {
	d := Digest([]byte("hello"))
	assert.Len(t, d, 40)
	assert.Regexp(t, "^[0-9a-f]{40}$", d)
}

func TestAddRemove_ReturnsToPriorState(t *testing.T) {
	c := NewCache(nil, nil)
	ctx := context.Background()
	body := []byte("some script body")

	_, before := c.Get(ctx, Digest(body))
	require.False(t, before)

	d := c.Add(ctx, body)
	c.Remove(ctx, d)

	_, after := c.Get(ctx, d)
	assert.Equal(t, before, after)
}

func TestGet_Absent(t *testing.T) {
	c := NewCache(nil, nil)
	_, ok := c.Get(context.Background(), "0000000000000000000000000000000000000000")
	assert.False(t, ok)
}

func TestRemove_AbsentIsSilent(t *testing.T) {
	c := NewCache(nil, nil)
	assert.NotPanics(t, func() {
		c.Remove(context.Background(), "absent")
	})
}

func TestRemove_AlreadyZeroIsSilent(t *testing.T) {
	c := NewCache(nil, nil)
	ctx := context.Background()
	d := c.Add(ctx, []byte("BAR"))
	c.Remove(ctx, d)

	assert.NotPanics(t, func() {
		c.Remove(ctx, d)
	})
}

func TestAdd_MutatingCallerBufferDoesNotCorruptEntry(t *testing.T) {
	c := NewCache(nil, nil)
	ctx := context.Background()

	buf := []byte("original")
	d := c.Add(ctx, buf)
	buf[0] = 'X'

	got, ok := c.Get(ctx, d)
	require.True(t, ok)
	assert.Equal(t, "original", string(got))
}

func TestBlockingWrappers(t *testing.T) {
	c := NewCache(nil, nil)
	body := []byte("BLOCKING")

	d := c.AddBlocking(body)
	got, ok := c.GetBlocking(d)
	require.True(t, ok)
	assert.Equal(t, body, got)

	c.RemoveBlocking(d)
	_, ok = c.GetBlocking(d)
	assert.False(t, ok)
}

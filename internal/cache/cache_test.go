package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

var testKey = Key{Class: ClassManifest, URL: "https://raw.githubusercontent.com/acme/tools/main/.claude-plugin/marketplace.json"}

// counter returns a FetchFunc that yields successive values "v1", "v2", ...
func counter(calls *atomic.Int32) FetchFunc {
	return func(context.Context) (any, error) {
		return fmt.Sprintf("v%d", calls.Add(1)), nil
	}
}

func TestMemoryCache_GetOrFetch(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		advance   time.Duration
		wantFirst string
		wantAfter string
		wantCalls int32
	}{
		{
			name:      "fresh entry is served without refetching",
			advance:   59 * time.Minute,
			wantFirst: "v1",
			wantAfter: "v1",
			wantCalls: 1,
		},
		{
			name:      "stale entry is served then refreshed",
			advance:   61 * time.Minute,
			wantFirst: "v1",
			wantAfter: "v2",
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clk := testingclock.NewFakePassiveClock(t0)
			c := New(WithClock(clk))
			var calls atomic.Int32

			v, err := c.GetOrFetch(context.Background(), testKey, time.Hour, counter(&calls))
			require.NoError(t, err)
			assert.Equal(t, "v1", v)

			clk.SetTime(t0.Add(tt.advance))

			v, err = c.GetOrFetch(context.Background(), testKey, time.Hour, counter(&calls))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFirst, v, "second lookup never blocks on a refresh")

			c.Wait()

			v, err = c.GetOrFetch(context.Background(), testKey, time.Hour, counter(&calls))
			require.NoError(t, err)
			assert.Equal(t, tt.wantAfter, v)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestMemoryCache_FailuresAreNotStored(t *testing.T) {
	t.Parallel()

	c := New()
	errNotFound := errors.New("HTTP 404")
	var calls atomic.Int32

	failing := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, errNotFound
	}

	_, err := c.GetOrFetch(context.Background(), testKey, time.Hour, failing)
	require.ErrorIs(t, err, errNotFound)
	assert.Equal(t, 0, c.Len())

	_, err = c.GetOrFetch(context.Background(), testKey, time.Hour, failing)
	require.ErrorIs(t, err, errNotFound)
	assert.Equal(t, int32(2), calls.Load(), "every call retries after a failure")
}

func TestMemoryCache_FailedRefreshKeepsStaleValue(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clk := testingclock.NewFakePassiveClock(t0)
	c := New(WithClock(clk))

	_, err := c.GetOrFetch(context.Background(), testKey, time.Minute, func(context.Context) (any, error) {
		return "good", nil
	})
	require.NoError(t, err)

	clk.SetTime(t0.Add(2 * time.Minute))

	failing := func(context.Context) (any, error) { return nil, errors.New("Network error") }
	v, err := c.GetOrFetch(context.Background(), testKey, time.Minute, failing)
	require.NoError(t, err)
	assert.Equal(t, "good", v)

	c.Wait()

	v, err = c.GetOrFetch(context.Background(), testKey, time.Minute, failing)
	require.NoError(t, err)
	assert.Equal(t, "good", v)
	c.Wait()
}

func TestMemoryCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	t.Parallel()

	c := New()
	var calls atomic.Int32
	release := make(chan struct{})

	slow := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), testKey, time.Hour, slow)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestMemoryCache_ClassesAreIndependent(t *testing.T) {
	t.Parallel()

	c := New()
	url := "https://github.com/acme/tools"

	manifest, err := c.GetOrFetch(context.Background(), Key{Class: ClassManifest, URL: url}, time.Hour,
		func(context.Context) (any, error) { return "manifest", nil })
	require.NoError(t, err)

	metadata, err := c.GetOrFetch(context.Background(), Key{Class: ClassRepoMetadata, URL: url}, 24*time.Hour,
		func(context.Context) (any, error) { return "metadata", nil })
	require.NoError(t, err)

	assert.Equal(t, "manifest", manifest)
	assert.Equal(t, "metadata", metadata)
	assert.Equal(t, 2, c.Len())

	c.Invalidate(Key{Class: ClassManifest, URL: url})
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestFetch_Typed(t *testing.T) {
	t.Parallel()

	type metadata struct{ Stars int }
	c := New()

	got, err := Fetch(context.Background(), c, testKey, time.Hour, func(context.Context) (*metadata, error) {
		return &metadata{Stars: 42}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got.Stars)

	_, err = Fetch(context.Background(), c, testKey, time.Hour, func(context.Context) (string, error) {
		return "unused", nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holds")
}

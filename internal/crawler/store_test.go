package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryClaims(t *testing.T) {
	t.Parallel()

	claims := NewMemoryClaims()
	require.True(t, claims.TryClaim(context.Background(), "https://example.org/first"))
	require.False(t, claims.TryClaim(context.Background(), "https://example.org/first"))
	require.True(t, claims.TryClaim(context.Background(), "https://example.org/second"))
	require.False(t, claims.TryClaim(context.Background(), ""))
	require.Equal(t, 2, claims.Len())
}

func TestMemoryClaimsSingleWinnerUnderContention(t *testing.T) {
	t.Parallel()

	const racers = 64
	claims := NewMemoryClaims()
	var (
		wins  atomic.Int32
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if claims.TryClaim(context.Background(), "https://example.org/contended") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())
	require.Equal(t, 1, claims.Len())
}

func TestRegistryRecordIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.True(t, reg.Record(NewLink("http://x/", 0)))
	require.False(t, reg.Record(NewLink("http://x/", 0)))
	require.True(t, reg.Record(NewLink("http://x/a", 1)))
	require.Equal(t, 2, reg.Len())
}

func TestRegistryFreezeRejectsWrites(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Record(NewLink("http://x/", 0))
	reg.Freeze()
	require.True(t, reg.Frozen())
	require.False(t, reg.Record(NewLink("http://x/late", 1)))
	require.Equal(t, []Link{NewLink("http://x/", 0)}, reg.Snapshot())
}

func TestRegistrySnapshotIsSortedCopy(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Record(NewLink("http://x/c", 1))
	reg.Record(NewLink("http://x/a", 2))
	reg.Record(NewLink("http://x/b", 1))

	snap := reg.Snapshot()
	require.Equal(t, []string{"http://x/a", "http://x/b", "http://x/c"}, urlsOf(snap))

	snap[0] = NewLink("http://mutated/", 0)
	require.Equal(t, "http://x/a", reg.Snapshot()[0].URL())
}

func TestRegistryConcurrentRecord(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				reg.Record(NewLink(fmt.Sprintf("http://x/%d", i), 1))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 200, reg.Len())
}

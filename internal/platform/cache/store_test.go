package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_SharesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "board", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for range workers {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "scoreboard:pool-1:0", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "board" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	var calls atomic.Int32
	errBoom := errors.New("boom")

	loader := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errBoom
		}
		return 7, nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); !errors.Is(err, errBoom) {
		t.Fatalf("expected first load error, got %v", err)
	}
	got, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got != 7 || calls.Load() != 2 {
		t.Fatalf("unexpected result got=%d calls=%d", got, calls.Load())
	}
}

func TestStore_ExpiresAndDeletesPrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	now := time.Date(2026, 9, 13, 20, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	store.Set(ctx, "scoreboard:pool-1:0", "overall")
	store.Set(ctx, "scoreboard:pool-1:3", "week 3")
	store.Set(ctx, "scoreboard:pool-2:0", "other")

	store.DeletePrefix(ctx, "scoreboard:pool-1:")
	if _, ok := store.Get(ctx, "scoreboard:pool-1:3"); ok {
		t.Fatalf("expected pool-1 entries to be evicted")
	}
	if _, ok := store.Get(ctx, "scoreboard:pool-2:0"); !ok {
		t.Fatalf("expected pool-2 entry to survive prefix delete")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(ctx, "scoreboard:pool-2:0"); ok {
		t.Fatalf("expected entry to expire after ttl")
	}
}

func TestStore_GetOrLoad_DropsLoadsOverlappingInvalidation(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	ctx := context.Background()

	got, err := store.GetOrLoad(ctx, "scoreboard:pool-1:0", func(context.Context) (string, error) {
		store.DeletePrefix(ctx, "scoreboard:pool-1:")
		return "stale", nil
	})
	if err != nil || got != "stale" {
		t.Fatalf("unexpected first load got=%q err=%v", got, err)
	}
	if _, ok := store.Get(ctx, "scoreboard:pool-1:0"); ok {
		t.Fatalf("expected load overlapping invalidation to be discarded")
	}

	got, err = store.GetOrLoad(ctx, "scoreboard:pool-1:0", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || got != "fresh" {
		t.Fatalf("unexpected reload got=%q err=%v", got, err)
	}
	if v, ok := store.Get(ctx, "scoreboard:pool-1:0"); !ok || v != "fresh" {
		t.Fatalf("expected fresh value cached, got %q ok=%v", v, ok)
	}
}

func TestStore_GetOrLoad_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	loaderErr := make(chan error, 1)
	var calls atomic.Int32

	loader := func(ctx context.Context) (string, error) {
		if calls.Add(1) > 1 {
			return "board", nil
		}
		close(started)
		<-release
		loaderErr <- ctx.Err()
		return "board", nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := store.GetOrLoad(first, "scoreboard:pool-1:0", loader)
		firstDone <- err
	}()
	<-started

	secondDone := make(chan string, 1)
	go func() {
		v, err := store.GetOrLoad(context.Background(), "scoreboard:pool-1:0", loader)
		if err != nil {
			v = "error: " + err.Error()
		}
		secondDone <- v
	}()

	cancel()
	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller must return its ctx error, got %v", err)
	}

	close(release)
	if err := <-loaderErr; err != nil {
		t.Fatalf("shared load must not see the first caller's cancellation: %v", err)
	}
	if v := <-secondDone; v != "board" {
		t.Fatalf("waiting caller got %q", v)
	}
	if v, ok := store.Get(context.Background(), "scoreboard:pool-1:0"); !ok || v != "board" {
		t.Fatalf("expected the shared load to be cached, got %q ok=%v", v, ok)
	}
}

func TestStore_GetOrLoad_BoundsSharedLoad(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	store.SetLoadTimeout(10 * time.Millisecond)

	_, err := store.GetOrLoad(context.Background(), "scoreboard:pool-1:0", func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the load timeout, got %v", err)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

type countingBuilder struct {
	calls   atomic.Int64
	version atomic.Int64
}

func (b *countingBuilder) build(ctx context.Context, electionID int) ([]byte, error) {
	b.calls.Add(1)
	return []byte(fmt.Sprintf(`{"election":%d,"v":%d}`, electionID, b.version.Load())), nil
}

func TestKey(t *testing.T) {
	if Key(12) != "geojson:election:12" {
		t.Fatalf("key = %s", Key(12))
	}
	seen := map[string]int{}
	for id := -5; id < 1000; id++ {
		k := Key(id)
		if prev, ok := seen[k]; ok {
			t.Fatalf("collision %d and %d", prev, id)
		}
		seen[k] = id
	}
}

func TestSecondGetServedFromCache(t *testing.T) {
	b := &countingBuilder{}
	c := NewGeoJSON(NewMemoryStore(), b.build)
	ctx := context.Background()

	first, err := c.Get(ctx, 7, false)
	if err != nil {
		t.Fatal(err)
	}
	b.version.Store(1)
	second, err := c.Get(ctx, 7, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("second call recomputed: %s vs %s", first, second)
	}
	if n := b.calls.Load(); n != 1 {
		t.Fatalf("builder called %d times", n)
	}
}

// regenerate 请求返回空对象而不是新数据；这是沿用的接口约定，调用方需再发一次普通请求取数据
func TestRegenerateReturnsEmptyAndRefreshesCache(t *testing.T) {
	b := &countingBuilder{}
	c := NewGeoJSON(NewMemoryStore(), b.build)
	ctx := context.Background()

	if _, err := c.Get(ctx, 7, false); err != nil {
		t.Fatal(err)
	}
	b.version.Store(2)
	got, err := c.Get(ctx, 7, true)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "{}" {
		t.Fatalf("regenerate body = %s", got)
	}
	after, _ := c.Get(ctx, 7, false)
	if string(after) != `{"election":7,"v":2}` {
		t.Fatalf("cache not refreshed: %s", after)
	}
	if n := b.calls.Load(); n != 2 {
		t.Fatalf("builder called %d times", n)
	}
}

func TestRegenerateBodyNotShared(t *testing.T) {
	b := &countingBuilder{}
	c := NewGeoJSON(NewMemoryStore(), b.build)
	ctx := context.Background()
	first, err := c.Get(ctx, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 'x'
	second, err := c.Get(ctx, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if string(second) != "{}" {
		t.Fatalf("regenerate body = %s", second)
	}
}

func TestRegenerateSkipsCacheRead(t *testing.T) {
	b := &countingBuilder{}
	c := NewGeoJSON(NewMemoryStore(), b.build)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := c.Regenerate(ctx, 1); err != nil {
			t.Fatal(err)
		}
	}
	if n := b.calls.Load(); n != 3 {
		t.Fatalf("builder called %d times, want 3", n)
	}
}

func TestKeyedPerElection(t *testing.T) {
	b := &countingBuilder{}
	c := NewGeoJSON(NewMemoryStore(), b.build)
	ctx := context.Background()
	one, _ := c.Get(ctx, 1, false)
	two, _ := c.Get(ctx, 2, false)
	if string(one) == string(two) {
		t.Fatal("elections share a cache entry")
	}
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingStore) Set(context.Context, string, []byte) error        { return f.err }

func TestErrorsPropagate(t *testing.T) {
	boom := errors.New("redis down")
	c := NewGeoJSON(failingStore{boom}, (&countingBuilder{}).build)
	if _, err := c.Get(context.Background(), 1, false); !errors.Is(err, boom) {
		t.Fatalf("read err = %v", err)
	}
	if _, err := c.Get(context.Background(), 1, true); !errors.Is(err, boom) {
		t.Fatalf("write err = %v", err)
	}
	buildErr := errors.New("query failed")
	c = NewGeoJSON(NewMemoryStore(), func(context.Context, int) ([]byte, error) { return nil, buildErr })
	if _, err := c.Get(context.Background(), 1, false); !errors.Is(err, buildErr) {
		t.Fatalf("build err = %v", err)
	}
}

func TestConcurrentRegenerationsConverge(t *testing.T) {
	store := NewMemoryStore()
	var n atomic.Int64
	c := NewGeoJSON(store, func(ctx context.Context, id int) ([]byte, error) {
		return []byte(fmt.Sprintf("%d", n.Add(1))), nil
	})
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Regenerate(ctx, 3)
		}()
	}
	wg.Wait()
	got, ok, _ := store.Get(ctx, Key(3))
	if !ok || len(got) == 0 {
		t.Fatal("no value stored")
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	val := []byte("abc")
	_ = s.Set(ctx, "k", val)
	val[0] = 'z'
	got, ok, _ := s.Get(ctx, "k")
	if !ok || string(got) != "abc" {
		t.Fatalf("got %s", got)
	}
	got[0] = 'y'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("store mutated through returned slice: %s", again)
	}
	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Fatal("unexpected hit")
	}
}

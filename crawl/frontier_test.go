package crawl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_Push(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate URLs", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(1000, 0.01)

		assert.True(t, f.Push(dockb.CrawlLink{URL: "https://example.com/docs/a"}))
		assert.False(t, f.Push(dockb.CrawlLink{URL: "https://example.com/docs/a", Depth: 1}))
		assert.Equal(t, 1, f.Len())
	})

	t.Run("treats URLs differing by fragment as duplicates", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(1000, 0.01)

		assert.True(t, f.Push(dockb.CrawlLink{URL: "https://example.com/a#intro"}))
		assert.False(t, f.Push(dockb.CrawlLink{URL: "https://example.com/a#usage"}))
		assert.True(t, f.Seen("https://example.com/a"))

		link, ok := f.Pop()
		require.True(t, ok)
		assert.Equal(t, "https://example.com/a", link.URL)
	})
}

func TestFrontier_Pop(t *testing.T) {
	t.Parallel()

	t.Run("returns shallowest links first in push order", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(1000, 0.01)
		f.Push(dockb.CrawlLink{URL: "https://x.com/d2", Depth: 2})
		f.Push(dockb.CrawlLink{URL: "https://x.com/d1-first", Depth: 1})
		f.Push(dockb.CrawlLink{URL: "https://x.com/d0", Depth: 0})
		f.Push(dockb.CrawlLink{URL: "https://x.com/d1-second", Depth: 1})

		var got []string
		for {
			link, ok := f.Pop()
			if !ok {
				break
			}
			got = append(got, link.URL)
		}

		assert.Equal(t, []string{
			"https://x.com/d0",
			"https://x.com/d1-first",
			"https://x.com/d1-second",
			"https://x.com/d2",
		}, got)
	})

	t.Run("remembers popped URLs", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(1000, 0.01)
		f.Push(dockb.CrawlLink{URL: "https://x.com/a"})
		f.Pop()

		assert.Equal(t, 0, f.Len())
		assert.False(t, f.Push(dockb.CrawlLink{URL: "https://x.com/a"}))
	})

	t.Run("returns false when empty", func(t *testing.T) {
		t.Parallel()

		_, ok := crawl.NewFrontier(10, 0.01).Pop()
		assert.False(t, ok)
	})
}

func TestFrontier_ConcurrentPush(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(10000, 0.001)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Push(dockb.CrawlLink{URL: fmt.Sprintf("https://x.com/page-%d", i)})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, f.Len())
}

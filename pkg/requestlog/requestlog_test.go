package requestlog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LogAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(10)
	e := &Entry{Method: "GET", Path: "/a"}
	s.Log(e)

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Same(t, e, s.Get(e.ID))
	assert.Nil(t, s.Get("missing"))
}

func TestMemoryStore_LogNil(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(10)
	s.Log(nil)
	assert.Equal(t, 0, s.Count())
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		s.Log(&Entry{Path: fmt.Sprintf("/%d", i)})
	}

	require.Equal(t, 3, s.Count())
	list := s.List(nil)
	assert.Equal(t, "/4", list[0].Path)
	assert.Equal(t, "/2", list[2].Path)
}

func TestMemoryStore_DefaultCapacity(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(0)
	assert.Equal(t, DefaultCapacity, s.capacity)
}

func TestMemoryStore_ListFilter(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(10)
	s.Log(&Entry{Method: "GET", Path: "/api/a", Outcome: "matched", ResponseStatus: 200})
	s.Log(&Entry{Method: "POST", Path: "/api/b", Outcome: "injected", ResponseStatus: 503})
	s.Log(&Entry{Method: "GET", Path: "/other", Outcome: "not_found", ResponseStatus: 404})
	s.Log(&Entry{Method: "GET", Path: "/api/c", Outcome: "matched", ResponseStatus: 201})

	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{"nil filter newest first", nil, []string{"/api/c", "/other", "/api/b", "/api/a"}},
		{"method", &Filter{Method: "GET"}, []string{"/api/c", "/other", "/api/a"}},
		{"path prefix", &Filter{Path: "/api"}, []string{"/api/c", "/api/b", "/api/a"}},
		{"outcome", &Filter{Outcome: "injected"}, []string{"/api/b"}},
		{"status", &Filter{StatusCode: 404}, []string{"/other"}},
		{"limit", &Filter{Limit: 2}, []string{"/api/c", "/other"}},
		{"offset", &Filter{Offset: 3}, []string{"/api/a"}},
		{"offset past end", &Filter{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := make([]string, 0)
			for _, e := range s.List(tt.filter) {
				got = append(got, e.Path)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(10)
	s.Log(&Entry{Path: "/a"})
	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List(nil))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Log(&Entry{Path: "/x"})
				_ = s.List(&Filter{Limit: 5})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Count())
}

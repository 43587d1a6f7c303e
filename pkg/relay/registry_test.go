package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsome/rpa-relay/pkg/models"
)

func TestNodeRegistryRegisterDuplicate(t *testing.T) {
	registry := NewNodeRegistry()
	first := newFakeConn()

	session, err := registry.Register("AB12CD", first, models.Principal{Name: "agent-1"}, nil)
	require.NoError(t, err)
	require.NotNil(t, session)

	second := newFakeConn()

	_, err = registry.Register("AB12CD", second, models.Principal{Name: "agent-2"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateNodeID)

	// The original session must be untouched.
	got := registry.Lookup("AB12CD")
	require.NotNil(t, got)
	assert.Same(t, first, got.Conn.(*fakeConn))
}

func TestNodeRegistryConcurrentRegistration(t *testing.T) {
	registry := NewNodeRegistry()

	const attempts = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := registry.Register("ZZ99ZZ", newFakeConn(), models.Principal{}, nil); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, registry.Count())
}

func TestNodeRegistryUnregisterOwnership(t *testing.T) {
	registry := NewNodeRegistry()
	live := newFakeConn()

	_, err := registry.Register("AB12CD", live, models.Principal{}, nil)
	require.NoError(t, err)

	// A rejected duplicate's disconnect must not evict the live session.
	stale := newFakeConn()
	assert.False(t, registry.Unregister("AB12CD", stale))
	assert.NotNil(t, registry.Lookup("AB12CD"))

	assert.True(t, registry.Unregister("AB12CD", live))
	assert.Nil(t, registry.Lookup("AB12CD"))

	// Idempotent removal.
	assert.False(t, registry.Unregister("AB12CD", live))
}

func TestNodeRegistryFilter(t *testing.T) {
	registry := NewNodeRegistry()

	_, err := registry.Register("AA11AA", newFakeConn(), models.Principal{Name: "agent-1"},
		map[string]string{"site": "fra", "os": "windows"})
	require.NoError(t, err)

	_, err = registry.Register("BB22BB", newFakeConn(), models.Principal{Name: "agent-2"},
		map[string]string{"site": "fra", "os": "linux"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		filters  map[string]string
		expected []string
	}{
		{
			name:     "empty filter matches all",
			filters:  map[string]string{},
			expected: []string{"AA11AA", "BB22BB"},
		},
		{
			name:     "single key",
			filters:  map[string]string{"os": "linux"},
			expected: []string{"BB22BB"},
		},
		{
			name:     "all keys must match",
			filters:  map[string]string{"site": "fra", "os": "windows"},
			expected: []string{"AA11AA"},
		},
		{
			name:     "no match",
			filters:  map[string]string{"site": "ams"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			infos := registry.Filter(tt.filters)

			ids := make([]string, 0, len(infos))
			for _, info := range infos {
				ids = append(ids, info.NodeID)
			}

			assert.ElementsMatch(t, tt.expected, ids)
		})
	}
}

func TestNodeRegistryUpdateMetadata(t *testing.T) {
	registry := NewNodeRegistry()

	_, err := registry.Register("AB12CD", newFakeConn(), models.Principal{},
		map[string]string{"site": "fra"})
	require.NoError(t, err)

	registry.UpdateMetadata("AB12CD", map[string]string{"os": "linux", "site": "ams"})

	session := registry.Lookup("AB12CD")
	require.NotNil(t, session)
	assert.Equal(t, "linux", session.Metadata["os"])
	assert.Equal(t, "ams", session.Metadata["site"])

	// Unknown node is a no-op.
	registry.UpdateMetadata("ZZ99ZZ", map[string]string{"os": "linux"})
}

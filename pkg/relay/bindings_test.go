package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerTableAttachUnique(t *testing.T) {
	table := NewControllerTable()
	first := newFakeConn()

	binding, err := table.Attach("AB12CD", first)
	require.NoError(t, err)
	require.NotNil(t, binding)

	_, err = table.Attach("AB12CD", newFakeConn())
	assert.ErrorIs(t, err, ErrAlreadyBound)

	assert.Same(t, first, table.Bound("AB12CD").(*fakeConn))
}

func TestControllerTableConcurrentAttach(t *testing.T) {
	table := NewControllerTable()

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

			if _, err := table.Attach("AB12CD", newFakeConn()); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestControllerTableDetachOwnership(t *testing.T) {
	table := NewControllerTable()
	owner := newFakeConn()

	_, err := table.Attach("AB12CD", owner)
	require.NoError(t, err)

	// An unrelated disconnect must not clear someone else's binding.
	assert.False(t, table.Detach("AB12CD", newFakeConn()))
	assert.NotNil(t, table.Bound("AB12CD"))

	assert.True(t, table.Detach("AB12CD", owner))
	assert.Nil(t, table.Bound("AB12CD"))
}

func TestControllerTableTake(t *testing.T) {
	table := NewControllerTable()
	owner := newFakeConn()

	_, err := table.Attach("AB12CD", owner)
	require.NoError(t, err)

	binding := table.Take("AB12CD")
	require.NotNil(t, binding)
	assert.Same(t, owner, binding.Conn.(*fakeConn))

	assert.Nil(t, table.Take("AB12CD"))
	assert.Nil(t, table.Bound("AB12CD"))
}

func TestControllerTableIsBound(t *testing.T) {
	table := NewControllerTable()
	owner := newFakeConn()

	_, err := table.Attach("AB12CD", owner)
	require.NoError(t, err)

	assert.True(t, table.IsBound("AB12CD", owner))
	assert.False(t, table.IsBound("AB12CD", newFakeConn()))
	assert.False(t, table.IsBound("ZZ99ZZ", owner))
}

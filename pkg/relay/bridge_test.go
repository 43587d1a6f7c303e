package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsome/rpa-relay/pkg/models"
)

func TestDispatchToAbsentNode(t *testing.T) {
	core := newTestRelay()

	err := core.Dispatch("ZZ99ZZ", "r1", &models.CommandBody{CommandType: "ping"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	// No exchange record is created for an unavailable target.
	assert.Equal(t, 0, core.Exchanges().Len())
}

func TestDispatchPathRequestIDWins(t *testing.T) {
	core := newTestRelay()
	_, nodeConn := registerTestNode(t, core, "AB12CD")

	err := core.Dispatch("AB12CD", "path-id", &models.CommandBody{RequestID: "body-id", CommandType: "ping"})
	require.NoError(t, err)

	commands := envelopesOfType(nodeConn.sent(), models.TypeCommand)
	require.Len(t, commands, 1)
	assert.Equal(t, "path-id", commands[0].Command.RequestID)

	assert.True(t, core.Exchanges().Pending("AB12CD", "path-id"))
}

func TestDispatchSurvivesPushFailure(t *testing.T) {
	core := newTestRelay()
	_, nodeConn := registerTestNode(t, core, "AB12CD")

	nodeConn.mu.Lock()
	nodeConn.writeErr = assert.AnError
	nodeConn.mu.Unlock()

	// Fire-and-forget: a failed push after a successful lookup is not an
	// error to the caller, and the exchange stays open.
	err := core.Dispatch("AB12CD", "r1", &models.CommandBody{CommandType: "ping"})
	assert.NoError(t, err)
	assert.True(t, core.Exchanges().Pending("AB12CD", "r1"))
}

func TestFilterNodesIsPureRead(t *testing.T) {
	core := newTestRelay()
	registerTestNode(t, core, "AB12CD")

	before := core.Registry().Count()

	core.FilterNodes(map[string]string{"nonexistent": "value"})
	core.FilterNodes(nil)

	assert.Equal(t, before, core.Registry().Count())
}

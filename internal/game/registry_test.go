package game

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, slots int) *Registry {
	t.Helper()
	return NewRegistry(slots, zerolog.New(io.Discard))
}

func TestRegistryIssuesUniqueTokens(t *testing.T) {
	reg := newTestRegistry(t, 10)

	urls := reg.TeamURLs("http://quiz.local")
	require.Len(t, urls, 10)

	seen := make(map[string]struct{})
	for slotID, url := range urls {
		token := strings.TrimPrefix(url, "http://quiz.local/team/")
		assert.NotEmpty(t, token)

		resolved, ok := reg.Resolve(token)
		require.True(t, ok, "token for %s should resolve", slotID)
		assert.Equal(t, slotID, resolved)

		_, dup := seen[token]
		assert.False(t, dup, "token reuse across slots")
		seen[token] = struct{}{}
	}
}

func TestRegistryResolveUnknownToken(t *testing.T) {
	reg := newTestRegistry(t, 3)

	_, ok := reg.Resolve("not-a-token")
	assert.False(t, ok)
}

func TestRegistryMarkJoinedIsIdempotent(t *testing.T) {
	reg := newTestRegistry(t, 3)

	reg.MarkJoined("team1", "The Eggheads")
	reg.MarkJoined("team1", "Egg Heads 2.0")

	slots := reg.Slots()
	require.Len(t, slots, 3)
	assert.Equal(t, "Egg Heads 2.0", slots[0].DisplayName)
	assert.True(t, slots[0].Joined)
	assert.True(t, slots[0].Connected)
	assert.True(t, reg.Joined("team1"))
	assert.False(t, reg.Joined("team2"))
}

func TestRegistryDisconnectKeepsJoin(t *testing.T) {
	reg := newTestRegistry(t, 3)

	reg.MarkJoined("team2", "Quizzards")
	reg.MarkDisconnected("team2")

	slots := reg.Slots()
	assert.False(t, slots[1].Connected)
	assert.True(t, slots[1].Joined)
	assert.Equal(t, "Quizzards", slots[1].DisplayName)
}

func TestRegistryResetJoinState(t *testing.T) {
	reg := newTestRegistry(t, 2)

	reg.MarkJoined("team1", "A")
	reg.MarkJoined("team2", "B")
	reg.ResetJoinState()

	for _, slot := range reg.Slots() {
		assert.Empty(t, slot.DisplayName)
		assert.False(t, slot.Joined)
		assert.False(t, slot.Connected)
	}

	// Tokens survive a reset.
	urls := reg.TeamURLs("http://quiz.local")
	token := strings.TrimPrefix(urls["team1"], "http://quiz.local/team/")
	resolved, ok := reg.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "team1", resolved)
}

func TestRegistrySlotOrderIsStable(t *testing.T) {
	reg := newTestRegistry(t, 4)

	assert.Equal(t, []string{"team1", "team2", "team3", "team4"}, reg.SlotIDs())
}

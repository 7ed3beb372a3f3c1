package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRoom returns a room whose clock ticks one second per join.
func testRoom(names ...string) *Room {
	r := newRoom("R")
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, n := range names {
		r.AddParticipant(n, "conn-"+n)
	}
	return r
}

func hostOf(r *Room) string {
	host := ""
	for _, p := range r.participants {
		if p.IsHost {
			if host != "" {
				return "<multiple>"
			}
			host = p.Name
		}
	}
	return host
}

func TestAddParticipant(t *testing.T) {
	r := testRoom()

	assert.True(t, r.AddParticipant("A", "c1"))
	assert.True(t, r.AddParticipant("B", "c2"))
	assert.Equal(t, "A", hostOf(r))
	assert.False(t, r.Participant("B").IsHost)

	r.RemoveParticipant("c2")
	assert.False(t, r.Participant("B").Online)

	assert.False(t, r.AddParticipant("B", "c3"), "same name reclaims the seat")
	b := r.Participant("B")
	assert.True(t, b.Online)
	assert.Equal(t, "c3", b.ConnID)
	assert.Len(t, r.participants, 2)
}

func TestNamesAreCaseSensitive(t *testing.T) {
	r := testRoom("alice")

	assert.True(t, r.AddParticipant("Alice", "c2"))
	assert.Len(t, r.participants, 2)
}

func TestRemoveParticipantUnknownConnection(t *testing.T) {
	r := testRoom("A", "B")

	r.RemoveParticipant("nope")

	assert.True(t, r.Participant("A").Online)
	assert.True(t, r.Participant("B").Online)
	assert.Equal(t, "A", hostOf(r))
}

func TestHostReelection(t *testing.T) {
	t.Run("earliest online participant takes over", func(t *testing.T) {
		r := testRoom("A", "B", "C")
		r.participants[0].IsHost = false
		r.participants[1].IsHost = true

		r.RemoveParticipant("conn-B")

		assert.Equal(t, "A", hostOf(r))
	})

	t.Run("skips offline participants", func(t *testing.T) {
		r := testRoom("A", "B", "C")
		r.RemoveParticipant("conn-B")
		assert.Equal(t, "A", hostOf(r), "host unchanged when a non-host leaves")

		r.RemoveParticipant("conn-A")

		assert.Equal(t, "C", hostOf(r))
	})

	t.Run("falls back to earliest joined when nobody is online", func(t *testing.T) {
		r := testRoom("A", "B", "C")
		r.RemoveParticipant("conn-C")
		r.RemoveParticipant("conn-A")
		r.RemoveParticipant("conn-B")

		assert.True(t, r.IsEmpty())
		assert.Equal(t, "A", hostOf(r))
	})

	t.Run("reconnecting participant becomes host of an all offline room", func(t *testing.T) {
		r := testRoom("A", "B")
		r.RemoveParticipant("conn-A")
		r.RemoveParticipant("conn-B")

		r.AddParticipant("B", "conn-B2")

		assert.Equal(t, "B", hostOf(r))
	})

	t.Run("kicking the host", func(t *testing.T) {
		r := testRoom("A", "B", "C")

		connID, ok := r.KickParticipant("A")

		require.True(t, ok)
		assert.Equal(t, "conn-A", connID)
		assert.Nil(t, r.Participant("A"))
		assert.Equal(t, "B", hostOf(r))
	})

	t.Run("identical join times fall back to insertion order", func(t *testing.T) {
		r := newRoom("R")
		fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		r.now = func() time.Time { return fixed }
		r.AddParticipant("A", "conn-A")
		r.AddParticipant("B", "conn-B")
		r.AddParticipant("C", "conn-C")

		r.RemoveParticipant("conn-A")

		assert.Equal(t, "B", hostOf(r))
	})
}

func TestKickUnknown(t *testing.T) {
	r := testRoom("A", "B")

	_, ok := r.KickParticipant("Z")

	assert.False(t, ok)
	assert.Len(t, r.participants, 2)
}

func TestIsEmpty(t *testing.T) {
	r := testRoom()
	assert.True(t, r.IsEmpty())

	r.AddParticipant("A", "c1")
	assert.False(t, r.IsEmpty())

	r.RemoveParticipant("c1")
	assert.True(t, r.IsEmpty())
}

func TestStartRound(t *testing.T) {
	t.Run("needs two seats", func(t *testing.T) {
		r := testRoom("A")
		assert.ErrorIs(t, r.StartRound(), ErrNotEnoughPlayers)
		assert.Equal(t, PhaseLobby, r.Phase())
	})

	t.Run("counts offline seats", func(t *testing.T) {
		r := testRoom("A", "B")
		r.RemoveParticipant("conn-B")

		require.NoError(t, r.StartRound())
		assert.Len(t, r.frozenOrder, 2)
	})

	t.Run("only from lobby", func(t *testing.T) {
		r := testRoom("A", "B")
		require.NoError(t, r.StartRound())
		assert.ErrorIs(t, r.StartRound(), ErrWrongPhase)

		require.NoError(t, r.Reveal(true))
		assert.ErrorIs(t, r.StartRound(), ErrWrongPhase)
	})

	t.Run("freezes a copy of the roster", func(t *testing.T) {
		r := testRoom("A", "B", "C")
		require.NoError(t, r.StartRound())

		r.RemoveParticipant("conn-A")
		r.participants[1].Name = "renamed"
		_, _ = r.KickParticipant("C")

		names := []string{}
		for _, p := range r.frozenOrder {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"A", "B", "C"}, names)
	})

	t.Run("resets round state", func(t *testing.T) {
		r := testRoom("A", "B")
		require.NoError(t, r.StartRound())
		require.NoError(t, r.SubmitNumber("A", 2))
		require.NoError(t, r.Reveal(true))
		r.BackToLobby()

		require.NoError(t, r.StartRound())

		assert.Empty(t, r.submissions)
		assert.Nil(t, r.result)
		assert.Empty(t, r.Winner())
		assert.Equal(t, PhaseInput, r.Phase())
	})
}

func TestSubmitNumber(t *testing.T) {
	r := testRoom("A", "B", "C")

	assert.ErrorIs(t, r.SubmitNumber("A", 1), ErrWrongPhase)

	require.NoError(t, r.StartRound())

	tests := []struct {
		name   string
		player string
		number int
		want   error
	}{
		{"lowest", "A", 1, nil},
		{"highest", "B", 3, nil},
		{"zero", "C", 0, ErrOutOfRange},
		{"negative", "C", -2, ErrOutOfRange},
		{"above roster size", "C", 4, ErrOutOfRange},
		{"not in round", "D", 1, ErrNotInRound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := r.SubmitNumber(tc.player, tc.number)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, map[string]int{"A": 1, "B": 3}, r.submissions)

	require.NoError(t, r.SubmitNumber("A", 2))
	assert.Equal(t, 2, r.submissions["A"], "resubmission overwrites")
}

func TestLateJoinerCannotSubmit(t *testing.T) {
	r := testRoom("A", "B")
	require.NoError(t, r.StartRound())

	r.AddParticipant("C", "conn-C")

	assert.ErrorIs(t, r.SubmitNumber("C", 1), ErrNotInRound)
}

func TestReveal(t *testing.T) {
	t.Run("requires every submission unless forced", func(t *testing.T) {
		r := testRoom("A", "B")
		require.NoError(t, r.StartRound())
		require.NoError(t, r.SubmitNumber("A", 2))

		assert.False(t, r.CanReveal())
		assert.ErrorIs(t, r.Reveal(false), ErrMissingSubmissions)
		assert.Equal(t, PhaseInput, r.Phase())
		assert.Nil(t, r.result)

		require.NoError(t, r.SubmitNumber("B", 1))
		assert.True(t, r.CanReveal())
		require.NoError(t, r.Reveal(false))
		assert.Equal(t, PhaseRevealed, r.Phase())
	})

	t.Run("only from input", func(t *testing.T) {
		r := testRoom("A", "B")
		assert.ErrorIs(t, r.Reveal(true), ErrWrongPhase)
	})

	t.Run("forced reveal counts missing picks as one", func(t *testing.T) {
		r := testRoom("A", "B", "C")
		require.NoError(t, r.StartRound())
		require.NoError(t, r.SubmitNumber("B", 3))

		require.NoError(t, r.Reveal(true))

		require.NotNil(t, r.result)
		assert.Equal(t, map[string]int{"A": 1, "B": 3, "C": 1}, r.result.Submissions)
		assert.Equal(t, 5, r.result.Total)
		assert.Equal(t, 2, r.result.Remainder)
		assert.Equal(t, 1, r.result.WinnerIndex)
		assert.Equal(t, "B", r.Winner())
	})
}

func TestWinnerMapping(t *testing.T) {
	tests := []struct {
		name      string
		picks     []int
		total     int
		remainder int
		index     int
		winner    string
	}{
		{"remainder one picks the first player", []int{3, 2, 2, 2}, 9, 1, 0, "A"},
		{"remainder zero picks the last player", []int{2, 2, 2, 2}, 8, 0, 3, "D"},
		{"remainder two picks the second player", []int{4, 2, 2, 2}, 10, 2, 1, "B"},
		{"remainder three picks the third player", []int{4, 3, 2, 2}, 11, 3, 2, "C"},
		{"all ones", []int{1, 1, 1, 1}, 4, 0, 3, "D"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := testRoom("A", "B", "C", "D")
			require.NoError(t, r.StartRound())
			for i, p := range r.frozenOrder {
				require.NoError(t, r.SubmitNumber(p.Name, tc.picks[i]))
			}

			require.NoError(t, r.Reveal(false))

			assert.Equal(t, tc.total, r.result.Total)
			assert.Equal(t, 4, r.result.ParticipantCount)
			assert.Equal(t, tc.remainder, r.result.Remainder)
			assert.Equal(t, tc.index, r.result.WinnerIndex)
			assert.Equal(t, tc.winner, r.Winner())
		})
	}
}

func TestWinnerComesFromFrozenOrder(t *testing.T) {
	r := testRoom("A", "B", "C")
	require.NoError(t, r.StartRound())
	r.RemoveParticipant("conn-A")

	require.NoError(t, r.SubmitNumber("A", 1))
	require.NoError(t, r.SubmitNumber("B", 1))
	require.NoError(t, r.SubmitNumber("C", 2))
	require.NoError(t, r.Reveal(false))

	assert.Equal(t, 1, r.result.Remainder)
	assert.Equal(t, "A", r.Winner(), "offline members of the round can still win")
}

func TestPhaseCycle(t *testing.T) {
	r := testRoom("A", "B")
	assert.Equal(t, PhaseLobby, r.Phase())

	require.NoError(t, r.StartRound())
	assert.Equal(t, PhaseInput, r.Phase())

	require.NoError(t, r.Reveal(true))
	assert.Equal(t, PhaseRevealed, r.Phase())
	assert.NotNil(t, r.result)
	assert.NotEmpty(t, r.Winner())

	r.BackToLobby()
	assert.Equal(t, PhaseLobby, r.Phase())
	assert.Nil(t, r.result)
	assert.Empty(t, r.Winner())
	assert.Empty(t, r.submissions)
	assert.Empty(t, r.frozenOrder)
}

func TestBackToLobbyFromInput(t *testing.T) {
	r := testRoom("A", "B")
	require.NoError(t, r.StartRound())
	require.NoError(t, r.SubmitNumber("A", 1))

	r.BackToLobby()

	assert.Equal(t, PhaseLobby, r.Phase())
	assert.Empty(t, r.submissions)
	assert.ErrorIs(t, r.Reveal(true), ErrWrongPhase)
}

func TestRemoveParticipantUnbindsConnection(t *testing.T) {
	r := testRoom("A", "B")

	r.RemoveParticipant("conn-A")

	a := r.Participant("A")
	assert.False(t, a.Online)
	assert.Empty(t, a.ConnID)

	r.RemoveParticipant("")
	assert.True(t, r.Participant("B").Online)

	connID, ok := r.KickParticipant("A")
	require.True(t, ok)
	assert.Empty(t, connID, "an offline seat belongs to no connection")
}

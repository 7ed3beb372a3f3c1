/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Remainder
//
// Every player in the round secretly picks a number between 1 and the
// number of players. Once everyone has picked (or the host forces the
// reveal), the numbers are summed and the remainder of the sum divided
// by the player count picks the winner from the round order: remainder
// 1 is the first player, 2 the second, and so on, with remainder 0
// landing on the last player.

package main

import (
	"errors"
	"time"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseInput    Phase = "input"
	PhaseRevealed Phase = "revealed"
)

const minPlayers = 2

var (
	ErrWrongPhase         = errors.New("that is not possible right now")
	ErrNotEnoughPlayers   = errors.New("at least two players are needed to start a round")
	ErrNotInRound         = errors.New("you are not part of this round")
	ErrOutOfRange         = errors.New("number is out of range")
	ErrNotANumber         = errors.New("submission must be a whole number")
	ErrMissingSubmissions = errors.New("not everyone has submitted a number yet")
)

// Participant is one named seat in a room. Seats survive disconnects so
// the same name can reclaim them later.
type Participant struct {
	Name     string
	ConnID   string
	IsHost   bool
	Online   bool
	JoinedAt time.Time

	seq uint64
}

// before reports whether p joined earlier than o, falling back to
// insertion order when the clock did not advance between joins.
func (p *Participant) before(o *Participant) bool {
	if !p.JoinedAt.Equal(o.JoinedAt) {
		return p.JoinedAt.Before(o.JoinedAt)
	}
	return p.seq < o.seq
}

type Result struct {
	Total            int            `json:"total"`
	ParticipantCount int            `json:"participantCount"`
	Remainder        int            `json:"remainder"`
	WinnerIndex      int            `json:"winnerIndex"`
	Submissions      map[string]int `json:"submissions"`
}

// Room is not safe for concurrent use; the hub's run loop is its only caller.
type Room struct {
	name         string
	phase        Phase
	participants []*Participant
	frozenOrder  []Participant
	submissions  map[string]int
	result       *Result
	winner       string

	now     func() time.Time
	nextSeq uint64
}

func newRoom(name string) *Room {
	return &Room{
		name:        name,
		phase:       PhaseLobby,
		submissions: make(map[string]int),
		now:         time.Now,
	}
}

func (r *Room) Name() string { return r.name }

func (r *Room) Phase() Phase { return r.phase }

func (r *Room) Winner() string { return r.winner }

func (r *Room) Participant(name string) *Participant {
	for _, p := range r.participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) participantByConn(connID string) *Participant {
	for _, p := range r.participants {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

// AddParticipant seats name on connID. An existing seat with the same
// name is reclaimed instead, which is reported as isNew == false.
func (r *Room) AddParticipant(name, connID string) (isNew bool) {
	if p := r.Participant(name); p != nil {
		p.ConnID = connID
		p.Online = true
		r.electHost()
		return false
	}

	r.nextSeq++
	r.participants = append(r.participants, &Participant{
		Name:     name,
		ConnID:   connID,
		IsHost:   len(r.participants) == 0,
		Online:   true,
		JoinedAt: r.now(),
		seq:      r.nextSeq,
	})
	r.electHost()
	return true
}

// RemoveParticipant marks the seat bound to connID offline and unbinds
// it from the connection. The seat stays in the roster; only
// KickParticipant removes seats.
func (r *Room) RemoveParticipant(connID string) {
	if connID == "" {
		return
	}
	p := r.participantByConn(connID)
	if p == nil {
		return
	}
	p.Online = false
	p.ConnID = ""
	r.electHost()
}

func (r *Room) KickParticipant(name string) (connID string, ok bool) {
	for i, p := range r.participants {
		if p.Name != name {
			continue
		}
		r.participants = append(r.participants[:i], r.participants[i+1:]...)
		r.electHost()
		return p.ConnID, true
	}
	return "", false
}

func (r *Room) IsEmpty() bool {
	for _, p := range r.participants {
		if p.Online {
			return false
		}
	}
	return true
}

// electHost keeps the current host if they are still seated and online.
// Otherwise the earliest joined online participant takes over, or the
// earliest joined participant overall when nobody is online.
func (r *Room) electHost() {
	for _, p := range r.participants {
		if p.IsHost && p.Online {
			return
		}
	}

	var first, online *Participant
	for _, p := range r.participants {
		p.IsHost = false
		if first == nil || p.before(first) {
			first = p
		}
		if p.Online && (online == nil || p.before(online)) {
			online = p
		}
	}

	switch {
	case online != nil:
		online.IsHost = true
	case first != nil:
		first.IsHost = true
	}
}

func (r *Room) StartRound() error {
	if r.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(r.participants) < minPlayers {
		return ErrNotEnoughPlayers
	}

	r.frozenOrder = make([]Participant, len(r.participants))
	for i, p := range r.participants {
		r.frozenOrder[i] = *p
	}
	r.submissions = make(map[string]int)
	r.result = nil
	r.winner = ""
	r.phase = PhaseInput
	return nil
}

func (r *Room) inRound(name string) bool {
	for _, p := range r.frozenOrder {
		if p.Name == name {
			return true
		}
	}
	return false
}

// SubmitNumber records or replaces name's pick for the current round.
func (r *Room) SubmitNumber(name string, number int) error {
	if r.phase != PhaseInput {
		return ErrWrongPhase
	}
	if !r.inRound(name) {
		return ErrNotInRound
	}
	if number < 1 || number > len(r.frozenOrder) {
		return ErrOutOfRange
	}
	r.submissions[name] = number
	return nil
}

func (r *Room) CanReveal() bool {
	for _, p := range r.frozenOrder {
		if _, ok := r.submissions[p.Name]; !ok {
			return false
		}
	}
	return true
}

// Reveal ends the round. With force set, anyone who has not submitted
// is counted as having picked 1.
func (r *Room) Reveal(force bool) error {
	if r.phase != PhaseInput {
		return ErrWrongPhase
	}
	if !force && !r.CanReveal() {
		return ErrMissingSubmissions
	}

	n := len(r.frozenOrder)
	picks := make(map[string]int, n)
	total := 0
	for _, p := range r.frozenOrder {
		v, ok := r.submissions[p.Name]
		if !ok {
			v = 1
			r.submissions[p.Name] = v
		}
		picks[p.Name] = v
		total += v
	}

	remainder := total % n
	idx := remainder - 1
	if remainder == 0 {
		idx = n - 1
	}

	r.result = &Result{
		Total:            total,
		ParticipantCount: n,
		Remainder:        remainder,
		WinnerIndex:      idx,
		Submissions:      picks,
	}
	r.winner = r.frozenOrder[idx].Name
	r.phase = PhaseRevealed
	return nil
}

func (r *Room) BackToLobby() {
	r.phase = PhaseLobby
	r.submissions = make(map[string]int)
	r.frozenOrder = nil
	r.result = nil
	r.winner = ""
}

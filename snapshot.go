package main

type ParticipantView struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Online bool   `json:"online"`
}

// RoomState is what clients see of a room. Submitted numbers only ever
// appear inside Result, once the round has been revealed.
type RoomState struct {
	Name         string            `json:"name"`
	Participants []ParticipantView `json:"participants"`
	Phase        Phase             `json:"phase"`
	Order        []string          `json:"order"`
	Submissions  map[string]bool   `json:"submissions"`
	Result       *Result           `json:"result"`
	Winner       *string           `json:"winner"`
}

func (r *Room) State() RoomState {
	state := RoomState{
		Name:         r.name,
		Participants: make([]ParticipantView, 0, len(r.participants)),
		Phase:        r.phase,
	}

	for _, p := range r.participants {
		state.Participants = append(state.Participants, ParticipantView{
			Name:   p.Name,
			IsHost: p.IsHost,
			Online: p.Online,
		})
	}

	if r.phase != PhaseLobby {
		state.Order = make([]string, len(r.frozenOrder))
		for i, p := range r.frozenOrder {
			state.Order[i] = p.Name
		}
	}

	if r.phase == PhaseInput {
		state.Submissions = make(map[string]bool, len(r.submissions))
		for name := range r.submissions {
			state.Submissions[name] = true
		}
	}

	if r.phase == PhaseRevealed && r.result != nil {
		res := *r.result
		res.Submissions = make(map[string]int, len(r.result.Submissions))
		for name, v := range r.result.Submissions {
			res.Submissions[name] = v
		}
		winner := r.winner
		state.Result = &res
		state.Winner = &winner
	}

	return state
}

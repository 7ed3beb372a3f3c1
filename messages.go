package main

import "encoding/json"

// Inbound event names
const (
	evJoinRoom     = "joinRoom"
	evStartRound   = "startRound"
	evSubmitNumber = "submitNumber"
	evRevealResult = "revealResult"
	evForceReveal  = "forceReveal"
	evBackToLobby  = "backToLobby"
	evKickUser     = "kickUser"
	evLeaveRoom    = "leaveRoom"
)

// Outbound event names
const (
	evJoinSuccess     = "joinSuccess"
	evJoinError       = "joinError"
	evRoomUpdate      = "roomUpdate"
	evNumberSubmitted = "numberSubmitted"
	evError           = "error"
	evKicked          = "kicked"
)

// ClientMessage is a single frame from a client. Data holds the event
// payload, which is an object, a bare number, or a bare string
// depending on Type.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type joinPayload struct {
	RoomName string `json:"roomName"`
	UserName string `json:"userName"`
}

type JoinSuccess struct {
	RoomName  string    `json:"roomName"`
	UserName  string    `json:"userName"`
	IsHost    bool      `json:"isHost"`
	RoomState RoomState `json:"roomState"`
}

type empty struct{}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxNameLen = 36

// session is the room and name a connection last joined as. It is
// owned by the hub and only changed by join, leave, kick and disconnect.
type session struct {
	roomName string
	userName string
}

type hubEvent interface{ isHubEvent() }

type connectEvent struct{ client *Client }

type disconnectEvent struct{ id string }

type frameEvent struct {
	id   string
	data []byte
}

type roomExistsQuery struct {
	name  string
	reply chan bool
}

func (connectEvent) isHubEvent()    {}
func (disconnectEvent) isHubEvent() {}
func (frameEvent) isHubEvent()      {}
func (roomExistsQuery) isHubEvent() {}

// Hub serializes every connection event and client message for the whole
// process through a single loop, so rooms and the registry need no locks.
type Hub struct {
	cfg      *Config
	rooms    *Registry
	clients  map[string]*Client
	channels map[string]map[string]*Client

	events chan hubEvent
	done   chan struct{}
}

func newHub(cfg *Config) *Hub {
	return &Hub{
		cfg:      cfg,
		rooms:    newRegistry(),
		clients:  make(map[string]*Client),
		channels: make(map[string]map[string]*Client),
		events:   make(chan hubEvent, 256),
		done:     make(chan struct{}),
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

func (h *Hub) submit(ev hubEvent) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) register(c *Client) bool { return h.submit(connectEvent{client: c}) }

func (h *Hub) unregister(id string) { h.submit(disconnectEvent{id: id}) }

func (h *Hub) deliver(id string, data []byte) bool {
	return h.submit(frameEvent{id: id, data: data})
}

// RoomExists asks the run loop whether a room is currently live.
func (h *Hub) RoomExists(name string) bool {
	reply := make(chan bool, 1)
	if !h.submit(roomExistsQuery{name: name, reply: reply}) {
		return false
	}
	select {
	case exists := <-reply:
		return exists
	case <-h.done:
		return false
	}
}

func (h *Hub) handle(ev hubEvent) {
	switch e := ev.(type) {
	case connectEvent:
		h.clients[e.client.id] = e.client
		activeConnections.Inc()

	case disconnectEvent:
		c, ok := h.clients[e.id]
		if !ok {
			return
		}
		h.leaveCurrent(c)
		delete(h.clients, e.id)
		c.closeSend()
		activeConnections.Dec()
		logf(h.cfg, "SOCKET: Connection %s closed", e.id)

	case frameEvent:
		c, ok := h.clients[e.id]
		if !ok {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(e.data, &msg); err != nil {
			h.reject(c, "invalid", evError, "malformed message")
			return
		}
		h.dispatch(c, msg)

	case roomExistsQuery:
		_, ok := h.rooms.Get(e.name)
		e.reply <- ok
	}
}

func (h *Hub) dispatch(c *Client, msg ClientMessage) {
	switch msg.Type {
	case evJoinRoom, evStartRound, evSubmitNumber, evRevealResult,
		evForceReveal, evBackToLobby, evKickUser, evLeaveRoom:
		messagesReceived.WithLabelValues(msg.Type).Inc()
	default:
		h.reject(c, "unknown", evError, "unknown event: "+strconv.Quote(msg.Type))
		return
	}

	switch msg.Type {
	case evJoinRoom:
		h.handleJoin(c, msg.Data)
	case evStartRound:
		h.handleStartRound(c)
	case evSubmitNumber:
		h.handleSubmit(c, msg.Data)
	case evRevealResult:
		h.handleReveal(c, evRevealResult, false)
	case evForceReveal:
		h.handleReveal(c, evForceReveal, true)
	case evBackToLobby:
		h.handleBackToLobby(c)
	case evKickUser:
		h.handleKick(c, msg.Data)
	case evLeaveRoom:
		h.leaveCurrent(c)
	}
}

func (h *Hub) handleJoin(c *Client, data json.RawMessage) {
	var req joinPayload
	if err := json.Unmarshal(data, &req); err != nil {
		h.reject(c, evJoinRoom, evJoinError, "invalid join request")
		return
	}

	roomName := strings.TrimSpace(req.RoomName)
	userName := strings.TrimSpace(req.UserName)

	switch {
	case roomName == "" || userName == "":
		h.reject(c, evJoinRoom, evJoinError, "room name and user name are required")
		return
	case utf8.RuneCountInString(roomName) > maxNameLen || utf8.RuneCountInString(userName) > maxNameLen:
		h.reject(c, evJoinRoom, evJoinError, "names can be at most "+strconv.Itoa(maxNameLen)+" characters")
		return
	}

	if room, ok := h.rooms.Get(roomName); ok && room.Phase() != PhaseLobby && room.Participant(userName) == nil {
		h.reject(c, evJoinRoom, evJoinError, "a round is already in progress in this room")
		return
	}

	if c.session.roomName != "" && c.session != (session{roomName: roomName, userName: userName}) {
		h.leaveCurrent(c)
	}

	room := h.rooms.GetOrCreate(roomName)
	if seat := room.Participant(userName); seat != nil && seat.Online && seat.ConnID != c.id {
		h.evict(seat.ConnID, roomName, userName)
	}
	isNew := room.AddParticipant(userName, c.id)
	c.session = session{roomName: roomName, userName: userName}
	h.subscribe(roomName, c)

	state := room.State()
	h.emit(c, evJoinSuccess, JoinSuccess{
		RoomName:  roomName,
		UserName:  userName,
		IsHost:    room.Participant(userName).IsHost,
		RoomState: state,
	})

	if isNew {
		logf(h.cfg, "GAMES: Player %q joined %s", userName, roomName)
		h.broadcast(roomName, evRoomUpdate, state, c.id)
		return
	}

	logf(h.cfg, "GAMES: Player %q rejoined %s", userName, roomName)
	h.broadcast(roomName, evRoomUpdate, state, "")
}

func (h *Hub) handleStartRound(c *Client) {
	room, ok := h.hostRoom(c, evStartRound)
	if !ok {
		return
	}

	if err := room.StartRound(); err != nil {
		h.reject(c, evStartRound, evError, err.Error())
		return
	}

	roundsStarted.Inc()
	logf(h.cfg, "GAMES: Round started in %s with %d players", room.Name(), len(room.frozenOrder))
	h.publish(room)
}

func (h *Hub) handleSubmit(c *Client, data json.RawMessage) {
	room, p, ok := h.current(c)
	if !ok {
		h.reject(c, evSubmitNumber, evError, "you are not in a room")
		return
	}

	if room.Phase() != PhaseInput {
		h.reject(c, evSubmitNumber, evError, ErrWrongPhase.Error())
		return
	}

	n, ok := parseNumber(data)
	if !ok {
		h.reject(c, evSubmitNumber, evError, ErrNotANumber.Error())
		return
	}

	if err := room.SubmitNumber(p.Name, n); err != nil {
		h.reject(c, evSubmitNumber, evError, err.Error())
		return
	}

	h.emit(c, evNumberSubmitted, empty{})
	h.publish(room)
}

func (h *Hub) handleReveal(c *Client, event string, force bool) {
	room, ok := h.hostRoom(c, event)
	if !ok {
		return
	}

	if err := room.Reveal(force); err != nil {
		h.reject(c, event, evError, err.Error())
		return
	}

	roundsRevealed.WithLabelValues(strconv.FormatBool(force)).Inc()
	logf(h.cfg, "GAMES: %q won in %s (total %d, remainder %d, forced %t)",
		room.Winner(), room.Name(), room.result.Total, room.result.Remainder, force)
	h.publish(room)
}

func (h *Hub) handleBackToLobby(c *Client) {
	room, ok := h.hostRoom(c, evBackToLobby)
	if !ok {
		return
	}

	room.BackToLobby()
	h.publish(room)
}

func (h *Hub) handleKick(c *Client, data json.RawMessage) {
	room, ok := h.hostRoom(c, evKickUser)
	if !ok {
		return
	}

	if room.Phase() != PhaseLobby {
		h.reject(c, evKickUser, evError, "players can only be kicked in the lobby")
		return
	}

	var target string
	if err := json.Unmarshal(data, &target); err != nil || target == "" {
		h.reject(c, evKickUser, evError, "invalid user name")
		return
	}

	connID, ok := room.KickParticipant(target)
	if !ok {
		h.reject(c, evKickUser, evError, "no such player: "+strconv.Quote(target))
		return
	}

	kicks.Inc()
	logf(h.cfg, "GAMES: Player %q was kicked from %s", target, room.Name())

	h.evict(connID, room.Name(), target)

	if room.IsEmpty() {
		h.closeRoom(room.Name())
		return
	}
	h.publish(room)
}

// evict sends kicked to the connection holding name in room and detaches
// it, provided that connection's session is still that seat.
func (h *Hub) evict(connID, room, name string) {
	c, ok := h.clients[connID]
	if !ok || c.session != (session{roomName: room, userName: name}) {
		return
	}

	h.emit(c, evKicked, empty{})
	c.session = session{}
	h.unsubscribe(room, c.id)
}

// leaveCurrent takes c out of whatever room it is in. Used for explicit
// leaves, room switches and disconnects alike.
func (h *Hub) leaveCurrent(c *Client) {
	name := c.session.roomName
	if name == "" {
		return
	}

	c.session = session{}
	h.unsubscribe(name, c.id)

	room, ok := h.rooms.Get(name)
	if !ok {
		return
	}

	room.RemoveParticipant(c.id)
	if room.IsEmpty() {
		h.closeRoom(name)
		return
	}
	h.publish(room)
}

func (h *Hub) closeRoom(name string) {
	h.rooms.Delete(name)
	delete(h.channels, name)
	logf(h.cfg, "GAMES: Room %s closed", name)
}

// current resolves the room and seat c is acting as. A connection whose
// seat was reclaimed by another connection no longer resolves.
func (h *Hub) current(c *Client) (*Room, *Participant, bool) {
	if c.session.roomName == "" {
		return nil, nil, false
	}

	room, ok := h.rooms.Get(c.session.roomName)
	if !ok {
		return nil, nil, false
	}

	p := room.Participant(c.session.userName)
	if p == nil || p.ConnID != c.id {
		return nil, nil, false
	}
	return room, p, true
}

func (h *Hub) hostRoom(c *Client, event string) (*Room, bool) {
	room, p, ok := h.current(c)
	if !ok {
		h.reject(c, event, evError, "you are not in a room")
		return nil, false
	}
	if !p.IsHost {
		h.reject(c, event, evError, "only the host can do that")
		return nil, false
	}
	return room, true
}

func parseNumber(data json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (h *Hub) subscribe(room string, c *Client) {
	members, ok := h.channels[room]
	if !ok {
		members = make(map[string]*Client)
		h.channels[room] = members
	}
	members[c.id] = c
}

func (h *Hub) unsubscribe(room, id string) {
	members, ok := h.channels[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(h.channels, room)
	}
}

func (h *Hub) publish(room *Room) {
	h.broadcast(room.Name(), evRoomUpdate, room.State(), "")
}

func (h *Hub) broadcast(room, event string, data any, except string) {
	for id, c := range h.channels[room] {
		if id == except {
			continue
		}
		h.emit(c, event, data)
	}
}

func (h *Hub) reject(c *Client, event, reply, text string) {
	messagesRejected.WithLabelValues(event).Inc()
	h.emit(c, reply, text)
}

// emit queues a message for c without blocking the loop. A client that
// cannot keep up is dropped; its reader then reports the disconnect.
func (h *Hub) emit(c *Client, event string, data any) {
	if c.dropped {
		return
	}

	select {
	case c.send <- ServerMessage{Type: event, Data: data}:
	default:
		c.dropped = true
		c.closeSend()
		logf(h.cfg, "SOCKET: Dropped slow connection %s", c.id)
	}
}

func (h *Hub) shutdown() {
	activeConnections.Sub(float64(len(h.clients)))
	for id, c := range h.clients {
		c.closeSend()
		delete(h.clients, id)
	}
	clear(h.channels)
}

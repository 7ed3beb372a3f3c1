package main

// Registry owns every live room, keyed by room name. Like Room, it is
// only touched from the hub's run loop.
type Registry struct {
	rooms map[string]*Room
}

func newRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (reg *Registry) GetOrCreate(name string) *Room {
	if room, ok := reg.rooms[name]; ok {
		return room
	}

	room := newRoom(name)
	reg.rooms[name] = room
	activeRooms.Set(float64(len(reg.rooms)))
	return room
}

// Get returns the named room, or false if it does not exist (for
// instance because it was already cleaned up).
func (reg *Registry) Get(name string) (*Room, bool) {
	room, ok := reg.rooms[name]
	return room, ok
}

func (reg *Registry) Delete(name string) {
	delete(reg.rooms, name)
	activeRooms.Set(float64(len(reg.rooms)))
}

func (reg *Registry) Len() int { return len(reg.rooms) }

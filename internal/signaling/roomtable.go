package signaling

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
)

// RoomTable maps room ids to their member sets. A room exists exactly
// while it has members: the first Join creates it, removing the last
// member deletes it, and nothing else can create or destroy one.
//
// Like the registry, the table is owned by the hub goroutine and needs
// no locking.
type RoomTable struct {
	rooms  map[string]map[string]struct{}
	byConn map[string]string
}

// NewRoomTable creates an empty room table.
func NewRoomTable() *RoomTable {
	return &RoomTable{
		rooms:  make(map[string]map[string]struct{}),
		byConn: make(map[string]string),
	}
}

// Join adds the connection to the room, creating the room if absent,
// and returns the members that were present before the join: the peers
// the newcomer must negotiate with. A connection occupies at most one
// room; joining while still a member of another room vacates that room
// first, and the vacated room id is reported so its occupants can be
// notified.
func (t *RoomTable) Join(roomID, connID string) (others []string, vacated string) {
	if prev, ok := t.byConn[connID]; ok && prev != roomID {
		log.Debug().Str("conn", connID).Str("room", prev).Msg("vacating previous room before join")
		t.Leave(prev, connID)
		vacated = prev
	}

	members, ok := t.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		t.rooms[roomID] = members
	}
	for id := range members {
		if id != connID {
			others = append(others, id)
		}
	}
	members[connID] = struct{}{}
	t.byConn[connID] = roomID
	return others, vacated
}

// Leave removes the connection from the room, deleting the room once
// its member set is empty. Unknown room/connection pairs are a no-op
// reporting removed=false: racing disconnects hit this path routinely
// and it is not an error.
func (t *RoomTable) Leave(roomID, connID string) (remaining []string, removed bool) {
	members, ok := t.rooms[roomID]
	if !ok {
		return nil, false
	}
	if _, ok := members[connID]; !ok {
		return nil, false
	}

	delete(members, connID)
	if t.byConn[connID] == roomID {
		delete(t.byConn, connID)
	}
	if len(members) == 0 {
		delete(t.rooms, roomID)
		log.Debug().Str("room", roomID).Msg("room empty, removed")
		return nil, true
	}
	return maps.Keys(members), true
}

// MembersExcluding lists the members of the room other than connID,
// i.e. the broadcast targets for a message from connID.
func (t *RoomTable) MembersExcluding(roomID, connID string) []string {
	var out []string
	for id := range t.rooms[roomID] {
		if id != connID {
			out = append(out, id)
		}
	}
	return out
}

// Members returns a snapshot of the room's member set. A missing room
// yields nil.
func (t *RoomTable) Members(roomID string) []string {
	members, ok := t.rooms[roomID]
	if !ok {
		return nil
	}
	return maps.Keys(members)
}

// RoomOf reports the room a connection currently occupies.
func (t *RoomTable) RoomOf(connID string) (string, bool) {
	roomID, ok := t.byConn[connID]
	return roomID, ok
}

// Exists reports whether the room currently has members. Because room
// existence is derived from membership this is the only definition of
// existence there is.
func (t *RoomTable) Exists(roomID string) bool {
	_, ok := t.rooms[roomID]
	return ok
}

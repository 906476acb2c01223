package signaling

import "github.com/rs/zerolog/log"

// connState tracks where a connection sits in its lifecycle.
type connState int

const (
	// stateConnected: transport is up, no room joined yet.
	stateConnected connState = iota
	// stateJoined: connection occupies exactly one room.
	stateJoined
	// stateRemoved: connection has been unregistered.
	stateRemoved
)

func (s connState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateJoined:
		return "joined"
	case stateRemoved:
		return "removed"
	}
	return "unknown"
}

// connEntry is the registry's record of one live connection.
type connEntry struct {
	client      *Client
	userID      string
	displayName string
	roomID      string
	state       connState
}

// Registry maps connection ids to their identity and current room.
// It is owned by the hub goroutine; all access happens there, so the
// map needs no locking.
type Registry struct {
	conns map[string]*connEntry
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*connEntry)}
}

// Register records a new connection with no identity and no room.
// Registering an id twice is a logic error upstream; the stale entry
// is overwritten so the live transport wins.
func (r *Registry) Register(c *Client) {
	if _, ok := r.conns[c.ID]; ok {
		log.Error().Str("conn", c.ID).Msg("duplicate connection id, overwriting stale entry")
	}
	r.conns[c.ID] = &connEntry{client: c, state: stateConnected}
}

// SetIdentity attaches the announced user identity to a connection.
// An unknown id means the identity announcement raced a disconnect;
// the late message is dropped and the caller never has to care.
func (r *Registry) SetIdentity(connID, userID, displayName string) {
	e, ok := r.conns[connID]
	if !ok {
		log.Debug().Str("conn", connID).Msg("identity for unknown connection dropped")
		return
	}
	e.userID = userID
	e.displayName = displayName
}

// Unregister removes the connection and reports the room it occupied
// so the caller can clean that room up. Safe to call twice; the second
// call reports ok=false.
func (r *Registry) Unregister(connID string) (roomID string, ok bool) {
	e, found := r.conns[connID]
	if !found {
		return "", false
	}
	e.state = stateRemoved
	delete(r.conns, connID)
	return e.roomID, true
}

// Lookup returns the live client for a connection id.
func (r *Registry) Lookup(connID string) (*Client, bool) {
	e, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// Member returns the identity last announced for a connection. For ids
// no longer registered it carries just the connection id.
func (r *Registry) Member(connID string) MemberInfo {
	info := MemberInfo{ConnectionID: connID}
	if e, ok := r.conns[connID]; ok {
		info.UserID = e.userID
		info.DisplayName = e.displayName
	}
	return info
}

// assignRoom marks a connection as joined to roomID.
func (r *Registry) assignRoom(connID, roomID string) {
	e, ok := r.conns[connID]
	if !ok {
		return
	}
	log.Debug().Str("conn", connID).Str("room", roomID).
		Str("from", e.state.String()).Str("to", stateJoined.String()).
		Msg("connection state transition")
	e.roomID = roomID
	e.state = stateJoined
}

// vacateRoom returns a connection to the roomless connected state.
func (r *Registry) vacateRoom(connID string) {
	e, ok := r.conns[connID]
	if !ok {
		return
	}
	log.Debug().Str("conn", connID).Str("room", e.roomID).
		Str("from", e.state.String()).Str("to", stateConnected.String()).
		Msg("connection state transition")
	e.roomID = ""
	e.state = stateConnected
}

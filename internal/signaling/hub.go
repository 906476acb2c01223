package signaling

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Hub coordinates rooms for the interview platform's video calls. It
// owns the connection registry and the room table; a single goroutine
// running Run processes register, unregister, inbound and evict events
// one at a time, so no mutation ever interleaves and the shared maps
// need no locks. Everything that touches hub state must go through the
// channels.
type Hub struct {
	registry *Registry
	rooms    *RoomTable

	// Register is the channel for new client connections.
	Register chan *Client

	// Unregister is the channel for closed client connections.
	Unregister chan *Client

	// Inbound carries parsed envelopes from the client read pumps.
	Inbound chan *Envelope

	evict chan string

	// OnMembershipChange, when set, is invoked with the room id and
	// new member count after every membership change. It is called
	// synchronously from the hub goroutine and must not block.
	// Delivery is at-most-once with no queue; the session CRUD layer
	// may use it to reconcile its records, but nothing in the hub
	// depends on it being consumed.
	OnMembershipChange func(roomID string, memberCount int)
}

// NewHub creates a hub with empty state. Callers own the instance;
// tests construct isolated hubs per case.
func NewHub() *Hub {
	return &Hub{
		registry:   NewRegistry(),
		rooms:      NewRoomTable(),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Envelope),
		evict:      make(chan string),
	}
}

// Run processes connection events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.Register:
			h.handleRegister(c)
		case c := <-h.Unregister:
			h.handleDisconnect(c)
		case env := <-h.Inbound:
			h.dispatch(env)
		case roomID := <-h.evict:
			h.handleEvict(roomID)
		case <-ctx.Done():
			return
		}
	}
}

// EvictRoom forcibly empties a room. The session CRUD layer calls this
// when the host ends the session: a business-level terminal state must
// not leave a live room able to renegotiate. Members are notified and
// returned to the roomless state; their transports stay open.
func (h *Hub) EvictRoom(roomID string) {
	h.evict <- roomID
}

func (h *Hub) handleRegister(c *Client) {
	h.registry.Register(c)
	log.Info().Str("conn", c.ID).Msg("client connected")

	// Tell the client its assigned connection id; peers address
	// negotiation messages by it.
	h.send(c, &Envelope{
		Kind:    KindWelcome,
		Payload: memberPayload(MemberInfo{ConnectionID: c.ID}),
	})
}

// handleDisconnect tears down a closed connection. Explicit leave and
// abrupt transport loss converge here on the same path; a second
// disconnect event for the same client is a silent no-op.
func (h *Hub) handleDisconnect(c *Client) {
	info := h.registry.Member(c.ID)
	roomID, ok := h.registry.Unregister(c.ID)
	if !ok {
		return
	}
	log.Info().Str("conn", c.ID).Msg("client disconnected")

	if roomID != "" {
		h.vacate(roomID, c.ID, info)
	}

	// Stop the client's write pump.
	close(c.Send)
}

// dispatch routes one inbound envelope by kind. This is the single
// entry point for all client messages.
func (h *Hub) dispatch(env *Envelope) {
	c := env.client
	if _, ok := h.registry.Lookup(c.ID); !ok {
		// Message raced the connection's teardown.
		log.Debug().Str("conn", c.ID).Str("kind", string(env.Kind)).Msg("message from unregistered connection dropped")
		return
	}

	switch env.Kind {
	case KindJoin:
		h.handleJoin(c, env)
	case KindOffer, KindAnswer, KindICECandidate:
		h.relayToTarget(c, env)
	case KindChat, KindToggleAudio, KindToggleVideo, KindScreenShareStart, KindScreenShareStop:
		h.relayToRoom(c, env)
	case KindLeave:
		h.handleLeave(c)
	default:
		log.Warn().Str("conn", c.ID).Str("kind", string(env.Kind)).Msg("unknown message kind dropped")
	}
}

// handleJoin puts the connection into the requested room and brokers
// introductions: the newcomer learns who is already there, the
// occupants learn who arrived.
func (h *Hub) handleJoin(c *Client, env *Envelope) {
	if env.RoomID == "" {
		log.Warn().Str("conn", c.ID).Msg("join without room id rejected")
		return
	}

	h.registry.SetIdentity(c.ID, env.UserID, env.DisplayName)

	others, vacated := h.rooms.Join(env.RoomID, c.ID)
	if vacated != "" {
		// Switched rooms: the old room's occupants see a departure.
		h.notifyLeft(vacated, h.registry.Member(c.ID))
		h.membershipChanged(vacated)
	}
	h.registry.assignRoom(c.ID, env.RoomID)

	log.Info().Str("conn", c.ID).Str("room", env.RoomID).
		Str("displayName", env.DisplayName).Msg("joined room")

	infos := make([]MemberInfo, 0, len(others))
	for _, id := range others {
		infos = append(infos, h.registry.Member(id))
	}
	h.send(c, &Envelope{
		Kind:    KindExistingMembers,
		RoomID:  env.RoomID,
		Payload: memberListPayload(infos),
	})

	joined := &Envelope{
		Kind:    KindMemberJoined,
		RoomID:  env.RoomID,
		Sender:  c.ID,
		Payload: memberPayload(h.registry.Member(c.ID)),
	}
	for _, id := range others {
		if peer, ok := h.registry.Lookup(id); ok {
			h.send(peer, joined)
		}
	}

	h.membershipChanged(env.RoomID)
}

// relayToTarget forwards a negotiation message to one explicit peer.
// The outgoing envelope is rebuilt so the sender id is always the true
// caller's, whatever the inbound payload claimed. A missing target is
// normal churn (the peer left mid-negotiation): the message is dropped
// and the sender is told nothing.
func (h *Hub) relayToTarget(c *Client, env *Envelope) {
	if env.Target == "" {
		log.Warn().Str("conn", c.ID).Str("kind", string(env.Kind)).Msg("targeted message without target rejected")
		return
	}
	target, ok := h.registry.Lookup(env.Target)
	if !ok {
		log.Debug().Str("conn", c.ID).Str("target", env.Target).
			Str("kind", string(env.Kind)).Msg("target gone, message dropped")
		return
	}

	out := &Envelope{
		Kind:    env.Kind,
		Sender:  c.ID,
		Payload: env.Payload,
	}
	if env.Kind == KindOffer {
		// The callee's UI labels the incoming call with this.
		out.DisplayName = h.registry.Member(c.ID).DisplayName
	}
	h.send(target, out)
}

// relayToRoom broadcasts an application message to every other member
// of the sender's room. Senders without a room are dropped quietly.
func (h *Hub) relayToRoom(c *Client, env *Envelope) {
	roomID, ok := h.rooms.RoomOf(c.ID)
	if !ok {
		log.Debug().Str("conn", c.ID).Str("kind", string(env.Kind)).Msg("broadcast from roomless connection dropped")
		return
	}

	info := h.registry.Member(c.ID)
	out := &Envelope{
		Kind:        env.Kind,
		RoomID:      roomID,
		Sender:      c.ID,
		UserID:      info.UserID,
		DisplayName: info.DisplayName,
		Payload:     env.Payload,
	}
	for _, id := range h.rooms.MembersExcluding(roomID, c.ID) {
		if peer, ok := h.registry.Lookup(id); ok {
			h.send(peer, out)
		}
	}
}

// handleLeave vacates the connection's room without closing the
// transport: the client intends to stay connected, e.g. to join
// another room. Leaving while roomless is a no-op.
func (h *Hub) handleLeave(c *Client) {
	roomID, ok := h.rooms.RoomOf(c.ID)
	if !ok {
		log.Debug().Str("conn", c.ID).Msg("leave without room dropped")
		return
	}
	h.vacate(roomID, c.ID, h.registry.Member(c.ID))
	h.registry.vacateRoom(c.ID)
}

// vacate removes a connection from a room and tells the remaining
// occupants who departed.
func (h *Hub) vacate(roomID, connID string, info MemberInfo) {
	_, removed := h.rooms.Leave(roomID, connID)
	if !removed {
		return
	}
	h.notifyLeft(roomID, info)
	h.membershipChanged(roomID)
}

// handleEvict empties a room on the session layer's order. Every
// member gets a session-ended event and drops back to the roomless
// state; evicting an unknown room is a no-op.
func (h *Hub) handleEvict(roomID string) {
	members := h.rooms.Members(roomID)
	if len(members) == 0 {
		log.Debug().Str("room", roomID).Msg("evict for unknown room dropped")
		return
	}
	log.Info().Str("room", roomID).Int("members", len(members)).Msg("evicting room")

	ended := &Envelope{Kind: KindSessionEnded, RoomID: roomID}
	for _, id := range members {
		h.rooms.Leave(roomID, id)
		h.registry.vacateRoom(id)
		if peer, ok := h.registry.Lookup(id); ok {
			h.send(peer, ended)
		}
	}
	h.membershipChanged(roomID)
}

// notifyLeft broadcasts member-left to the room's current members,
// carrying the departed connection's last-known identity so the UI can
// tear down its peer connection and show a waiting state.
func (h *Hub) notifyLeft(roomID string, info MemberInfo) {
	left := &Envelope{
		Kind:    KindMemberLeft,
		RoomID:  roomID,
		Sender:  info.ConnectionID,
		Payload: memberPayload(info),
	}
	for _, id := range h.rooms.Members(roomID) {
		if peer, ok := h.registry.Lookup(id); ok {
			h.send(peer, left)
		}
	}
}

func (h *Hub) membershipChanged(roomID string) {
	if h.OnMembershipChange == nil {
		return
	}
	count := len(h.rooms.Members(roomID))
	h.OnMembershipChange(roomID, count)
}

// send queues an envelope for a client's write pump. The buffer keeps
// a slow peer from stalling the hub; if it is full the message is
// dropped and the client's own timeout handles recovery, the same as
// any other undelivered signaling message.
func (h *Hub) send(c *Client, env *Envelope) {
	select {
	case c.Send <- env:
	default:
		log.Warn().Str("conn", c.ID).Str("kind", string(env.Kind)).Msg("send buffer full, message dropped")
	}
}

package signaling

import "encoding/json"

// Kind identifies a signaling message type.
type Kind string

// Client-originated kinds.
const (
	KindJoin             Kind = "join"
	KindOffer            Kind = "offer"
	KindAnswer           Kind = "answer"
	KindICECandidate     Kind = "ice-candidate"
	KindChat             Kind = "chat"
	KindToggleAudio      Kind = "toggle-audio"
	KindToggleVideo      Kind = "toggle-video"
	KindScreenShareStart Kind = "screen-share-start"
	KindScreenShareStop  Kind = "screen-share-stop"
	KindLeave            Kind = "leave"
)

// Server-originated kinds.
const (
	KindWelcome         Kind = "welcome"
	KindExistingMembers Kind = "existing-members"
	KindMemberJoined    Kind = "member-joined"
	KindMemberLeft      Kind = "member-left"
	KindSessionEnded    Kind = "session-ended"
)

// Envelope is the wire format for every message in both directions.
// Payload is opaque to the relay: SDP blobs, ICE candidates, chat text
// and media flags pass through untouched.
type Envelope struct {
	Kind        Kind            `json:"kind"`
	RoomID      string          `json:"roomId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Target      string          `json:"target,omitempty"`
	Sender      string          `json:"sender,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`

	// client is the connection the envelope arrived on. Set by the
	// read pump, never serialized, and the only sender identity the
	// hub trusts.
	client *Client `json:"-"`
}

// MemberInfo describes one room occupant. It is the payload of the
// welcome, existing-members, member-joined and member-left events.
type MemberInfo struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

func memberPayload(info MemberInfo) json.RawMessage {
	data, _ := json.Marshal(info)
	return data
}

func memberListPayload(infos []MemberInfo) json.RawMessage {
	data, _ := json.Marshal(infos)
	return data
}

package models

import "encoding/json"

// SignalType represents the type of WebRTC signaling message
type SignalType string

const (
	SignalTypeJoin      SignalType = "join"
	SignalTypeLeave     SignalType = "leave"
	SignalTypeOffer     SignalType = "offer"
	SignalTypeAnswer    SignalType = "answer"
	SignalTypeCandidate SignalType = "candidate"

	// Only the server produces these.
	SignalTypeNewUser  SignalType = "new_user"
	SignalTypeUserLeft SignalType = "user_left"
)

// ServerSender is the sender of every presence message produced by the router.
const ServerSender = "server"

// SignalMessage represents a WebRTC signaling message.
//
// RoomID and Target are carried through untouched; no routing decision looks
// at them and every message goes to every subscriber.
type SignalMessage struct {
	Type   SignalType      `json:"type"`
	Sender string          `json:"sender"`
	RoomID *string         `json:"roomId"`
	Target *string         `json:"target"`
	Data   json.RawMessage `json:"data"`

	// raw holds the frame the message was decoded from.
	raw []byte
}

// PresencePayload is the data of new_user and user_left messages.
type PresencePayload struct {
	Users  []string    `json:"users"`
	Offers [][2]string `json:"offers"`
}

// Raw returns the bytes the message was decoded from, or nil for messages
// built in process.
func (m SignalMessage) Raw() []byte {
	return m.raw
}

// Presence decodes the presence payload of a new_user or user_left message.
func (m SignalMessage) Presence() (PresencePayload, error) {
	var p PresencePayload
	err := json.Unmarshal(m.Data, &p)
	return p, err
}

// NewPresenceMessage builds a server presence message of the given type.
func NewPresenceMessage(t SignalType, payload PresencePayload) SignalMessage {
	if payload.Users == nil {
		payload.Users = []string{}
	}
	if payload.Offers == nil {
		payload.Offers = [][2]string{}
	}
	// Marshalling a struct of string slices cannot fail.
	data, _ := json.Marshal(payload)
	return SignalMessage{
		Type:   t,
		Sender: ServerSender,
		Data:   data,
	}
}

// StringPtr returns a pointer to s, for filling the nullable message fields.
func StringPtr(s string) *string {
	return &s
}

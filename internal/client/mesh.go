package client

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

// OfferTargets returns the peers self must send an offer to, in pairing
// order. The first element of each pair is the offering side.
func OfferTargets(payload models.PresencePayload, self string) []string {
	var targets []string
	for _, pair := range payload.Offers {
		if pair[0] == self {
			targets = append(targets, pair[1])
		}
	}
	return targets
}

// Addressed reports whether msg is meant for self. The relay broadcasts
// everything, so peers filter locally: their own messages are ignored and
// messages with a target are only for that target.
func Addressed(msg models.SignalMessage, self string) bool {
	if msg.Sender == self {
		return false
	}
	return msg.Target == nil || *msg.Target == self
}

// SessionDescription decodes the payload of an offer or answer.
func SessionDescription(msg models.SignalMessage) (webrtc.SessionDescription, error) {
	var sd webrtc.SessionDescription
	err := json.Unmarshal(msg.Data, &sd)
	return sd, err
}

// Candidate decodes the payload of a candidate message.
func Candidate(msg models.SignalMessage) (webrtc.ICECandidateInit, error) {
	var c webrtc.ICECandidateInit
	err := json.Unmarshal(msg.Data, &c)
	return c, err
}

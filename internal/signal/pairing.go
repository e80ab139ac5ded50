package signal

import "github.com/mossy-p/mesh-signaling/internal/models"

// JoinPayload computes the presence payload announcing newID. Every other
// member is paired with newID, in the order of the sorted snapshot, so the
// joiner ends up linked to the whole mesh. Existing members are already
// paired with each other from their own joins.
func JoinPayload(snapshot []string, newID string) models.PresencePayload {
	offers := make([][2]string, 0, len(snapshot))
	for _, id := range snapshot {
		if id == newID {
			continue
		}
		offers = append(offers, [2]string{id, newID})
	}
	return models.PresencePayload{
		Users:  snapshot,
		Offers: offers,
	}
}

// LeavePayload computes the presence payload sent after a peer leaves.
func LeavePayload(snapshot []string) models.PresencePayload {
	return models.PresencePayload{
		Users:  snapshot,
		Offers: [][2]string{},
	}
}

// NewUserMessage wraps the join payload for newID in a new_user message.
func NewUserMessage(snapshot []string, newID string) models.SignalMessage {
	return models.NewPresenceMessage(models.SignalTypeNewUser, JoinPayload(snapshot, newID))
}

// UserLeftMessage wraps the leave payload in a user_left message.
func UserLeftMessage(snapshot []string) models.SignalMessage {
	return models.NewPresenceMessage(models.SignalTypeUserLeft, LeavePayload(snapshot))
}

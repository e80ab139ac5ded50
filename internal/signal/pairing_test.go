package signal

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

func TestJoinPayload(t *testing.T) {
	tests := []struct {
		name     string
		snapshot []string
		newID    string
		want     [][2]string
	}{
		{
			name:     "first peer",
			snapshot: []string{"alice"},
			newID:    "alice",
			want:     [][2]string{},
		},
		{
			name:     "second peer",
			snapshot: []string{"alice", "bob"},
			newID:    "bob",
			want:     [][2]string{{"alice", "bob"}},
		},
		{
			name:     "joiner sorts in the middle",
			snapshot: []string{"alice", "bob", "carol", "dave"},
			newID:    "bob",
			want:     [][2]string{{"alice", "bob"}, {"carol", "bob"}, {"dave", "bob"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JoinPayload(tt.snapshot, tt.newID)
			if !reflect.DeepEqual(got.Offers, tt.want) {
				t.Fatalf("offers = %v, want %v", got.Offers, tt.want)
			}
			if !reflect.DeepEqual(got.Users, tt.snapshot) {
				t.Fatalf("users = %v, want %v", got.Users, tt.snapshot)
			}
		})
	}
}

func TestJoinPayload_Deterministic(t *testing.T) {
	snapshot := []string{"a", "b", "c", "d", "e", "f"}
	first := JoinPayload(snapshot, "d")
	for i := 0; i < 20; i++ {
		if got := JoinPayload(snapshot, "d"); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
	for i := 1; i < len(first.Offers); i++ {
		if first.Offers[i-1][0] >= first.Offers[i][0] {
			t.Fatalf("offers not sorted by existing peer: %v", first.Offers)
		}
	}
}

func TestUserLeftMessage_EncodesEmptyOffers(t *testing.T) {
	msg := UserLeftMessage([]string{"bob"})
	if msg.Type != models.SignalTypeUserLeft || msg.Sender != models.ServerSender {
		t.Fatalf("unexpected header: %+v", msg)
	}
	if got, want := string(msg.Data), `{"users":["bob"],"offers":[]}`; got != want {
		t.Fatalf("data = %s, want %s", got, want)
	}

	empty := UserLeftMessage([]string{})
	if got, want := string(empty.Data), `{"users":[],"offers":[]}`; got != want {
		t.Fatalf("data = %s, want %s", got, want)
	}
}

func TestNewUserMessage_WireShape(t *testing.T) {
	msg := NewUserMessage([]string{"alice", "bob"}, "bob")
	frame, err := models.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "new_user" || decoded["sender"] != "server" {
		t.Fatalf("unexpected header: %s", frame)
	}
	if decoded["roomId"] != nil || decoded["target"] != nil {
		t.Fatalf("roomId/target should be null: %s", frame)
	}
	if got, want := string(msg.Data), `{"users":["alice","bob"],"offers":[["alice","bob"]]}`; got != want {
		t.Fatalf("data = %s, want %s", got, want)
	}
}

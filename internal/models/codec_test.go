package models

import (
	"errors"
	"testing"
)

func TestDecode_KeepsFrame(t *testing.T) {
	frame := []byte(`{"type":"offer",  "sender":"alice","target":"bob","data":{"sdp":"v=0"}}`)
	msg, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Type != SignalTypeOffer || msg.Sender != "alice" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Target == nil || *msg.Target != "bob" {
		t.Fatalf("target = %v", msg.Target)
	}
	if msg.RoomID != nil {
		t.Fatalf("roomId should be nil, got %q", *msg.RoomID)
	}

	frame[0] = 'X'
	out, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(out) != `{"type":"offer",  "sender":"alice","target":"bob","data":{"sdp":"v=0"}}` {
		t.Fatalf("Encode returned %s", out)
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected error for truncated frame")
	}
}

func TestEncode_BuiltMessage(t *testing.T) {
	msg := SignalMessage{
		Type:   SignalTypeCandidate,
		Sender: "alice",
		Target: StringPtr("bob"),
	}
	out, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"type":"candidate","sender":"alice","roomId":null,"target":"bob","data":null}`
	if string(out) != want {
		t.Fatalf("Encode = %s, want %s", out, want)
	}
}

func TestDecodeInbound(t *testing.T) {
	const inbound = "/app/message"

	bare, err := DecodeInbound([]byte(`{"type":"join","sender":"alice"}`), inbound)
	if err != nil || bare.Type != SignalTypeJoin {
		t.Fatalf("bare: %+v, %v", bare, err)
	}

	wrapped, err := DecodeInbound([]byte(`{"destination":"/app/message","body":{"type":"leave","sender":"bob"}}`), inbound)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if wrapped.Type != SignalTypeLeave || wrapped.Sender != "bob" {
		t.Fatalf("envelope: %+v", wrapped)
	}
	if string(wrapped.Raw()) != `{"type":"leave","sender":"bob"}` {
		t.Fatalf("envelope raw = %s", wrapped.Raw())
	}

	_, err = DecodeInbound([]byte(`{"destination":"/app/other","body":{"type":"join"}}`), inbound)
	if !errors.Is(err, ErrWrongDestination) {
		t.Fatalf("expected ErrWrongDestination, got %v", err)
	}
}

func TestNewPresenceMessage_NilSlices(t *testing.T) {
	msg := NewPresenceMessage(SignalTypeUserLeft, PresencePayload{})
	if string(msg.Data) != `{"users":[],"offers":[]}` {
		t.Fatalf("data = %s", msg.Data)
	}
	p, err := msg.Presence()
	if err != nil {
		t.Fatalf("Presence: %v", err)
	}
	if len(p.Users) != 0 || len(p.Offers) != 0 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestDecodeInbound_DestinationFieldWithoutBody(t *testing.T) {
	frame := `{"type":"offer","sender":"alice","destination":"/app/elsewhere","data":{}}`
	msg, err := DecodeInbound([]byte(frame), "/app/message")
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if msg.Type != SignalTypeOffer || msg.Sender != "alice" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if string(msg.Raw()) != frame {
		t.Fatalf("raw = %s, want %s", msg.Raw(), frame)
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrWrongDestination is returned for envelopes addressed to a destination
// other than the inbound one.
var ErrWrongDestination = errors.New("message sent to unknown destination")

// Envelope is the destination-addressed form a client may wrap a message in.
// A frame is an envelope only when it carries both keys; a bare message with
// a "destination" field of its own is left alone.
type Envelope struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// Decode parses a single signaling message and keeps the frame so that the
// message can be relayed without re-encoding.
func Decode(frame []byte) (SignalMessage, error) {
	var msg SignalMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return SignalMessage{}, fmt.Errorf("failed to parse message: %w", err)
	}
	msg.raw = bytes.Clone(frame)
	return msg, nil
}

// DecodeInbound accepts either a bare message or an Envelope. Envelopes must
// name the inbound destination; a bare message is assumed to target it.
func DecodeInbound(frame []byte, inbound string) (SignalMessage, error) {
	var head struct {
		Destination *string         `json:"destination"`
		Body        json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(frame, &head); err != nil {
		return SignalMessage{}, fmt.Errorf("failed to parse message: %w", err)
	}
	if head.Destination == nil || head.Body == nil {
		return Decode(frame)
	}
	if *head.Destination != inbound {
		return SignalMessage{}, fmt.Errorf("%w: %q", ErrWrongDestination, *head.Destination)
	}
	return Decode(head.Body)
}

// Encode returns the wire form of msg. Decoded messages come back exactly as
// they arrived.
func Encode(msg SignalMessage) ([]byte, error) {
	if msg.raw != nil {
		return msg.raw, nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

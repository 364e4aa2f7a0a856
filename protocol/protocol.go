// Package protocol defines the messages exchanged by members of a maze room.
//
// Inbound, a member sends either
//
//	{"type":"sync-pos","x":<number>,"y":<number>}
//	{"type":"exit"}
//
// and the room relays them to the other members with the sender's id added:
//
//	{"id":"<member-id>","type":"sync-pos","x":<number>,"y":<number>}
//	{"id":"<member-id>","type":"exit"}
//
// Anything else is a protocol violation.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Message types.
const (
	TypeSyncPos = "sync-pos"
	TypeExit    = "exit"
)

var (
	// ErrViolation marks an inbound payload that is not exactly one of the two shapes.
	ErrViolation = errors.New("protocol violation")

	ErrUnknownMessage = errors.New("unknown message")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Message is one of SyncPos or Exit.
type Message interface {
	Type() string
}

// SyncPos reports the sender's current position.
type SyncPos struct {
	X float64
	Y float64
}

func (SyncPos) Type() string { return TypeSyncPos }

// Exit announces that the sender leaves the room.
type Exit struct{}

func (Exit) Type() string { return TypeExit }

type envelope struct {
	Type *string `json:"type" validate:"required"`
}

type syncPosRequest struct {
	Type string   `json:"type" validate:"eq=sync-pos"`
	X    *float64 `json:"x" validate:"required"`
	Y    *float64 `json:"y" validate:"required"`
}

type exitRequest struct {
	Type string `json:"type" validate:"eq=exit"`
}

type syncPosRecord struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type exitRecord struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Parse validates an inbound payload. Every failure wraps ErrViolation.
func Parse(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrViolation, err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: missing type", ErrViolation)
	}

	switch *env.Type {
	case TypeSyncPos:
		var req syncPosRequest
		if err := decodeStrict(data, &req, "type", "x", "y"); err != nil {
			return nil, err
		}
		return SyncPos{X: *req.X, Y: *req.Y}, nil
	case TypeExit:
		var req exitRequest
		if err := decodeStrict(data, &req, "type"); err != nil {
			return nil, err
		}
		return Exit{}, nil
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrViolation, ErrUnknownMessage, *env.Type)
	}
}

// decodeStrict decodes exactly one JSON object whose keys are all spelled
// exactly as one of keys, then validates it.
func decodeStrict(data []byte, v any, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrViolation, err)
	}
	for name := range fields {
		if !slices.Contains(keys, name) {
			return fmt.Errorf("%w: unexpected field %q", ErrViolation, name)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrViolation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrViolation)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrViolation, err)
	}
	return nil
}

// Encode renders msg as the outbound record relayed on behalf of member id.
func Encode(id uuid.UUID, msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case SyncPos:
		return json.Marshal(syncPosRecord{ID: id.String(), Type: TypeSyncPos, X: m.X, Y: m.Y})
	case Exit:
		return json.Marshal(exitRecord{ID: id.String(), Type: TypeExit})
	default:
		return nil, ErrUnknownMessage
	}
}

// Package wire defines the five peer messages of spec §6 and their
// msgpack encoding, adapted from internal/protocol/messaging/codec.go's
// envelope-plus-typed-payload shape. The teacher encodes its envelope
// with protobuf (pkg/lib/proto/messaging, generated by protoc); this
// module substitutes msgpack because a protobuf codec's generated
// descriptor code cannot be safely hand-authored without running protoc
// (see DESIGN.md).
package wire

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgType tags the payload carried by an Envelope.
type MsgType uint8

const (
	MsgSyncReq MsgType = iota
	MsgSyncResp
	MsgRegisterNotify
	MsgUnregisterNotify
	MsgAddMetaNotify
)

func (t MsgType) String() string {
	switch t {
	case MsgSyncReq:
		return "sync_req"
	case MsgSyncResp:
		return "sync_resp"
	case MsgRegisterNotify:
		return "register_notify"
	case MsgUnregisterNotify:
		return "unregister_notify"
	case MsgAddMetaNotify:
		return "add_meta_notify"
	default:
		return "unknown"
	}
}

// Envelope is the outer frame put on the wire: a correlation ID (used to
// pair a sync_req with its sync_resp), the message type, the sender's
// node identity, and the type-specific payload, itself msgpack-encoded.
type Envelope struct {
	ID   string  `msgpack:"id"`
	Type MsgType `msgpack:"type"`
	From string  `msgpack:"from"`
	Body []byte  `msgpack:"body"`
}

// Entry is the (name, principal, meta) triple carried by sync_resp
// (spec §4.5).
type Entry struct {
	Name          string            `msgpack:"name"`
	PrincipalID   string            `msgpack:"principal_id"`
	PrincipalHome string            `msgpack:"principal_home"`
	Meta          map[string]string `msgpack:"meta,omitempty"`
}

// RegisterNotifyPayload is register_notify(from, name, principal[, meta]).
type RegisterNotifyPayload struct {
	Name          string            `msgpack:"name"`
	PrincipalID   string            `msgpack:"principal_id"`
	PrincipalHome string            `msgpack:"principal_home"`
	Meta          map[string]string `msgpack:"meta,omitempty"`
}

// UnregisterNotifyPayload is unregister_notify(from, name).
type UnregisterNotifyPayload struct {
	Name string `msgpack:"name"`
}

// AddMetaNotifyPayload is add_meta_notify(from, name, meta).
type AddMetaNotifyPayload struct {
	Name string            `msgpack:"name"`
	Meta map[string]string `msgpack:"meta"`
}

// SyncReqPayload is sync_req(from); it carries no fields beyond the
// envelope's From/ID.
type SyncReqPayload struct{}

// SyncRespPayload is sync_resp(from, [(name, principal, meta)]).
type SyncRespPayload struct {
	Entries []Entry `msgpack:"entries"`
}

// Encode builds and marshals an Envelope carrying payload, tagged with
// msgType and from. A fresh correlation ID is minted unless corrID is
// non-empty (sync_resp reuses its sync_req's ID).
func Encode(msgType MsgType, from string, corrID string, payload interface{}) ([]byte, error) {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s payload: %w", msgType, err)
	}
	if corrID == "" {
		corrID = uuid.NewString()
	}
	env := Envelope{ID: corrID, Type: msgType, From: from, Body: body}
	out, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal envelope: %w", err)
	}
	return out, nil
}

// DecodeEnvelope unmarshals the outer frame without decoding Body.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	return env, nil
}

// DecodeRegisterNotify unmarshals env.Body as a RegisterNotifyPayload.
func DecodeRegisterNotify(env Envelope) (RegisterNotifyPayload, error) {
	var p RegisterNotifyPayload
	err := msgpack.Unmarshal(env.Body, &p)
	return p, err
}

// DecodeUnregisterNotify unmarshals env.Body as an UnregisterNotifyPayload.
func DecodeUnregisterNotify(env Envelope) (UnregisterNotifyPayload, error) {
	var p UnregisterNotifyPayload
	err := msgpack.Unmarshal(env.Body, &p)
	return p, err
}

// DecodeAddMetaNotify unmarshals env.Body as an AddMetaNotifyPayload.
func DecodeAddMetaNotify(env Envelope) (AddMetaNotifyPayload, error) {
	var p AddMetaNotifyPayload
	err := msgpack.Unmarshal(env.Body, &p)
	return p, err
}

// DecodeSyncResp unmarshals env.Body as a SyncRespPayload.
func DecodeSyncResp(env Envelope) (SyncRespPayload, error) {
	var p SyncRespPayload
	err := msgpack.Unmarshal(env.Body, &p)
	return p, err
}

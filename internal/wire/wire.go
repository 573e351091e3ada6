// Package wire implements the login handshake's message framing: one
// opcode byte, a 4-byte big-endian length prefix, and a JSON body. This
// follows the teacher's "opcode + binary.BigEndian length prefix" framing
// idiom, widened to carry the variable-length strings (addresses,
// passwords) the login handshake needs.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Opcode identifies the kind of message on the wire.
type Opcode byte

const (
	OpReqOutLogin Opcode = iota + 1
	OpReqInLogin
	OpRespSuccess
	OpRespFailure
)

// MaxBodySize bounds a single message body, guarding against a malicious or
// corrupt peer claiming an enormous length prefix.
const MaxBodySize = 64 * 1024

// ReqOutLogin requests an Out-mode tunnel: the server dials
// AccessServerAddr on the client's behalf for every stream the client opens.
type ReqOutLogin struct {
	Password         string `json:"password"`
	AccessServerAddr string `json:"access_server_addr"`
}

// ReqInLogin requests an In-mode tunnel: the server binds a public listener
// at AccessServerAddr and forwards accepted sockets back to the client.
type ReqInLogin struct {
	Password         string `json:"password"`
	AccessServerAddr string `json:"access_server_addr"`
}

// RespSuccess acknowledges a successful login.
type RespSuccess struct{}

// RespFailure rejects a login with a human-readable reason.
type RespFailure struct {
	Reason string `json:"reason"`
}

// Message is the decoded form of a single wire message: exactly one of its
// fields is non-nil, matching Opcode.
type Message struct {
	Opcode   Opcode
	OutLogin *ReqOutLogin
	InLogin  *ReqInLogin
	Success  *RespSuccess
	Failure  *RespFailure
}

// Send encodes msg and writes it to w: 1-byte opcode, 4-byte big-endian
// body length, then the JSON body.
func Send(w io.Writer, msg *Message) error {
	var body interface{}
	switch msg.Opcode {
	case OpReqOutLogin:
		body = msg.OutLogin
	case OpReqInLogin:
		body = msg.InLogin
	case OpRespSuccess:
		body = msg.Success
	case OpRespFailure:
		body = msg.Failure
	default:
		return fmt.Errorf("wire: unknown opcode %d", msg.Opcode)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("wire: failed to marshal body: %w", err)
	}

	header := make([]byte, 5)
	header[0] = byte(msg.Opcode)
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wire: failed to write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: failed to write body: %w", err)
	}
	return nil
}

// Recv reads and decodes a single message from r.
func Recv(r io.Reader) (*Message, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("wire: failed to read header: %w", err)
	}

	opcode := Opcode(header[0])
	length := binary.BigEndian.Uint32(header[1:])
	if length > MaxBodySize {
		return nil, fmt.Errorf("wire: body length %d exceeds maximum %d", length, MaxBodySize)
	}

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("wire: failed to read body: %w", err)
		}
	}

	msg := &Message{Opcode: opcode}
	switch opcode {
	case OpReqOutLogin:
		msg.OutLogin = &ReqOutLogin{}
		if err := json.Unmarshal(body, msg.OutLogin); err != nil {
			return nil, fmt.Errorf("wire: failed to unmarshal ReqOutLogin: %w", err)
		}
	case OpReqInLogin:
		msg.InLogin = &ReqInLogin{}
		if err := json.Unmarshal(body, msg.InLogin); err != nil {
			return nil, fmt.Errorf("wire: failed to unmarshal ReqInLogin: %w", err)
		}
	case OpRespSuccess:
		msg.Success = &RespSuccess{}
	case OpRespFailure:
		msg.Failure = &RespFailure{}
		if err := json.Unmarshal(body, msg.Failure); err != nil {
			return nil, fmt.Errorf("wire: failed to unmarshal RespFailure: %w", err)
		}
	default:
		return nil, fmt.Errorf("wire: unknown opcode %d", opcode)
	}

	return msg, nil
}

// SendSuccess is a convenience wrapper for the common success response.
func SendSuccess(w io.Writer) error {
	return Send(w, &Message{Opcode: OpRespSuccess, Success: &RespSuccess{}})
}

// SendFailure is a convenience wrapper for the common failure response.
func SendFailure(w io.Writer, reason string) error {
	return Send(w, &Message{Opcode: OpRespFailure, Failure: &RespFailure{Reason: reason}})
}

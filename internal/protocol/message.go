package protocol

import (
	"fmt"
	"strings"

	"github.com/dreamware/ledgernode/internal/ledger"
)

// Field markers and operation names as they appear on the wire.
const (
	MarkerTask     = "TASK"
	MarkerResponse = "RESPONSE"

	StatusOK    = "OK"
	StatusError = "ERROR"

	OpBalance  = "CONSULTAR_SALDO"
	OpTransfer = "TRANSFERIR_FONDOS"

	sep = "|"
)

// MsgInvalidRequest is the payload of the bare ERROR line sent for
// requests that cannot be parsed.
const MsgInvalidRequest = "invalid request format"

// InvalidRequestReply is the full line answering an unparseable request.
const InvalidRequestReply = StatusError + sep + MsgInvalidRequest

// Request is one parsed TASK line.
type Request struct {
	TaskID    string
	Operation string
	Args      []string
}

// ParseRequest splits a TASK line. A wrong marker or fewer than three
// fields returns a KindProtocol error.
func ParseRequest(line string) (Request, error) {
	parts := strings.Split(strings.TrimSpace(line), sep)
	if len(parts) < 3 || parts[0] != MarkerTask {
		return Request{}, ledger.Errorf(ledger.KindProtocol, MsgInvalidRequest)
	}
	return Request{TaskID: parts[1], Operation: parts[2], Args: parts[3:]}, nil
}

// EncodeRequest renders r as a TASK line without the trailing newline.
func EncodeRequest(r Request) string {
	fields := append([]string{MarkerTask, r.TaskID, r.Operation}, r.Args...)
	return strings.Join(fields, sep)
}

// Response is one decoded reply line. TaskID is empty for a bare ERROR
// line.
type Response struct {
	TaskID  string
	OK      bool
	Payload string
}

// Encode renders r as a RESPONSE line without the trailing newline.
func (r Response) Encode() string {
	status := StatusError
	if r.OK {
		status = StatusOK
	}
	return strings.Join([]string{MarkerResponse, r.TaskID, status, r.Payload}, sep)
}

// DecodeResponse parses a RESPONSE line or a bare ERROR line. Payloads may
// themselves contain separators.
func DecodeResponse(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")

	if msg, ok := strings.CutPrefix(line, StatusError+sep); ok {
		return Response{Payload: msg}, nil
	}

	parts := strings.SplitN(line, sep, 4)
	if len(parts) < 3 || parts[0] != MarkerResponse {
		return Response{}, fmt.Errorf("malformed response %q", line)
	}
	r := Response{TaskID: parts[1]}
	switch parts[2] {
	case StatusOK:
		r.OK = true
	case StatusError:
	default:
		return Response{}, fmt.Errorf("unknown response status %q", parts[2])
	}
	if len(parts) == 4 {
		r.Payload = parts[3]
	}
	return r, nil
}

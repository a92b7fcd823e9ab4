package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Op names the endpoint an error came from.
type Op string

const (
	OpScan  Op = "scan"
	OpGraph Op = "graph"
)

// Messages shown when the service gave nothing better.
const (
	MsgScanFailed  = "An error occurred during the scan"
	MsgGraphFailed = "Failed to download network map"
	MsgNoDevices   = "No devices found on the network"
	scanStatusFmt  = "Network scan failed with status: %d"
	graphStatusFmt = "Network map request failed with status: %d"
)

// UserFacing is implemented by errors that carry a message fit for display.
type UserFacing interface {
	error
	UserMessage() string
}

// TransportError means the request never produced a usable response.
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) UserMessage() string {
	if e.Op == OpGraph {
		return MsgGraphFailed
	}
	return MsgScanFailed
}

// ServiceError is a non-success HTTP status. Message holds the payload's
// "error" field when the service sent one.
type ServiceError struct {
	Op      Op
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.UserMessage())
}

func (e *ServiceError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Op == OpGraph {
		return fmt.Sprintf(graphStatusFmt, e.Status)
	}
	return fmt.Sprintf(scanStatusFmt, e.Status)
}

// EmptyResultError is a successful scan that reported zero devices.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string { return "scan: " + MsgNoDevices }

func (e *EmptyResultError) UserMessage() string { return MsgNoDevices }

// UserMessage extracts the display message from err. Errors outside the
// taxonomy fall back to the generic message for op.
func UserMessage(op Op, err error) string {
	if err == nil {
		return ""
	}
	var uf UserFacing
	if errors.As(err, &uf) {
		return uf.UserMessage()
	}
	return (&TransportError{Op: op, Err: err}).UserMessage()
}

// IsEmptyResult reports whether err is an EmptyResultError.
func IsEmptyResult(err error) bool {
	var e *EmptyResultError
	return errors.As(err, &e)
}

type errorPayload struct {
	Error string `json:"error"`
}

// payloadMessage pulls the "error" field out of a failure body. Bodies that
// are not JSON objects yield "".
func payloadMessage(body []byte) string {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return ""
	}
	return strings.TrimSpace(p.Error)
}

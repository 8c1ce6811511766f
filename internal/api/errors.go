package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// User-facing messages
const (
	MsgNetwork      = "Cannot reach the server. Check your connection and try again."
	MsgServer       = "Something went wrong. Please try again."
	MsgBadRequest   = "Invalid input."
	MsgNotFound     = "Not found."
	MsgUnauthorized = "Unauthorized"
)

// Sentinels matched by errors.Is against *Error
var (
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind classifies a failed request
type Kind int

const (
	KindNetwork Kind = iota
	KindServer
	KindBadRequest
	KindNotFound
	KindUnauthorized
	KindHTTP // any other non-2xx status
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "http"
	}
}

// Error is the normalized failure of an API call. Message is safe to show.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	}
	return false
}

// StatusCode returns the HTTP status of err, or 0 when it carries none
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// networkError wraps a transport failure
func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

// statusError normalizes a non-2xx response
func statusError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: body}
	msg := ServerMessage(body)

	switch {
	case status >= 500:
		e.Kind = KindServer
		e.Message = MsgServer
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		e.Message = MsgUnauthorized
	case status == http.StatusBadRequest:
		e.Kind = KindBadRequest
		e.Message = orDefault(msg, MsgBadRequest)
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = orDefault(msg, MsgNotFound)
	default:
		e.Kind = KindHTTP
		e.Message = orDefault(msg, http.StatusText(status))
	}
	e.Err = fmt.Errorf("http %d", status)
	return e
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ServerMessage extracts a human message from an error body. It understands
// {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"message": "..."} and
// {"error": "..."}.
func ServerMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}

		var items []struct {
			Loc []interface{} `json:"loc"`
			Msg string        `json:"msg"`
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			var msgs []string
			for _, item := range items {
				if item.Msg == "" {
					continue
				}
				if field := lastLoc(item.Loc); field != "" {
					msgs = append(msgs, field+": "+item.Msg)
				} else {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return ""
}

func lastLoc(loc []interface{}) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}

package agent

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Error is an error reported by the agent.
type Error struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return "agent error " + strconv.Itoa(e.Code) + ": " + e.Message
	}
	return "agent error: " + e.Message
}

func (e Error) empty() bool { return e.Code == 0 && e.Message == "" }

// UnmarshalJSON accepts both "message" and {"code": n, "message": "..."}.
func (e *Error) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = Error{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Error{Message: s}
		return nil
	}
	type plain Error
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = Error(p)
	return nil
}

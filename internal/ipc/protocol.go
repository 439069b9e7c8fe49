package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/placement"
	"github.com/1broseidon/duoview/internal/platform"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing         CommandType = "PING"
	CommandStatus       CommandType = "STATUS"
	CommandPlace        CommandType = "PLACE"
	CommandToggleSwap   CommandType = "TOGGLE_SWAP"
	CommandSetMode      CommandType = "SET_MODE"
	CommandCycleMode    CommandType = "CYCLE_MODE"
	CommandCompute      CommandType = "COMPUTE"
	CommandReload       CommandType = "RELOAD"
	CommandListDisplays CommandType = "LIST_DISPLAYS"
	CommandUndo         CommandType = "UNDO"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by STATUS.
type StatusData struct {
	placement.Status
	UptimeSeconds int64  `json:"uptime_seconds"`
	ConfigPath    string `json:"config_path"`
}

// DisplaysData is returned by LIST_DISPLAYS.
type DisplaysData struct {
	Displays []platform.Display `json:"displays"`
	Active   int                `json:"active"`
}

// PlacePayload is accepted by the commands that change state. Place applies
// the new state immediately.
type PlacePayload struct {
	Place bool `json:"place,omitempty"`
}

// SetModePayload names a mode or a preset.
type SetModePayload struct {
	Name  string `json:"name"`
	Place bool   `json:"place,omitempty"`
}

type CycleModePayload struct {
	Step  int  `json:"step"`
	Place bool `json:"place,omitempty"`
}

// ComputePayload asks for a layout without moving windows. Zero fields take
// the daemon's current state.
type ComputePayload struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Mode    string  `json:"mode,omitempty"`
	Swapped *bool   `json:"swapped,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
}

// StateData is returned by TOGGLE_SWAP, SET_MODE and CYCLE_MODE.
type StateData struct {
	Mode    layout.Kind       `json:"mode"`
	Swapped bool              `json:"swapped"`
	Result  *placement.Result `json:"result,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}
	return &Response{Status: StatusOK, Data: dataBytes}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{Status: StatusError, Error: errMsg}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

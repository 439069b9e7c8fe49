package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/placement"
	"github.com/1broseidon/duoview/internal/runtimepath"
)

// ErrDaemonNotRunning is returned when the daemon socket cannot be reached.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient returns a client for the default socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(cmd CommandType, payload any) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	resp, err := c.sendRequest(cmd, payload)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	return c.call(CommandPing, nil, nil)
}

func (c *Client) Status() (*StatusData, error) {
	var data StatusData
	if err := c.call(CommandStatus, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Place applies the daemon's current mode to the panel windows.
func (c *Client) Place() (*placement.Result, error) {
	var res placement.Result
	if err := c.call(CommandPlace, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ToggleSwap(place bool) (*StateData, error) {
	var data StateData
	if err := c.call(CommandToggleSwap, PlacePayload{Place: place}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetMode selects a mode or preset by name.
func (c *Client) SetMode(name string, place bool) (*StateData, error) {
	var data StateData
	if err := c.call(CommandSetMode, SetModePayload{Name: name, Place: place}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) CycleMode(step int, place bool) (*StateData, error) {
	var data StateData
	if err := c.call(CommandCycleMode, CycleModePayload{Step: step, Place: place}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Compute asks the daemon for a layout without moving windows.
func (c *Client) Compute(req ComputePayload) (*layout.Layout, error) {
	var l layout.Layout
	if err := c.call(CommandCompute, req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Reload asks the daemon to re-read its config.
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

func (c *Client) Displays() (*DisplaysData, error) {
	var data DisplaysData
	if err := c.call(CommandListDisplays, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Undo restores the windows moved by the last placement.
func (c *Client) Undo() error {
	return c.call(CommandUndo, nil, nil)
}

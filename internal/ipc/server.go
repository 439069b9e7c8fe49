package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/logging"
	"github.com/1broseidon/duoview/internal/placement"
)

// Controller is the daemon state the server exposes.
type Controller interface {
	Status() StatusData
	Place() (*placement.Result, error)
	ToggleSwap(place bool) (StateData, error)
	SetMode(name string, place bool) (StateData, error)
	CycleMode(step int, place bool) (StateData, error)
	Compute(req ComputePayload) (layout.Layout, error)
	Reload() error
	Displays() (DisplaysData, error)
	Undo() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	ctrl       Controller
	logger     *log.Logger

	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a server for socketPath. A stale socket file is removed.
func NewServer(socketPath string, ctrl Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	os.Remove(socketPath)
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		logger:     logger,
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping {
				return
			}
			s.logger.Warn("IPC accept error", "err", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

// handleConnection serves one JSON-line request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	data, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "err", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.write(conn, NewErrorResponse(fmt.Sprintf("invalid request: %v", err)))
		return
	}

	s.logger.Debug("IPC request", "command", req.Command)
	s.write(conn, s.handleCommand(req))
}

func (s *Server) write(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "err", err)
		return
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		s.logger.Warn("failed to send response", "err", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return ok("pong")
	case CommandStatus:
		return ok(s.ctrl.Status())
	case CommandPlace:
		res, err := s.ctrl.Place()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("failed to place panels: %v", err))
		}
		return ok(res)
	case CommandToggleSwap:
		var p PlacePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return state(s.ctrl.ToggleSwap(p.Place))
	case CommandSetMode:
		var p SetModePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if p.Name == "" {
			return NewErrorResponse("name is required")
		}
		return state(s.ctrl.SetMode(p.Name, p.Place))
	case CommandCycleMode:
		p := CycleModePayload{Step: 1}
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return state(s.ctrl.CycleMode(p.Step, p.Place))
	case CommandCompute:
		var p ComputePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		l, err := s.ctrl.Compute(p)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return ok(l)
	case CommandReload:
		if err := s.ctrl.Reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("failed to reload config: %v", err))
		}
		return ok(nil)
	case CommandListDisplays:
		d, err := s.ctrl.Displays()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("failed to list displays: %v", err))
		}
		return ok(d)
	case CommandUndo:
		if err := s.ctrl.Undo(); err != nil {
			return NewErrorResponse(fmt.Sprintf("failed to undo: %v", err))
		}
		return ok(nil)
	}
	return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
}

func decodePayload(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func state(data StateData, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(data)
}

// Stop closes the listener, waits for the accept loop and removes the
// socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Package server speaks the newline-delimited JSON protocol used by the
// editor plugin. Each request is an object with an "action" and an
// optional "request_id"; each response echoes the id and carries a "type".
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/youruser/snipstage/internal/buffer"
	"github.com/youruser/snipstage/internal/config"
	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/logging"
	"github.com/youruser/snipstage/internal/stage"
	"github.com/youruser/snipstage/internal/workspace"
)

// ErrUnknownBuffer is returned for actions naming a buffer that was never synced.
var ErrUnknownBuffer = errors.New("unknown buffer")

// ErrTooLarge is returned by Serve when a request exceeds the line limit.
var ErrTooLarge = errors.New("request too large")

const maxRequestSize = 4 * 1024 * 1024

// Server holds the per-process state behind the protocol: synced editor
// buffers, the conflict registry and an optional project workspace.
type Server struct {
	version string
	cfg     *config.Config
	log     *logging.Logger

	outMu sync.Mutex
	out   io.Writer

	ws       *workspace.Workspace
	buffers  map[string]*buffer.Buffer
	registry *conflict.Registry
	resolver *conflict.Resolver
}

// New creates a server writing responses to out.
func New(out io.Writer, cfg *config.Config, version string) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	reg := conflict.NewRegistry()
	s := &Server{
		version:  version,
		cfg:      cfg,
		log:      logging.Get(),
		out:      out,
		buffers:  make(map[string]*buffer.Buffer),
		registry: reg,
		resolver: conflict.NewResolver(reg),
	}
	reg.OnStateChange(func(name string, has bool) {
		s.respond("", map[string]any{"type": "conflict_state", "name": name, "has_conflicts": has})
	})
	return s
}

// SetWorkspace attaches a project root used for files the editor has not synced.
func (s *Server) SetWorkspace(ws *workspace.Workspace) {
	s.ws = ws
}

// Registry exposes the conflict registry.
func (s *Server) Registry() *conflict.Registry {
	return s.registry
}

// Serve handles requests from in, one per line, until in is exhausted or
// ctx is cancelled. Requests are processed in order on the calling goroutine.
func (s *Server) Serve(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.HandleRequest(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			s.respond("", map[string]any{
				"type":    "error",
				"message": fmt.Sprintf("Request too large (max %d MB)", maxRequestSize/(1024*1024)),
			})
			return ErrTooLarge
		}
		return err
	}
	return nil
}

// HandleRequest processes a single request line.
func (s *Server) HandleRequest(line string) {
	var req map[string]any
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.log.Error("Invalid JSON request: %s", line)
		s.respond("", map[string]any{"type": "error", "message": "Invalid JSON"})
		return
	}

	action, _ := req["action"].(string)
	s.log.Request(action, line)
	reqID := requestID(req)

	h, ok := handlers[action]
	if !ok {
		s.respond(reqID, map[string]any{"type": "error", "message": fmt.Sprintf("Unknown action: %s", action)})
		return
	}
	resp, err := h(s, req)
	if err != nil {
		s.respond(reqID, errorResponse(err))
		return
	}
	s.respond(reqID, resp)
}

func errorResponse(err error) map[string]any {
	var (
		msg string
		fe  stage.FileErrors
	)
	switch {
	case errors.Is(err, ErrUnknownBuffer):
		msg = "Buffer not synced: " + err.Error()
	case errors.Is(err, workspace.ErrPathEscape):
		msg = "Path escapes project root"
	case errors.Is(err, workspace.ErrInvalidPath):
		msg = "Invalid path"
	case errors.Is(err, config.ErrInvalidConfig):
		msg = err.Error()
	case errors.As(err, &fe):
		return map[string]any{"type": "error", "message": fe.Error(), "files": fileErrorMessages(fe)}
	default:
		msg = err.Error()
	}
	return map[string]any{"type": "error", "message": msg}
}

func fileErrorMessages(fe stage.FileErrors) map[string]string {
	out := make(map[string]string, len(fe))
	for path, err := range fe {
		out[path] = err.Error()
	}
	return out
}

func (s *Server) respond(reqID string, data map[string]any) {
	out, _ := json.Marshal(addResponseID(reqID, data))
	msgType, _ := data["type"].(string)
	s.outMu.Lock()
	defer s.outMu.Unlock()
	s.log.Response(msgType, string(out))
	fmt.Fprintln(s.out, string(out))
}

func addResponseID(reqID string, data map[string]any) map[string]any {
	if reqID == "" {
		return data
	}
	data["request_id"] = reqID
	return data
}

func requestID(req map[string]any) string {
	switch v := req["request_id"].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

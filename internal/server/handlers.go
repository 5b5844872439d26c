package server

import (
	"errors"
	"fmt"
	"sort"

	"github.com/youruser/snipstage/internal/buffer"
	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/snippet"
	"github.com/youruser/snipstage/internal/stage"
	"github.com/youruser/snipstage/internal/workspace"
)

type handlerFunc func(s *Server, req map[string]any) (map[string]any, error)

// Line numbers in requests and in next/prev replies are 1-indexed like
// editor cursors. Buffer edits and conflict positions are 0-indexed.
var handlers = map[string]handlerFunc{
	"ping":         (*Server).handlePing,
	"version":      (*Server).handleVersion,
	"init":         (*Server).handleInit,
	"extract":      (*Server).handleExtract,
	"display":      (*Server).handleDisplay,
	"stage":        (*Server).handleStage,
	"sync":         (*Server).handleSync,
	"unwatch":      (*Server).handleUnwatch,
	"choose":       (*Server).handleChoose,
	"choose_range": (*Server).handleChooseRange,
	"choose_all":   (*Server).handleChooseAll,
	"next":         (*Server).handleNext,
	"prev":         (*Server).handlePrev,
	"positions":    (*Server).handlePositions,
	"quickfix":     (*Server).handleQuickfix,
}

func (s *Server) handlePing(map[string]any) (map[string]any, error) {
	return map[string]any{"type": "ok"}, nil
}

func (s *Server) handleVersion(map[string]any) (map[string]any, error) {
	return map[string]any{"type": "version", "version": s.version}, nil
}

func (s *Server) handleInit(req map[string]any) (map[string]any, error) {
	root, _ := req["project_root"].(string)
	if root == "" {
		return nil, fmt.Errorf("missing required field: project_root")
	}
	ws, err := workspace.New(root)
	if err != nil {
		return nil, err
	}
	s.ws = ws
	return map[string]any{"type": "ok", "project_root": ws.Root()}, nil
}

func (s *Server) handleExtract(req map[string]any) (map[string]any, error) {
	text, _ := req["response"].(string)
	def, _ := req["default_filepath"].(string)
	target := s.target(req)

	x := snippet.Extract(text, target, snippet.Options{DefaultFilepath: s.normalize(def)})
	files := make([]map[string]any, 0, len(x.Files))
	for _, path := range x.Files {
		files = append(files, map[string]any{"path": path, "snippets": x.Snippets[path]})
	}
	return map[string]any{
		"type":     "snippets",
		"files":    files,
		"errors":   fileErrorMessages(stage.GroupErrors(x.Errors)),
		"warnings": nonNilStrings(x.Warnings),
	}, nil
}

func (s *Server) handleDisplay(req map[string]any) (map[string]any, error) {
	text, _ := req["response"].(string)
	out := snippet.Display(text, snippet.DisplayOptions{Spinner: s.cfg.Display.Spinner})
	return map[string]any{"type": "display", "text": out}, nil
}

func (s *Server) handleStage(req map[string]any) (map[string]any, error) {
	text, _ := req["response"].(string)
	name, _ := req["name"].(string)
	minimize := *s.cfg.Minimize
	if v, ok := req["minimize"].(bool); ok {
		minimize = v
	}

	target := s.target(req)
	for _, b := range s.buffers {
		b.TakeEdits()
	}
	rep := stage.Apply(text, target, stage.PipelineOptions{
		Options: stage.Options{
			HeadLabel:    s.cfg.HeadLabel,
			SnippetLabel: s.cfg.SnippetLabel,
		},
		Minimize:        minimize,
		DefaultFilepath: s.normalize(name),
	})

	files := make([]map[string]any, 0, len(rep.Files))
	for _, fr := range rep.Files {
		buf := s.buffers[fr.Path]
		files = append(files, map[string]any{
			"path":      fr.Path,
			"created":   fr.Created,
			"blocks":    fr.Blocks,
			"edits":     buf.TakeEdits(),
			"positions": s.registry.Refresh(buf),
		})
	}
	return map[string]any{
		"type":     "staged",
		"files":    files,
		"errors":   fileErrorMessages(rep.Errors),
		"warnings": nonNilStrings(rep.Extraction.Warnings),
	}, nil
}

func (s *Server) handleSync(req map[string]any) (map[string]any, error) {
	name, err := s.bufferName(req)
	if err != nil {
		return nil, err
	}
	lines := stringSlice(req["lines"])
	tick, _ := intField(req, "changedtick")

	buf, ok := s.buffers[name]
	if !ok {
		buf = buffer.New(name, lines)
		buf.Sync(lines, tick)
		s.buffers[name] = buf
	} else {
		buf.Sync(lines, tick)
	}
	return s.positionsResponse(buf), nil
}

func (s *Server) handleUnwatch(req map[string]any) (map[string]any, error) {
	name, err := s.bufferName(req)
	if err != nil {
		return nil, err
	}
	delete(s.buffers, name)
	s.registry.Unwatch(name)
	return map[string]any{"type": "ok"}, nil
}

func (s *Server) handleChoose(req map[string]any) (map[string]any, error) {
	buf, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	side, ok := sideField(req)
	if !ok {
		return s.editsResponse(buf, false), nil
	}
	line, ok := intField(req, "line")
	if !ok {
		return nil, fmt.Errorf("missing required field: line")
	}
	changed, err := s.resolver.ChooseAtCursor(buf, line-1, side)
	if errors.Is(err, conflict.ErrNoConflict) {
		return s.editsResponse(buf, false), nil
	}
	if err != nil {
		return nil, err
	}
	return s.editsResponse(buf, changed), nil
}

func (s *Server) handleChooseRange(req map[string]any) (map[string]any, error) {
	buf, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	side, ok := sideField(req)
	if !ok {
		return s.editsResponse(buf, false), nil
	}
	start, okStart := intField(req, "start")
	end, okEnd := intField(req, "end")
	if !okStart || !okEnd {
		return nil, fmt.Errorf("missing required fields: start, end")
	}
	n := s.resolver.ChooseRange(buf, start-1, end-1, side)
	resp := s.editsResponse(buf, n > 0)
	resp["resolved"] = n
	return resp, nil
}

func (s *Server) handleChooseAll(req map[string]any) (map[string]any, error) {
	buf, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	side, ok := sideField(req)
	if !ok {
		return s.editsResponse(buf, false), nil
	}
	n := s.resolver.ChooseAll(buf, side)
	resp := s.editsResponse(buf, n > 0)
	resp["resolved"] = n
	return resp, nil
}

func (s *Server) handleNext(req map[string]any) (map[string]any, error) {
	return s.navigate(req, true)
}

func (s *Server) handlePrev(req map[string]any) (map[string]any, error) {
	return s.navigate(req, false)
}

// navigate looks strictly past the cursor line in the given direction.
func (s *Server) navigate(req map[string]any, forward bool) (map[string]any, error) {
	buf, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	line, ok := intField(req, "line")
	if !ok {
		return nil, fmt.Errorf("missing required field: line")
	}
	cursor := line - 1

	var (
		pos   conflict.Position
		found bool
	)
	if forward {
		pos, found = s.resolver.FindNext(buf, cursor+1)
	} else {
		pos, found = s.resolver.FindPrev(buf, cursor-1)
	}
	if !found {
		return map[string]any{"type": "none"}, nil
	}
	return map[string]any{"type": "position", "line": pos.Start() + 1, "position": pos}, nil
}

func (s *Server) handlePositions(req map[string]any) (map[string]any, error) {
	buf, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	return s.positionsResponse(buf), nil
}

func (s *Server) handleQuickfix(map[string]any) (map[string]any, error) {
	entries := s.registry.Quickfix()
	if entries == nil {
		entries = []conflict.QuickfixEntry{}
	}
	return map[string]any{"type": "quickfix", "entries": entries}, nil
}

func (s *Server) positionsResponse(buf *buffer.Buffer) map[string]any {
	positions := s.registry.Refresh(buf)
	if positions == nil {
		positions = []conflict.Position{}
	}
	return map[string]any{
		"type":      "positions",
		"name":      buf.Name(),
		"positions": positions,
		"count":     len(positions),
	}
}

func (s *Server) editsResponse(buf *buffer.Buffer, changed bool) map[string]any {
	edits := buf.TakeEdits()
	if edits == nil {
		edits = []buffer.Edit{}
	}
	resp := s.positionsResponse(buf)
	resp["type"] = "resolved"
	resp["changed"] = changed
	resp["edits"] = edits
	return resp
}

// normalize maps a path onto the workspace buffer name when a project
// root is known. Paths that cannot be mapped are kept as given.
func (s *Server) normalize(path string) string {
	if path == "" || s.ws == nil {
		return path
	}
	if name, err := s.ws.Name(path); err == nil {
		return name
	}
	return path
}

func (s *Server) bufferName(req map[string]any) (string, error) {
	name, _ := req["name"].(string)
	if name == "" {
		return "", fmt.Errorf("missing required field: name")
	}
	return s.normalize(name), nil
}

func (s *Server) lookup(req map[string]any) (*buffer.Buffer, error) {
	name, err := s.bufferName(req)
	if err != nil {
		return nil, err
	}
	buf, ok := s.buffers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuffer, name)
	}
	return buf, nil
}

func (s *Server) target(req map[string]any) *sessionTarget {
	var candidates []string
	if _, ok := req["candidates"]; ok {
		for _, c := range stringSlice(req["candidates"]) {
			candidates = append(candidates, s.normalize(c))
		}
	}
	return &sessionTarget{s: s, candidates: candidates}
}

// sessionTarget serves original content from synced buffers first and
// the workspace second, and stages into synced buffers. Candidates are
// the synced buffers plus the workspace files, sorted.
type sessionTarget struct {
	s          *Server
	candidates []string
}

func (t *sessionTarget) ReadOriginal(path string) ([]string, bool, error) {
	if b, ok := t.s.buffers[path]; ok {
		return b.Lines(), true, nil
	}
	if t.s.ws != nil {
		return t.s.ws.ReadOriginal(path)
	}
	return nil, false, nil
}

func (t *sessionTarget) Candidates() []string {
	if t.candidates != nil {
		return t.candidates
	}
	seen := make(map[string]bool, len(t.s.buffers))
	names := make([]string, 0, len(t.s.buffers))
	for name := range t.s.buffers {
		seen[name] = true
		names = append(names, name)
	}
	if t.s.ws != nil {
		for _, name := range t.s.ws.Candidates() {
			if !seen[name] {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (t *sessionTarget) Open(path string) (stage.Buffer, error) {
	if b, ok := t.s.buffers[path]; ok {
		return b, nil
	}
	lines, _, err := t.ReadOriginal(path)
	if err != nil {
		return nil, err
	}
	b := buffer.New(path, lines)
	t.s.buffers[path] = b
	return b, nil
}

func sideField(req map[string]any) (conflict.Side, bool) {
	name, _ := req["side"].(string)
	return conflict.ParseSide(name)
}

func intField(req map[string]any, key string) (int, bool) {
	switch v := req[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func stringSlice(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

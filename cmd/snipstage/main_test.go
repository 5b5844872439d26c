package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const staged = "one\n<<<<<<< HEAD\ntwo\n=======\nTWO\n>>>>>>> Snippet\n"

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cfg := filepath.Join(t.TempDir(), "config.toml")
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestVersionCmd(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "snipstage "+version), out)
}

func TestStageCmd(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", "one\ntwo\n")
	resp := "Filepath: a.txt\nReplace lines: 2-2\n```\nTWO\n```\n"

	out, _, err := runCLI(t, resp, "-C", root, "stage", "--no-minimize")
	require.NoError(t, err)
	assert.Contains(t, out, "staged a.txt (1 block)")
	assert.Equal(t, staged, readFile(t, path))

	_, err = os.Stat(filepath.Join(root, ".snipstage", "lock"))
	assert.True(t, os.IsNotExist(err), "lock should be released")
}

func TestStageCmd_DryRun(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", "one\ntwo\n")
	respFile := writeFile(t, t.TempDir(), "resp.md", "Filepath: a.txt\nReplace lines: 2-2\n```\nTWO\n```\n")

	out, _, err := runCLI(t, "", "-C", root, "stage", "--dry-run", respFile)
	require.NoError(t, err)
	assert.Contains(t, out, "+<<<<<<< HEAD")
	assert.Equal(t, "one\ntwo\n", readFile(t, path))
}

func TestStageCmd_CreatesFile(t *testing.T) {
	root := t.TempDir()
	resp := "Filepath: pkg/new.go\nInsert after line 0:\n```go\npackage pkg\n```\n"

	out, _, err := runCLI(t, resp, "-C", root, "stage")
	require.NoError(t, err)
	assert.Contains(t, out, "created pkg/new.go")
	assert.Contains(t, readFile(t, filepath.Join(root, "pkg", "new.go")), "package pkg")
}

func TestStageCmd_ReportsFailures(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.go", "package a\n")
	resp := "<FILEPATH>a.go</FILEPATH>\n<SEARCH>\npackage b\n</SEARCH>\n<REPLACE>\npackage c\n</REPLACE>\n"

	_, errOut, err := runCLI(t, resp, "-C", root, "stage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file not staged")
	assert.Contains(t, errOut, "search block not found")
	assert.Equal(t, "package a\n", readFile(t, path))
}

func TestStageCmd_SavesOnlyStagedFiles(t *testing.T) {
	root := t.TempDir()
	good := writeFile(t, root, "a.txt", "one\ntwo\n")
	bad := writeFile(t, root, "b.txt", "only")
	resp := "Filepath: a.txt\nReplace lines: 2-2\n```\nTWO\n```\n" +
		"Filepath: b.txt\nReplace lines: 1-1\n```\nONLY\n```\nReplace lines: 9-9\n```\nx\n```\n"

	_, errOut, err := runCLI(t, resp, "-C", root, "stage", "--no-minimize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file not staged")
	assert.Contains(t, errOut, "outside buffer")
	assert.Equal(t, staged, readFile(t, good))
	assert.Equal(t, "only", readFile(t, bad))
}

func TestResolveCmd(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", staged)

	out, _, err := runCLI(t, "", "-C", root, "resolve", "a.txt", "--side", "theirs")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved 1 block, 0 remaining")
	assert.Equal(t, "one\nTWO\n", readFile(t, path))
}

func TestResolveCmd_Line(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", staged+staged)

	out, _, err := runCLI(t, "", "-C", root, "resolve", "a.txt", "--side", "ours", "--line", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved 1 block, 1 remaining")
	assert.Equal(t, staged+"one\ntwo\n", readFile(t, path))

	_, _, err = runCLI(t, "", "-C", root, "resolve", "a.txt", "--line", "1")
	assert.Error(t, err)
}

func TestResolveCmd_UnknownSide(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", staged)
	_, _, err := runCLI(t, "", "-C", root, "resolve", "a.txt", "--side", "left")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown side")
}

func TestScanCmd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", staged)
	writeFile(t, root, "clean.txt", "fine\n")

	out, _, err := runCLI(t, "", "-C", root, "scan")
	require.NoError(t, err)
	assert.Equal(t, "a.txt:2: <<<<<<< HEAD\n", out)

	_, _, err = runCLI(t, "", "-C", root, "scan", "--check")
	assert.Error(t, err)

	_, _, err = runCLI(t, "", "-C", root, "scan", "--check", "clean.txt")
	assert.NoError(t, err)
}

func TestSummaryCmd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", staged+staged)
	writeFile(t, root, "sub/b.txt", staged)
	writeFile(t, root, "clean.txt", "fine\n")

	out, _, err := runCLI(t, "", "-C", root, "summary")
	require.NoError(t, err)
	var rep summaryReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 3, rep.Conflicts)
	require.Len(t, rep.Files, 2)
	assert.Equal(t, "a.txt", rep.Files[0].Path)
	assert.Equal(t, []int{2, 8}, rep.Files[0].Lines)
	assert.Equal(t, "sub/b.txt", rep.Files[1].Path)

	out, _, err = runCLI(t, "", "-C", root, "summary", "--format", "yaml")
	require.NoError(t, err)
	var yrep summaryReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &yrep))
	assert.Equal(t, rep.Conflicts, yrep.Conflicts)

	_, _, err = runCLI(t, "", "-C", root, "summary", "--format", "xml")
	assert.Error(t, err)
}

func TestParseLineRange(t *testing.T) {
	tests := []struct {
		in         string
		start, end int
		wantErr    bool
	}{
		{in: "3-7", start: 3, end: 7},
		{in: " 1 - 1 ", start: 1, end: 1},
		{in: "7-3", wantErr: true},
		{in: "0-3", wantErr: true},
		{in: "12", wantErr: true},
		{in: "a-b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, err := parseLineRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestServeCmd(t *testing.T) {
	out, _, err := runCLI(t, "{\"action\":\"ping\",\"request_id\":1}\n", "serve")
	require.NoError(t, err)
	assert.Contains(t, out, `"type":"ok"`)
	assert.Contains(t, out, `"request_id":"1"`)
}

func TestSummaryCmd_Paths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", staged)
	writeFile(t, root, "b.txt", staged)

	out, _, err := runCLI(t, "", "-C", root, "summary", "b.txt")
	require.NoError(t, err)
	var rep summaryReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Files, 1)
	assert.Equal(t, "b.txt", rep.Files[0].Path)

	_, _, err = runCLI(t, "", "-C", root, "summary", "../outside.txt")
	assert.Error(t, err)
}

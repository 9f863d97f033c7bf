package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	chainProject  = filepath.Join("..", "harness", "testdata", "projects", "chain.cue")
	toggleProject = filepath.Join("..", "harness", "testdata", "projects", "toggle.hcl")
	harnessData   = filepath.Join("..", "harness", "testdata")
)

// rawResponse mirrors CLIResponse with the payload left undecoded.
type rawResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// execute runs the full command tree with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decode parses a JSON envelope and its payload into data (if non-nil).
func decode(t *testing.T, out string, data any) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// copyHarnessData copies the harness projects and scenarios into a temp
// directory, keeping their relative layout.
func copyHarnessData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"projects", "scenarios"} {
		require.NoError(t, os.CopyFS(filepath.Join(dir, sub), os.DirFS(filepath.Join(harnessData, sub))))
	}
	return dir
}

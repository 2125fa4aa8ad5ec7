package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/pkg/errors"
)

// CLITransport implements Transport by shelling out to the external binary
// once per call: `<binary> rc <endpoint> <key>=<value>...`. Grounded on the
// teacher's pkg/agent "exec transport" idiom of building an *exec.Cmd per
// round-trip rather than holding a persistent connection, generalized here
// to the cloud backend's one-shot fallback transport named in spec section
// 4.9 ("the daemon transport is not the only transport; a one-shot CLI
// invocation must produce identical behavior through the same interface").
type CLITransport struct {
	BinaryPath string
}

// NewCLITransport creates a one-shot CLI Transport for the given binary.
func NewCLITransport(binaryPath string) *CLITransport {
	return &CLITransport{BinaryPath: binaryPath}
}

// Call invokes the external binary's `rc` subcommand for endpoint, encoding
// args as an inline JSON document (rclone's rc CLI accepts a single `-json`
// flag carrying the full argument object) and decoding the resulting JSON
// body back into Response.Body.
func (t *CLITransport) Call(ctx context.Context, endpoint Endpoint, args map[string]any) (Response, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return Response{}, errors.Wrap(err, "unable to encode rc arguments")
	}

	cmd := exec.CommandContext(ctx, t.BinaryPath, "rc", string(endpoint), "--json", string(payload))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		return Response{ErrText: stderr.String(), Failed: true}, errors.Wrap(runErr, "unable to run rc command")
	}
	return Response{Body: stdout.Bytes()}, nil
}

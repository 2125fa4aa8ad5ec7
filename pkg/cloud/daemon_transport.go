package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
)

// DaemonTransport implements Transport against a running control-socket
// daemon, POSTing each call's arguments as a JSON body to
// "/<endpoint>" over an HTTP client whose DialContext is pinned to the
// daemon's control socket rather than a TCP address. Generalized from the
// teacher's pattern (in its forwarding/tunneling sessions) of layering a
// normal protocol — here HTTP/JSON, there an arbitrary forwarded stream —
// over a transport-agnostic dial function so the wire protocol doesn't
// need to know whether it's running over TCP, a Unix socket, or a named
// pipe.
type DaemonTransport struct {
	client     *http.Client
	socketPath string
}

// NewDaemonTransport creates a DaemonTransport that dials socketPath for
// every request, regardless of the URL host given to the HTTP client
// (which is ignored by the control-socket daemon; it identifies itself by
// socket path alone).
func NewDaemonTransport(socketPath string) *DaemonTransport {
	return &DaemonTransport{
		socketPath: socketPath,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return dialControlSocket(ctx, socketPath)
				},
			},
		},
	}
}

// Call implements Transport.
func (t *DaemonTransport) Call(ctx context.Context, endpoint Endpoint, args map[string]any) (Response, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return Response{}, err
	}

	url := fmt.Sprintf("http://daemon/%s", endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{Failed: true, ErrText: err.Error()}, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return Response{Failed: true, ErrText: readErr.Error()}, readErr
	}
	if resp.StatusCode >= 400 {
		return Response{Body: body, Failed: true, ErrText: string(body)}, nil
	}
	return Response{Body: body}, nil
}

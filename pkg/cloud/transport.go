package cloud

import (
	"context"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// Endpoint names the closed set of operations a Transport may be asked to
// perform, per spec section 4.9: "allowed endpoints are a closed set...
// attempting any other endpoint name is rejected with PermissionDenied."
type Endpoint string

const (
	EndpointList         Endpoint = "list"
	EndpointStat         Endpoint = "stat"
	EndpointMkdir        Endpoint = "mkdir"
	EndpointDeleteFile   Endpoint = "deletefile"
	EndpointPurge        Endpoint = "purge"
	EndpointRmdir        Endpoint = "rmdir"
	EndpointCopyFile     Endpoint = "copyfile"
	EndpointMoveFile     Endpoint = "movefile"
	EndpointListRemotes  Endpoint = "list-remotes"
	EndpointConfigDump   Endpoint = "config-dump"
	EndpointJobStatus    Endpoint = "job-status"
	EndpointJobStop      Endpoint = "job-stop"
	EndpointNoOp         Endpoint = "no-op"
)

var allowedEndpoints = map[Endpoint]bool{
	EndpointList: true, EndpointStat: true, EndpointMkdir: true,
	EndpointDeleteFile: true, EndpointPurge: true, EndpointRmdir: true,
	EndpointCopyFile: true, EndpointMoveFile: true,
	EndpointListRemotes: true, EndpointConfigDump: true,
	EndpointJobStatus: true, EndpointJobStop: true, EndpointNoOp: true,
}

// idempotentEndpoints is the retry-safe subset named in spec section 4.9.
var idempotentEndpoints = map[Endpoint]bool{
	EndpointNoOp: true, EndpointListRemotes: true, EndpointConfigDump: true,
	EndpointJobStatus: true, EndpointJobStop: true,
}

// ValidateEndpoint rejects any endpoint outside the closed set.
func ValidateEndpoint(e Endpoint) error {
	if !allowedEndpoints[e] {
		return browseyerr.New(browseyerr.PermissionDenied, "endpoint not in the allowed set: "+string(e))
	}
	return nil
}

// IsIdempotent reports whether e is safe to retry per spec section 4.9.
func IsIdempotent(e Endpoint) bool {
	return idempotentEndpoints[e]
}

// Timeout classes per spec section 4.9.
const (
	ReadTimeout      = 25 * time.Second
	WriteTimeout     = 120 * time.Second
	AsyncJobBudget   = 300 * time.Second
	retryBackoff     = 120 * time.Millisecond
	jobPollInterval  = 120 * time.Millisecond
)

// readEndpoints is the same read/write split TimeoutFor uses, named
// separately so RCPolicy can gate daemon use per direction without
// conflating it with timeout selection.
var readEndpoints = map[Endpoint]bool{
	EndpointList: true, EndpointStat: true, EndpointListRemotes: true,
	EndpointConfigDump: true, EndpointNoOp: true, EndpointJobStatus: true,
}

// IsReadEndpoint reports whether e only reads remote state.
func IsReadEndpoint(e Endpoint) bool {
	return readEndpoints[e]
}

// TimeoutFor returns the per-operation timeout class for e: reads and
// job-status polls get ReadTimeout; everything else (writes, job-stop)
// gets WriteTimeout.
func TimeoutFor(e Endpoint) time.Duration {
	if IsReadEndpoint(e) {
		return ReadTimeout
	}
	return WriteTimeout
}

// Response is a transport call's raw result: stdout/body bytes alongside
// whatever the daemon or CLI reported as an error, before code
// classification.
type Response struct {
	Body     []byte
	ErrText  string
	Failed   bool
}

// Transport is the shared seam both the control-socket daemon and the
// one-shot CLI implement, per spec section 4.9's "two transports share
// this interface."
type Transport interface {
	Call(ctx context.Context, endpoint Endpoint, args map[string]any) (Response, error)
}

// CallWithRetry invokes t.Call, retrying once with retryBackoff if the
// endpoint is idempotent and the failure is classified as a retryable
// transport-level error, per spec section 4.9's retry policy.
func CallWithRetry(ctx context.Context, t Transport, endpoint Endpoint, args map[string]any, mapper ProviderErrorMapper) (Response, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return Response{}, err
	}

	resp, err := t.Call(ctx, endpoint, args)
	if err == nil && !resp.Failed {
		return resp, nil
	}

	errText := resp.ErrText
	if err != nil {
		errText = err.Error()
	}
	if !IsIdempotent(endpoint) || !IsRetryableTransportError(errText) {
		return resp, classifiedError(resp, err, mapper)
	}

	select {
	case <-ctx.Done():
		return resp, browseyerr.New(browseyerr.Cancelled, "cloud call cancelled before retry")
	case <-time.After(retryBackoff):
	}

	resp, err = t.Call(ctx, endpoint, args)
	if err == nil && !resp.Failed {
		return resp, nil
	}
	return resp, classifiedError(resp, err, mapper)
}

func classifiedError(resp Response, err error, mapper ProviderErrorMapper) error {
	text := resp.ErrText
	if err != nil {
		text = err.Error()
	}
	scrubbed := ScrubSensitiveValues(text)
	code := ClassifyError(scrubbed, mapper)
	return browseyerr.New(code, scrubbed)
}

package cloud

import (
	"regexp"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// transportErrorPatterns matches a substring of a transport error (stderr,
// stdout, or a daemon error response body) against the closed code set per
// spec section 4.9. Matching is case-insensitive substring matching on a
// lower-cased copy of the text, which is how the teacher's own
// classification in pkg/synchronization/core's error-message sniffing
// works (it pattern-matches known libgit2/rsync phrasings rather than
// parsing a structured error).
var transportErrorPatterns = []struct {
	substr string
	code   browseyerr.Code
}{
	{"binary not found", browseyerr.BinaryMissing},
	{"executable file not found", browseyerr.BinaryMissing},
	{"no such host", browseyerr.NetworkError},
	{"connection refused", browseyerr.NetworkError},
	{"network is unreachable", browseyerr.NetworkError},
	{"context deadline exceeded", browseyerr.Timeout},
	{"i/o timeout", browseyerr.Timeout},
	{"context canceled", browseyerr.Cancelled},
	{"rate limit", browseyerr.RateLimited},
	{"too many requests", browseyerr.RateLimited},
	{"quota exceeded", browseyerr.RateLimited},
	{"auth", browseyerr.AuthRequired},
	{"unauthorized", browseyerr.AuthRequired},
	{"permission denied", browseyerr.PermissionDenied},
	{"access denied", browseyerr.PermissionDenied},
	{"already exists", browseyerr.DestinationExists},
	{"not found", browseyerr.NotFound},
	{"no such file or directory", browseyerr.NotFound},
	{"x509", browseyerr.TLSCertificateError},
	{"certificate", browseyerr.TLSCertificateError},
	{"invalid config", browseyerr.InvalidConfig},
	{"didn't find section in config file", browseyerr.InvalidConfig},
	{"not supported", browseyerr.Unsupported},
	{"unsupported", browseyerr.Unsupported},
}

// ProviderErrorMapper lets a specific provider kind add codes within its
// own namespace on top of the shared classification, per spec section
// 4.9's "a provider-specific mapping layer adds codes only within its own
// provider kind" rule (e.g. Google Drive's activity-limit message maps to
// RateLimited only for that provider).
type ProviderErrorMapper func(text string) (browseyerr.Code, bool)

// ClassifyError maps raw transport error text to a code in the closed
// taxonomy, trying extra first (so a provider-specific phrasing can take
// precedence over the generic patterns) and falling back to UnknownError
// if nothing matches.
func ClassifyError(text string, extra ProviderErrorMapper) browseyerr.Code {
	lower := strings.ToLower(text)
	if extra != nil {
		if code, ok := extra(lower); ok {
			return code
		}
	}
	for _, p := range transportErrorPatterns {
		if strings.Contains(lower, p.substr) {
			return p.code
		}
	}
	return browseyerr.UnknownError
}

// retryableSubstrings lists the error-text fragments spec section 4.9 calls
// out as transport-level and safe to retry once on an idempotent method:
// "timeout and specific transport-level I/O errors (reset, refused,
// interrupted, broken pipe, not-connected, timed-out, would-block)".
// "timeout" itself is checked separately in IsRetryableTransportError.
var retryableSubstrings = []string{
	"reset", "refused", "interrupted", "broken pipe",
	"not connected", "timed out", "would block",
}

// IsRetryableTransportError reports whether text describes one of the
// transport-level conditions eligible for the single 120ms-backoff retry.
func IsRetryableTransportError(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "timeout") {
		return true
	}
	for _, s := range retryableSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// sensitiveValuePattern matches key=value-shaped secrets the external
// binary might echo back in an error message: access_token, refresh_token,
// token, pass/password, case-insensitive, value optionally opened by a
// quote and terminated by whitespace or a quote.
var sensitiveValuePattern = regexp.MustCompile(`(?i)(access_token|refresh_token|token|pass(?:word)?)\s*[=:]\s*["']?[^\s"']+`)

// scrubMaxLength is the truncation length spec section 4.9 gives for
// scrubbed error text.
const scrubMaxLength = 2048

// ScrubSensitiveValues redacts token/password-shaped values out of text
// and truncates the result to 2048 characters, per spec section 4.9.
func ScrubSensitiveValues(text string) string {
	scrubbed := sensitiveValuePattern.ReplaceAllStringFunc(text, func(match string) string {
		idx := strings.IndexAny(match, "=:")
		if idx < 0 {
			return match
		}
		return match[:idx+1] + "[REDACTED]"
	})
	if len(scrubbed) > scrubMaxLength {
		return scrubbed[:scrubMaxLength]
	}
	return scrubbed
}

package cloud

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloudpath"
	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/browsey/browsey-core/pkg/mustdo"
)

// CloudRemoteConfig is the subset of the external binary's `config dump`
// YAML this package actually consumes: the remote's backend kind (used by
// the provider-specific error mapper extension point) and whether the
// backend compares names case-insensitively, per spec section 4.8's "case
// rules per remote kind".
type CloudRemoteConfig struct {
	Type            string `yaml:"type"`
	CaseInsensitive bool   `yaml:"-"`
}

// caseInsensitiveBackends lists backend kinds the external binary itself
// documents as case-insensitive regardless of what config-dump reports,
// since several backends (onedrive, box, dropbox legacy) don't surface a
// per-remote flag for it.
var caseInsensitiveBackends = map[string]bool{
	"onedrive": true,
	"box":      true,
	"dropbox":  true,
}

// RcloneProvider is the concrete Provider implementation: it prefers the
// control-socket daemon transport and falls back to the one-shot CLI
// transport whenever the daemon itself is unreachable or a call to it
// fails at the transport level, per spec section 4.9. Grounded on the
// teacher's multi-transport session design (pkg/synchronization/core
// selecting among SSH/Docker/tunnel protocol handlers behind one Endpoint
// interface), generalized here to two transports that speak an HTTP/JSON
// wire format over different underlying sockets.
type RcloneProvider struct {
	binaryPath     string
	binaryIdentity string
	policy         RCPolicy

	daemon *Daemon
	cli    *CLITransport

	versionProbe *VersionProbe
	mapper       ProviderErrorMapper

	remoteConfig map[string]CloudRemoteConfig
	log          *logging.Logger
}

// NewRcloneProvider creates a Provider for the external binary at
// binaryPath, identified by binaryIdentity (e.g. its resolved path plus
// modification time, so a binary upgrade forces a daemon restart). policy
// gates whether the control-socket daemon transport is attempted at all,
// per spec section 6's BROWSEY_RCLONE_RC* toggles; a zero RCPolicy falls
// back to defaultRCEnabled's platform default for both directions.
func NewRcloneProvider(binaryPath, binaryIdentity string, c interface {
	Now() time.Time
}, log *logging.Logger, mapper ProviderErrorMapper, policy RCPolicy) *RcloneProvider {
	p := &RcloneProvider{
		binaryPath:     binaryPath,
		binaryIdentity: binaryIdentity,
		policy:         policy,
		cli:            NewCLITransport(binaryPath),
		versionProbe:   NewVersionProbe(systemClockAdapter{c}),
		mapper:         mapper,
		remoteConfig:   make(map[string]CloudRemoteConfig),
		log:            log,
	}
	p.daemon = NewDaemon(systemClockAdapter{c}, log, p.spawnDaemon, p.probeDaemon)
	return p
}

// systemClockAdapter narrows any Now()-returning type to clock.Clock so
// callers don't need to import pkg/clock just to construct a provider.
type systemClockAdapter struct {
	c interface{ Now() time.Time }
}

func (a systemClockAdapter) Now() time.Time { return a.c.Now() }

// spawnDaemon launches the external binary in daemon (rc server) mode
// bound to socketPath, per spec section 4.9's control-socket transport.
func (p *RcloneProvider) spawnDaemon(ctx context.Context, binaryPath, socketPath string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, binaryPath, "rcd", "--rc-addr", "unix://"+socketPath, "--rc-no-auth")
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// probeDaemon hits the no-op endpoint to verify a spawned daemon answers.
func (p *RcloneProvider) probeDaemon(ctx context.Context, socketPath string) error {
	transport := NewDaemonTransport(socketPath)
	resp, err := transport.Call(ctx, EndpointNoOp, nil)
	if err != nil {
		return err
	}
	if resp.Failed {
		return fmt.Errorf("no-op probe failed: %s", resp.ErrText)
	}
	return nil
}

// call dispatches endpoint through the daemon transport when available and
// allowed by policy, recycling the daemon and falling over to the CLI
// transport on any transport-level failure.
func (p *RcloneProvider) call(ctx context.Context, endpoint Endpoint, args map[string]any) (Response, error) {
	if !p.policy.allowsDaemon(endpoint) {
		return CallWithRetry(ctx, p.cli, endpoint, args, p.mapper)
	}

	socketPath, err := p.daemon.EnsureReady(ctx, p.binaryPath, p.binaryIdentity)
	if err != nil {
		return CallWithRetry(ctx, p.cli, endpoint, args, p.mapper)
	}

	transport := NewDaemonTransport(socketPath)
	resp, callErr := CallWithRetry(ctx, transport, endpoint, args, p.mapper)
	if callErr != nil && isTransportLevelCode(browseyerr.CodeOf(callErr)) {
		p.daemon.Recycle()
		return CallWithRetry(ctx, p.cli, endpoint, args, p.mapper)
	}
	return resp, callErr
}

func isTransportLevelCode(code browseyerr.Code) bool {
	switch code {
	case browseyerr.NetworkError, browseyerr.Timeout, browseyerr.BinaryMissing:
		return true
	}
	return false
}

// ensureVersion runs the startup version probe once (cached thereafter per
// VersionProbe's own backoff), invoking the binary's `version` subcommand
// directly rather than through either Transport, since version predates
// any daemon/rc concept.
func (p *RcloneProvider) ensureVersion(ctx context.Context) error {
	return p.versionProbe.Check(func() (string, error) {
		out, err := exec.CommandContext(ctx, p.binaryPath, "version").Output()
		if err != nil {
			return "", browseyerr.Wrap(browseyerr.BinaryMissing, err, "unable to run backend binary version probe")
		}
		line, _, _ := bytes.Cut(out, []byte("\n"))
		return string(line), nil
	})
}

// ListRemotes implements Provider.
func (p *RcloneProvider) ListRemotes(ctx context.Context) ([]string, error) {
	if err := p.ensureVersion(ctx); err != nil {
		return nil, err
	}
	resp, err := p.call(ctx, EndpointListRemotes, nil)
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Remotes []string `json:"remotes"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to decode remote list")
	}
	return decoded.Remotes, nil
}

// remoteKind returns the cached backend type for remote, fetching and
// caching config-dump on first use.
func (p *RcloneProvider) remoteKind(ctx context.Context, remote string) (CloudRemoteConfig, error) {
	if cfg, ok := p.remoteConfig[remote]; ok {
		return cfg, nil
	}
	resp, err := p.call(ctx, EndpointConfigDump, nil)
	if err != nil {
		return CloudRemoteConfig{}, err
	}
	var raw map[string]CloudRemoteConfig
	if err := yaml.Unmarshal(resp.Body, &raw); err != nil {
		return CloudRemoteConfig{}, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to decode remote config")
	}
	for name, cfg := range raw {
		cfg.CaseInsensitive = caseInsensitiveBackends[cfg.Type]
		p.remoteConfig[name] = cfg
	}
	cfg, ok := p.remoteConfig[remote]
	if !ok {
		return CloudRemoteConfig{}, browseyerr.New(browseyerr.NotFound, "unknown remote: "+remote)
	}
	return cfg, nil
}

// Caps builds the capability matrix for a remote, per spec section 3's
// CloudCaps, from its cached backend kind.
func (p *RcloneProvider) Caps(ctx context.Context, remote string) Caps {
	cfg, err := p.remoteKind(ctx, remote)
	caseInsensitive := err == nil && cfg.CaseInsensitive
	return Caps{
		List: true, Mkdir: true, Delete: true, Rename: true, Move: true,
		Copy: true, Trash: false, Undo: false, Permissions: false,
		CaseInsensitive: caseInsensitive,
	}
}

type rcEntry struct {
	Name    string    `json:"Name"`
	IsDir   bool      `json:"IsDir"`
	Size    int64     `json:"Size"`
	ModTime time.Time `json:"ModTime"`
}

// Stat implements Provider.
func (p *RcloneProvider) Stat(ctx context.Context, path cloudpath.Path) (Entry, bool, error) {
	resp, err := p.call(ctx, EndpointStat, map[string]any{"fs": path.ToRcloneSpec()})
	if err != nil {
		if browseyerr.CodeOf(err) == browseyerr.NotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var decoded struct {
		Item *rcEntry `json:"item"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return Entry{}, false, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to decode stat result")
	}
	if decoded.Item == nil {
		return Entry{}, false, nil
	}
	return toEntry(path, *decoded.Item, p.Caps(ctx, path.Remote())), true, nil
}

// ListDir implements Provider.
func (p *RcloneProvider) ListDir(ctx context.Context, path cloudpath.Path) ([]Entry, error) {
	resp, err := p.call(ctx, EndpointList, map[string]any{"fs": path.ToRcloneSpec()})
	if err != nil {
		return nil, err
	}
	var decoded struct {
		List []rcEntry `json:"list"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to decode directory listing")
	}
	caps := p.Caps(ctx, path.Remote())
	entries := make([]Entry, 0, len(decoded.List))
	for _, raw := range decoded.List {
		childPath, joinErr := path.Join(raw.Name)
		if joinErr != nil {
			continue
		}
		entries = append(entries, toEntry(childPath, raw, caps))
	}
	return entries, nil
}

func toEntry(path cloudpath.Path, raw rcEntry, caps Caps) Entry {
	kind := KindFile
	if raw.IsDir {
		kind = KindDir
	}
	e := Entry{Name: raw.Name, Path: path, Kind: kind, Capabilities: caps}
	if !raw.IsDir {
		e.Size = raw.Size
		e.HasSize = true
	}
	if !raw.ModTime.IsZero() {
		e.Modified = raw.ModTime
		e.HasModified = true
	}
	return e
}

// Mkdir implements Provider.
func (p *RcloneProvider) Mkdir(ctx context.Context, path cloudpath.Path) error {
	_, err := p.call(ctx, EndpointMkdir, map[string]any{"fs": path.ToRcloneSpec()})
	return err
}

// DeleteFile implements Provider.
func (p *RcloneProvider) DeleteFile(ctx context.Context, path cloudpath.Path) error {
	_, err := p.call(ctx, EndpointDeleteFile, map[string]any{"fs": path.ToRcloneSpec()})
	return err
}

// DeleteDirEmpty implements Provider.
func (p *RcloneProvider) DeleteDirEmpty(ctx context.Context, path cloudpath.Path) error {
	_, err := p.call(ctx, EndpointRmdir, map[string]any{"fs": path.ToRcloneSpec()})
	return err
}

// DeleteDirRecursive implements Provider, running the purge endpoint as an
// async job when job is supplied so cancellation can reach the remote.
func (p *RcloneProvider) DeleteDirRecursive(ctx context.Context, path cloudpath.Path, job JobControl) error {
	return p.runAsyncCapable(ctx, EndpointPurge, map[string]any{"fs": path.ToRcloneSpec()}, job, "delete_dir_recursive")
}

// Move implements Provider.
func (p *RcloneProvider) Move(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, job JobControl) error {
	return p.transferOp(ctx, EndpointMoveFile, src, dst, overwrite, prechecked, job, "move")
}

// Copy implements Provider.
func (p *RcloneProvider) Copy(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, job JobControl) error {
	return p.transferOp(ctx, EndpointCopyFile, src, dst, overwrite, prechecked, job, "copy")
}

func (p *RcloneProvider) transferOp(ctx context.Context, endpoint Endpoint, src, dst cloudpath.Path, overwrite, prechecked bool, job JobControl, operation string) error {
	caseInsensitive := p.Caps(ctx, dst.Remote()).CaseInsensitive
	noop, err := CheckOverwrite(ctx, src, dst, overwrite, prechecked, caseInsensitive, func(ctx context.Context, path cloudpath.Path) (Entry, bool, error) {
		return p.Stat(ctx, path)
	})
	if err != nil || noop {
		return err
	}
	return p.runAsyncCapable(ctx, endpoint, map[string]any{
		"srcFs": src.ToRcloneSpec(),
		"dstFs": dst.ToRcloneSpec(),
	}, job, operation)
}

// runAsyncCapable submits the call; when job is non-nil it requests async
// execution and polls job-status to completion, per spec section 4.9's
// "async job control (used only when a cancel token is supplied)".
func (p *RcloneProvider) runAsyncCapable(ctx context.Context, endpoint Endpoint, args map[string]any, job JobControl, operation string) error {
	if job == nil {
		_, err := p.call(ctx, endpoint, args)
		return err
	}

	asyncArgs := make(map[string]any, len(args)+1)
	for k, v := range args {
		asyncArgs[k] = v
	}
	asyncArgs["_async"] = true

	resp, err := p.call(ctx, endpoint, asyncArgs)
	if err != nil {
		return err
	}
	var decoded struct {
		JobID int64 `json:"jobid"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to decode async job id")
	}
	jobID := strconv.FormatInt(decoded.JobID, 10)

	fetch := func(ctx context.Context, jobID string) (bool, error, error) {
		resp, err := p.call(ctx, EndpointJobStatus, map[string]any{"jobid": jobID})
		if err != nil {
			return false, nil, err
		}
		var status struct {
			Finished bool   `json:"finished"`
			Success  bool   `json:"success"`
			Error    string `json:"error"`
		}
		if err := json.Unmarshal(resp.Body, &status); err != nil {
			return false, nil, err
		}
		if !status.Finished {
			return false, nil, nil
		}
		if !status.Success {
			return true, browseyerr.New(ClassifyError(status.Error, p.mapper), status.Error), nil
		}
		return true, nil, nil
	}
	stop := func(ctx context.Context, jobID string) error {
		_, err := p.call(ctx, EndpointJobStop, map[string]any{"jobid": jobID})
		return err
	}
	return PollAsyncJob(ctx, operation, jobID, fetch, stop, job)
}

// DownloadFile implements Provider by streaming through the CLI transport
// directly: a large file copy is not well suited to the JSON RPC body
// shape the daemon transport uses for metadata calls.
func (p *RcloneProvider) DownloadFile(ctx context.Context, cloudSrc cloudpath.Path, local string) error {
	cmd := exec.CommandContext(ctx, p.binaryPath, "copyto", cloudSrc.ToRcloneSpec(), local)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return browseyerr.New(ClassifyError(stderr.String(), p.mapper), ScrubSensitiveValues(stderr.String()))
	}
	return nil
}

// UploadFileWithProgress implements Provider by streaming through the CLI
// transport and parsing the external binary's one-line stats output for a
// running byte count, the same line-oriented progress-parsing idiom spec
// section 4.5 uses for its own platform copy-helper fallback. A background
// goroutine polls job.Cancelled() so cancellation can kill the child
// mid-transfer rather than only being checked once the process exits.
func (p *RcloneProvider) UploadFileWithProgress(ctx context.Context, local string, cloudDst cloudpath.Path, onProgress func(UploadEvent), job JobControl) error {
	info, statErr := os.Stat(local)
	if statErr != nil {
		return browseyerr.Wrap(browseyerr.NotFound, statErr, "local file not found: "+local)
	}
	total := info.Size()

	cmd := exec.CommandContext(ctx, p.binaryPath, "copyto", local, cloudDst.ToRcloneSpec(), "--stats=200ms", "--stats-one-line")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return browseyerr.Wrap(browseyerr.BinaryMissing, err, "unable to start upload")
	}

	done := make(chan struct{})
	if job != nil {
		go watchUploadCancellation(cmd, job, p.log, done)
		defer close(done)
	}

	parseUploadProgress(stdout, total, onProgress)

	waitErr := cmd.Wait()
	if job != nil && job.Cancelled() {
		return browseyerr.New(browseyerr.Cancelled, "upload cancelled")
	}
	if waitErr != nil {
		return browseyerr.New(ClassifyError(stderr.String(), p.mapper), ScrubSensitiveValues(stderr.String()))
	}
	if onProgress != nil {
		onProgress(UploadEvent{BytesSent: total, TotalBytes: total})
	}
	return nil
}

// watchUploadCancellation kills cmd's process once job reports cancelled,
// checking on the same 120ms cadence as async job polling, per spec
// section 5's "suspension points... between retry attempts".
func watchUploadCancellation(cmd *exec.Cmd, job JobControl, log *logging.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if job.Cancelled() {
				mustdo.Kill(cmd.Process, log)
				return
			}
		}
	}
}

// transferredBytesPattern extracts the cumulative transferred-bytes figure
// from the external binary's one-line stats output, e.g.
// "Transferred: 1.234 MiB / 4 MiB, 30%, 512 KiB/s, ETA 3s".
var transferredBytesPattern = regexp.MustCompile(`Transferred:\s*([0-9.]+)\s*([KMGT]?i?)B`)

var unitMultiplier = map[string]float64{
	"":  1,
	"K": 1 << 10, "Ki": 1 << 10,
	"M": 1 << 20, "Mi": 1 << 20,
	"G": 1 << 30, "Gi": 1 << 30,
	"T": 1 << 40, "Ti": 1 << 40,
}

// parseUploadProgress reads stdout line by line until EOF, invoking
// onProgress with a best-effort parse of each stats line; lines that don't
// match the expected shape are ignored rather than treated as fatal.
func parseUploadProgress(stdout io.Reader, total int64, onProgress func(UploadEvent)) {
	if onProgress == nil {
		io.Copy(io.Discard, stdout)
		return
	}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		match := transferredBytesPattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		mult, ok := unitMultiplier[match[2]]
		if !ok {
			continue
		}
		sent := int64(value * mult)
		if sent > total {
			sent = total
		}
		onProgress(UploadEvent{BytesSent: sent, TotalBytes: total})
	}
}

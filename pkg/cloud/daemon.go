package cloud

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/clock"
	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/browsey/browsey-core/pkg/mustdo"
)

// startupCooldown is the delay after a failed daemon spawn before another
// spawn attempt is allowed, per spec section 4.9 ("30s outside tests").
const startupCooldown = 30 * time.Second

// readinessProbeTimeout bounds the no-op readiness probe after spawning.
const readinessProbeTimeout = 2 * time.Second

// Spawner starts the external binary in daemon mode listening on
// socketPath, returning the running process. It is a seam so tests can
// substitute a fake without actually launching the external binary.
type Spawner func(ctx context.Context, binaryPath, socketPath string) (*exec.Cmd, error)

// Prober performs the no-op readiness probe against an already-running
// daemon's socket, returning an error if the daemon doesn't answer.
type Prober func(ctx context.Context, socketPath string) error

// Daemon manages the control-socket daemon transport's lifecycle per spec
// section 4.9: process-wide state `{daemon_child, socket_path,
// binary_identity, startup_blocked_until, startup_blocked_binary}`,
// ensure-ready with a startup cooldown after a failed spawn, a restart
// when binary_identity changes, and a readiness probe against a no-op
// endpoint. Grounded on the teacher's pkg/daemon lock-guarded singleton
// lifecycle (one daemon instance per user, spawn-if-absent, recycle on
// failure) generalized from mutagen's own agent daemon to the cloud
// backend's daemon.
type Daemon struct {
	mu sync.Mutex

	clock  clock.Clock
	log    *logging.Logger
	spawn  Spawner
	probe  Prober

	child                 *exec.Cmd
	socketPath            string
	binaryIdentity        string
	startupBlockedUntil   time.Time
	startupBlockedBinary  string
}

// NewDaemon creates a Daemon using c for cooldown timing, spawn to launch
// the external binary, and probe to verify readiness.
func NewDaemon(c clock.Clock, log *logging.Logger, spawn Spawner, probe Prober) *Daemon {
	return &Daemon{clock: c, log: log, spawn: spawn, probe: probe}
}

// EnsureReady returns a ready socket path for binaryPath/binaryIdentity,
// spawning or restarting the daemon as needed. It fails fast (without
// attempting a spawn) if a prior spawn of the same binary failed within
// the startup cooldown window.
func (d *Daemon) EnsureReady(ctx context.Context, binaryPath, binaryIdentity string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.binaryIdentity != "" && d.binaryIdentity != binaryIdentity {
		d.killLocked()
	}

	if d.child != nil {
		probeCtx, cancel := context.WithTimeout(ctx, readinessProbeTimeout)
		err := d.probe(probeCtx, d.socketPath)
		cancel()
		if err == nil {
			return d.socketPath, nil
		}
		d.killLocked()
	}

	now := d.clock.Now()
	if d.startupBlockedBinary == binaryIdentity && now.Before(d.startupBlockedUntil) {
		return "", browseyerr.New(browseyerr.BinaryMissing, "backend daemon startup is in cooldown after a recent failed spawn")
	}

	socketPath, err := d.socketPathFor(binaryIdentity)
	if err != nil {
		return "", err
	}

	child, err := d.spawn(ctx, binaryPath, socketPath)
	if err != nil {
		d.startupBlockedUntil = now.Add(startupCooldown)
		d.startupBlockedBinary = binaryIdentity
		return "", browseyerr.Wrap(browseyerr.BinaryMissing, err, "unable to spawn backend daemon")
	}

	probeCtx, cancel := context.WithTimeout(ctx, readinessProbeTimeout)
	probeErr := d.probe(probeCtx, socketPath)
	cancel()
	if probeErr != nil {
		mustdo.Kill(child.Process, d.log)
		d.startupBlockedUntil = now.Add(startupCooldown)
		d.startupBlockedBinary = binaryIdentity
		return "", browseyerr.Wrap(browseyerr.NetworkError, probeErr, "backend daemon failed its readiness probe")
	}

	d.child = child
	d.socketPath = socketPath
	d.binaryIdentity = binaryIdentity
	d.startupBlockedUntil = time.Time{}
	d.startupBlockedBinary = ""
	return socketPath, nil
}

// Recycle kills the current daemon child, per spec section 4.9's "after a
// transport-level failure on any method the current daemon is killed so
// the next call spawns fresh."
func (d *Daemon) Recycle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.killLocked()
}

func (d *Daemon) killLocked() {
	if d.child == nil {
		return
	}
	mustdo.Kill(d.child.Process, d.log)
	d.child = nil
	d.socketPath = ""
	d.binaryIdentity = ""
}

func (d *Daemon) socketPathFor(binaryIdentity string) (string, error) {
	return defaultRuntimeSocketPath(binaryIdentity)
}

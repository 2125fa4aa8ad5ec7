package main

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloud"
	"github.com/browsey/browsey-core/pkg/cloudadmission"
	"github.com/browsey/browsey-core/pkg/cloudcache"
	"github.com/browsey/browsey-core/pkg/cloudpath"
	"github.com/browsey/browsey-core/pkg/clock"
	"github.com/browsey/browsey-core/pkg/core"
	"github.com/browsey/browsey-core/pkg/environment"
	"github.com/browsey/browsey-core/pkg/handle"
	"github.com/browsey/browsey-core/pkg/logging"
	"github.com/browsey/browsey-core/pkg/settings"
	"github.com/browsey/browsey-core/pkg/tasks"
	"github.com/browsey/browsey-core/pkg/trash"
)

var errAbsoluteUndoDirRequired = browseyerr.New(browseyerr.InvalidConfig, "BROWSEY_UNDO_DIR must be an absolute path")

// newService wires a pkg/core.Service rooted at the user's browsey state
// directory (~/.browsey), the same single-process-per-invocation shape a
// CLI needs: construct once per command, do the work, exit. A .env file in
// the working directory is loaded first, per spec section 6's optional
// BROWSEY_* environment configuration.
func newService() (*core.Service, error) {
	if err := environment.LoadDotEnvIfPresent(".env"); err != nil {
		return nil, err
	}

	stateDir, err := browseyUndoDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}

	log := logging.RootLogger
	if environment.ParseTriState("BROWSEY_DEBUG_THUMBS").Resolve(false) {
		log = log.Sublogger("browseyctl")
		log.SetLevel(logging.LevelDebug)
	}

	var backend trash.Backend
	if runtime.GOOS != "windows" {
		home, err := os.UserHomeDir()
		if err == nil {
			if fd, err := trash.NewFreedesktopBackend(home); err == nil {
				backend = fd
			}
		}
	}
	if backend == nil {
		backend = trash.NoopBackend{}
	}

	store, err := newFileKvStore(filepath.Join(stateDir, "settings.json"))
	if err != nil {
		return nil, err
	}

	taskRegistry := tasks.NewRegistry(0)
	cloudProvider, cloudCache, cloudAdmit := newCloudStack(store, taskRegistry, log)

	return core.New(core.Config{
		Log:           log,
		Store:         store,
		Tasks:         taskRegistry,
		TrashJournal:  filepath.Join(stateDir, "trash-journal"),
		TrashBackend:  backend,
		TrashIndexDir: stateDir,
		ThumbnailDir:  filepath.Join(stateDir, "thumbnails"),
		ThumbnailPool: settings.DefaultThumbnailPoolThreads,
		Cloud:         cloudProvider,
		CloudCache:    cloudCache,
		CloudAdmit:    cloudAdmit,
	}), nil
}

// newCloudStack wires the cloud backend only when a backend binary path has
// already been configured via `settings set-rclone-path`; otherwise every
// cloud/mixed-transfer command reports Unsupported, matching
// core.Config's documented nil-Cloud behavior. Read directly off the store
// rather than through *settings.Settings, since constructing Settings
// itself wants the cache this function builds.
func newCloudStack(store handle.KvStore, taskRegistry *tasks.Registry, log *logging.Logger) (cloud.Provider, *cloudcache.Cache, *cloudadmission.Admission) {
	rclonePath, ok := store.Get(string(settings.KeyRclonePath))
	if !ok || rclonePath == "" {
		return nil, nil, nil
	}

	identity, err := binaryIdentity(rclonePath)
	if err != nil {
		log.Warnf("cloud backend disabled: %v", err)
		return nil, nil, nil
	}

	policy := cloud.RCPolicyFromEnvironment()
	provider := cloud.NewRcloneProvider(rclonePath, identity, clock.System{}, log, nil, policy)
	admit := cloudadmission.New(clock.System{}, 0)
	cache := cloudcache.New(clock.System{}, nil, log, taskRegistry,
		func(ctx context.Context, path cloudpath.Path) ([]cloud.Entry, error) {
			return provider.ListDir(ctx, path)
		},
		func(ctx context.Context) ([]string, error) {
			return provider.ListRemotes(ctx)
		},
	)
	return provider, cache, admit
}

// binaryIdentity identifies a backend binary by its resolved path and
// modification time, so replacing the binary on disk forces the daemon
// transport (pkg/cloud.Daemon) to restart rather than keep talking to a
// stale process, per spec section 4.9.
func binaryIdentity(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	return resolved + "@" + info.ModTime().String(), nil
}

// browseyUndoDir is the state directory used for the trash journal, trash
// index, and thumbnail cache: BROWSEY_UNDO_DIR overrides the default
// ~/.browsey, per spec section 6, but only when it is an absolute path —
// a relative override would make undo state location depend on the
// caller's working directory, which spec section 6 rules out.
func browseyUndoDir() (string, error) {
	if override := os.Getenv("BROWSEY_UNDO_DIR"); override != "" {
		if !filepath.IsAbs(override) {
			return "", errAbsoluteUndoDirRequired
		}
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".browsey"), nil
}

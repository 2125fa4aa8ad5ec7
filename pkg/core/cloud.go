package core

import (
	"context"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloud"
	"github.com/browsey/browsey-core/pkg/cloudpath"
)

// ListCloudRemotes lists configured rclone remotes, per spec section 6's
// `list_cloud_remotes(force_refresh?)`. When a cache (C10) is wired it
// serves (and refills) from there; force_refresh bypasses the cached
// answer by invalidating first.
func (s *Service) ListCloudRemotes(ctx context.Context, forceRefresh bool) ([]string, error) {
	if s.cloud == nil {
		return nil, browseyerr.New(browseyerr.Unsupported, "cloud is not configured")
	}
	if s.cache == nil {
		return s.cloud.ListRemotes(ctx)
	}
	if forceRefresh {
		s.cache.InvalidateAll()
	}
	return s.cache.ListRemotes(ctx)
}

// ListCloudDir lists one cloud directory's entries, per spec section 6's
// `list_cloud_dir(cloud_path)`, going through the cache when one is
// wired so repeated listings of the same directory avoid a round trip.
func (s *Service) ListCloudDir(ctx context.Context, rawPath string) ([]cloud.Entry, error) {
	if s.cloud == nil {
		return nil, browseyerr.New(browseyerr.Unsupported, "cloud is not configured")
	}
	path, err := cloudpath.Parse(rawPath)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.cloud.ListDir(ctx, path)
	}
	return s.cache.ListDir(ctx, path)
}

// StatCloudPath stats one cloud path, per spec section 6's
// `stat_cloud_path(cloud_path)`. Stat bypasses the cache: spec section
// 4.10 only names directory listings as cached, and a stat call is
// usually made precisely because the caller doesn't trust a stale
// listing (e.g. right before an overwrite-confirmation prompt).
func (s *Service) StatCloudPath(ctx context.Context, rawPath string) (cloud.Entry, bool, error) {
	if s.cloud == nil {
		return cloud.Entry{}, false, browseyerr.New(browseyerr.Unsupported, "cloud is not configured")
	}
	path, err := cloudpath.Parse(rawPath)
	if err != nil {
		return cloud.Entry{}, false, err
	}
	return s.cloud.Stat(ctx, path)
}

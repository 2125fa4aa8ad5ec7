package core

import (
	"context"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/thumbnail"
)

// GetThumbnail produces or returns the cached thumbnail for path, per spec
// section 6's `get_thumbnail(path, max_dim?, generation?)`.
func (s *Service) GetThumbnail(ctx context.Context, path string, maxDim int, generationTag string) (thumbnail.Response, error) {
	if s.thumbs == nil {
		return thumbnail.Response{}, browseyerr.New(browseyerr.Unsupported, "thumbnails are not configured")
	}
	path, err := guardPath(path, true)
	if err != nil {
		return thumbnail.Response{}, err
	}
	if maxDim == 0 {
		maxDim = thumbnail.MaxDim
	}
	return s.thumbs.Generate(ctx, thumbnail.Request{Path: path, MaxDim: maxDim, GenerationTag: generationTag})
}

// ClearThumbnailCache discards every cached thumbnail, per spec section
// 6's `clear_thumbnail_cache()`.
func (s *Service) ClearThumbnailCache() error {
	if s.thumbs == nil {
		return browseyerr.New(browseyerr.Unsupported, "thumbnails are not configured")
	}
	return s.thumbs.ClearCache()
}

package core

import (
	"context"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloud"
	"github.com/browsey/browsey-core/pkg/transfer"
)

// MixedCopy copies sources into dest across the local/cloud boundary, per
// spec section 6's `mixed_copy(sources, dest, options, progress?)`.
func (s *Service) MixedCopy(ctx context.Context, sources []string, dest string, overwrite bool, progress transfer.ProgressFunc, job cloud.JobControl) ([]transfer.Result, error) {
	return s.runTransfer(ctx, sources, dest, transfer.Copy, overwrite, progress, job)
}

// MixedMove moves sources into dest across the local/cloud boundary, per
// spec section 6's `mixed_move(sources, dest, options, progress?)`. Only
// local-to-cloud is supported for Move; transfer.Run rejects
// cloud-to-local moves itself.
func (s *Service) MixedMove(ctx context.Context, sources []string, dest string, overwrite bool, progress transfer.ProgressFunc, job cloud.JobControl) ([]transfer.Result, error) {
	return s.runTransfer(ctx, sources, dest, transfer.Move, overwrite, progress, job)
}

// CopyTo and MoveTo are the single-source conveniences spec section 6
// names alongside the batch mixed_copy/mixed_move: `copy_to(source, dest)`
// / `move_to(source, dest)`.
func (s *Service) CopyTo(ctx context.Context, source, dest string, progress transfer.ProgressFunc, job cloud.JobControl) (transfer.Result, error) {
	results, err := s.MixedCopy(ctx, []string{source}, dest, false, progress, job)
	return firstTransferResult(results, err)
}

func (s *Service) MoveTo(ctx context.Context, source, dest string, progress transfer.ProgressFunc, job cloud.JobControl) (transfer.Result, error) {
	results, err := s.MixedMove(ctx, []string{source}, dest, false, progress, job)
	return firstTransferResult(results, err)
}

func firstTransferResult(results []transfer.Result, err error) (transfer.Result, error) {
	if err != nil {
		return transfer.Result{}, err
	}
	if len(results) == 0 {
		return transfer.Result{}, browseyerr.New(browseyerr.UnknownError, "transfer produced no result")
	}
	return results[0], results[0].Err
}

func (s *Service) runTransfer(ctx context.Context, sources []string, dest string, mode transfer.Mode, overwrite bool, progress transfer.ProgressFunc, job cloud.JobControl) ([]transfer.Result, error) {
	if s.transfer == nil {
		return nil, browseyerr.New(browseyerr.Unsupported, "cloud transfer is not configured")
	}
	req := transfer.Request{Sources: sources, Destination: dest, Mode: mode, Overwrite: overwrite}
	return s.transfer.Run(ctx, req, progress, job)
}

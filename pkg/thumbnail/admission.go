package thumbnail

import (
	"context"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// MaxAdmissionCapacity caps the decode-admission semaphore regardless of
// pool size, per spec section 4.14's "sized pool_threads*4, clamped to 32."
const MaxAdmissionCapacity = 32

// ImagePermits and the other *Permits constants are the weight each
// decode route consumes from the shared admission semaphore: plain image
// decodes are cheap, while SVG/PDF/video decodes shell out to a heavier
// external renderer and count double.
const (
	ImagePermits = 1
	SVGPermits   = 2
	PDFPermits   = 2
	VideoPermits = 2
)

// PermitsFor returns the admission weight a Format consumes.
func PermitsFor(f Format) int {
	switch f {
	case FormatSVG:
		return SVGPermits
	case FormatPDF:
		return PDFPermits
	case FormatVideo:
		return VideoPermits
	default:
		return ImagePermits
	}
}

// AdmissionCapacity computes the semaphore size for a given worker pool
// size, per spec section 4.14.
func AdmissionCapacity(poolThreads int) int {
	capacity := poolThreads * 4
	if capacity <= 0 {
		capacity = MaxAdmissionCapacity
	}
	if capacity > MaxAdmissionCapacity {
		capacity = MaxAdmissionCapacity
	}
	return capacity
}

// Admission is a weighted counting semaphore gating concurrent decodes.
// Unlike cloudadmission's per-remote semaphores, there is a single shared
// pool here: every decode, regardless of format, competes for the same
// budget.
type Admission struct {
	slots chan struct{}
}

// NewAdmission creates an Admission with room for capacity single-weight
// permits.
func NewAdmission(capacity int) *Admission {
	if capacity <= 0 {
		capacity = MaxAdmissionCapacity
	}
	return &Admission{slots: make(chan struct{}, capacity)}
}

// AdmissionGuard releases the permits acquired for one decode.
type AdmissionGuard struct {
	admission *Admission
	weight    int
}

// Release returns the guard's permits to the pool. Safe to call once;
// calling it more than once double-releases and is a caller bug.
func (g *AdmissionGuard) Release() {
	for i := 0; i < g.weight; i++ {
		<-g.admission.slots
	}
}

// Acquire blocks until weight permits are free or ctx is done. On
// cancellation, any permits already acquired for this call are released
// before returning the error.
func (a *Admission) Acquire(ctx context.Context, weight int) (*AdmissionGuard, error) {
	acquired := 0
	for acquired < weight {
		select {
		case a.slots <- struct{}{}:
			acquired++
		case <-ctx.Done():
			for i := 0; i < acquired; i++ {
				<-a.slots
			}
			return nil, browseyerr.Wrap(browseyerr.Cancelled, ctx.Err(), "cancelled waiting for decode admission")
		}
	}
	return &AdmissionGuard{admission: a, weight: weight}, nil
}

package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequestValidateRejectsOutOfRangeMaxDim(t *testing.T) {
	require.Error(t, Request{Path: "x", MaxDim: 16}.Validate())
	require.Error(t, Request{Path: "x", MaxDim: 1024}.Validate())
	require.NoError(t, Request{Path: "x", MaxDim: 128}.Validate())
}

func TestClassifyFormat(t *testing.T) {
	require.Equal(t, FormatJPEG, ClassifyFormat(".jpg"))
	require.Equal(t, FormatJPEG, ClassifyFormat(".jpeg"))
	require.Equal(t, FormatSVG, ClassifyFormat(".svg"))
	require.Equal(t, FormatPDF, ClassifyFormat(".pdf"))
	require.Equal(t, FormatVideo, ClassifyFormat(".mp4"))
	require.Equal(t, FormatOtherImage, ClassifyFormat(".png"))
	require.Equal(t, FormatOtherImage, ClassifyFormat(".unknownext"))
}

func TestTimeoutForSelectsCombinationClass(t *testing.T) {
	require.Equal(t, TimeoutRegular, TimeoutFor(MountLocal, false))
	require.Equal(t, TimeoutVirtualMount, TimeoutFor(MountVirtual, false))
	require.Equal(t, TimeoutHDR, TimeoutFor(MountLocal, true))
	require.Equal(t, TimeoutCombination, TimeoutFor(MountVirtual, true))
}

func TestCacheKeyStableAndSensitiveToInputs(t *testing.T) {
	a := CacheKey("/a/b.jpg", 1000, 256)
	b := CacheKey("/a/b.jpg", 1000, 256)
	require.Equal(t, a, b)

	require.NotEqual(t, a, CacheKey("/a/b.jpg", 1001, 256))
	require.NotEqual(t, a, CacheKey("/a/b.jpg", 1000, 128))
	require.NotEqual(t, a, CacheKey("/a/c.jpg", 1000, 256))
}

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestReadPNGDimensionsRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.png")
	writeTestPNG(t, path, 64, 32)

	width, height, err := ReadPNGDimensions(path)
	require.NoError(t, err)
	require.Equal(t, 64, width)
	require.Equal(t, 32, height)
}

func TestReadPNGDimensionsRejectsNonPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notpng.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png file at all, padded out"), 0o644))

	_, _, err := ReadPNGDimensions(path)
	require.Error(t, err)
}

func TestAdmissionCapacityClampedTo32(t *testing.T) {
	require.Equal(t, 32, AdmissionCapacity(100))
	require.Equal(t, 16, AdmissionCapacity(4))
	require.Equal(t, MaxAdmissionCapacity, AdmissionCapacity(0))
}

func TestPermitsForWeightsByFormat(t *testing.T) {
	require.Equal(t, ImagePermits, PermitsFor(FormatJPEG))
	require.Equal(t, ImagePermits, PermitsFor(FormatOtherImage))
	require.Equal(t, SVGPermits, PermitsFor(FormatSVG))
	require.Equal(t, PDFPermits, PermitsFor(FormatPDF))
	require.Equal(t, VideoPermits, PermitsFor(FormatVideo))
}

func TestAdmissionAcquireBlocksAtCapacity(t *testing.T) {
	a := NewAdmission(2)
	ctx := context.Background()

	g1, err := a.Acquire(ctx, 2)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		g2, err := a.Acquire(ctx, 1)
		require.NoError(t, err)
		close(acquired)
		g2.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked while first holds all permits")
	case <-time.After(50 * time.Millisecond):
	}

	g1.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never unblocked after release")
	}
}

func TestAdmissionAcquireCancelledLeaksNoPermits(t *testing.T) {
	a := NewAdmission(1)
	ctx := context.Background()

	g, err := a.Acquire(ctx, 1)
	require.NoError(t, err)

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Acquire(cancelCtx, 1)
	require.Error(t, err)

	g.Release()

	g2, err := a.Acquire(context.Background(), 1)
	require.NoError(t, err)
	g2.Release()
}

func TestInflightDedupsConcurrentCallsAndMarksWaiterCached(t *testing.T) {
	ig := newInflight()

	var calls int
	var mu sync.Mutex
	release := make(chan struct{})
	start := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]Response, 2)
	owns := make([]bool, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			resp, own, err := ig.do("key", func() (Response, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				<-release
				return Response{CachedPath: "/c/thumb.png", Width: 10, Height: 10}, nil
			})
			require.NoError(t, err)
			results[idx] = resp
			owns[idx] = own
		}(i)
	}

	close(start)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, calls, "both callers should share a single fn invocation")

	ownerCount, waiterCachedCount := 0, 0
	for i := 0; i < 2; i++ {
		if owns[i] {
			ownerCount++
			require.False(t, results[i].Cached)
		} else {
			waiterCachedCount++
			require.True(t, results[i].Cached)
		}
	}
	require.Equal(t, 1, ownerCount)
	require.Equal(t, 1, waiterCachedCount)
}

func TestInflightSequentialCallsBothRun(t *testing.T) {
	ig := newInflight()
	calls := 0
	for i := 0; i < 2; i++ {
		_, own, err := ig.do("key", func() (Response, error) {
			calls++
			return Response{}, nil
		})
		require.NoError(t, err)
		require.True(t, own)
	}
	require.Equal(t, 2, calls)
}

func TestTrimCacheEvictsOldestUntilUnderBudget(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	for i, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0}, 100), 0o644))
		mtime := now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	err := trimCache(dir, 150, 10, nil)
	require.NoError(t, err)

	remaining, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "c.png", remaining[0].Name())
}

func TestTrimCacheEnforcesFileCountBudget(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	for i, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
		mtime := now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	err := trimCache(dir, MaxMaxBytes, 1, nil)
	require.NoError(t, err)

	remaining, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "c.png", remaining[0].Name())
}

func TestClampMaxBytes(t *testing.T) {
	require.Equal(t, int64(DefaultMaxBytes), ClampMaxBytes(0))
	require.Equal(t, int64(MinMaxBytes), ClampMaxBytes(1))
	require.Equal(t, int64(MaxMaxBytes), ClampMaxBytes(MaxMaxBytes*2))
	require.Equal(t, int64(500*1024*1024), ClampMaxBytes(500*1024*1024))
}

func writeTestJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestPipelineGenerateDecodesJPEGAndCachesResult(t *testing.T) {
	srcDir := t.TempDir()
	cacheDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "photo.jpg")
	writeTestJPEG(t, srcPath, 200, 100)

	p := NewPipeline(cacheDir, 4, 0, 0, nil, nil)
	resp, err := p.Generate(context.Background(), Request{Path: srcPath, MaxDim: 64})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.FileExists(t, resp.CachedPath)
	require.LessOrEqual(t, resp.Width, 64)
	require.LessOrEqual(t, resp.Height, 64)

	resp2, err := p.Generate(context.Background(), Request{Path: srcPath, MaxDim: 64})
	require.NoError(t, err)
	require.True(t, resp2.Cached)
	require.Equal(t, resp.CachedPath, resp2.CachedPath)
}

func TestPipelineGenerateRejectsInvalidMaxDim(t *testing.T) {
	p := NewPipeline(t.TempDir(), 4, 0, 0, nil, nil)
	_, err := p.Generate(context.Background(), Request{Path: "/does/not/matter", MaxDim: 1})
	require.Error(t, err)
}

func TestPipelineGenerateMissingSourceIsNotFound(t *testing.T) {
	p := NewPipeline(t.TempDir(), 4, 0, 0, nil, nil)
	_, err := p.Generate(context.Background(), Request{Path: filepath.Join(t.TempDir(), "missing.jpg"), MaxDim: 64})
	require.Error(t, err)
}

package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloud"
	"github.com/browsey/browsey-core/pkg/cloudpath"
)

type fakeProvider struct {
	statHits    map[string]bool
	uploadCalls []string
	downloaded  []string
	uploadErr   error
	downloadErr error
}

func (f *fakeProvider) ListRemotes(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeProvider) Stat(ctx context.Context, path cloudpath.Path) (cloud.Entry, bool, error) {
	if f.statHits[path.String()] {
		return cloud.Entry{Name: path.String()}, true, nil
	}
	return cloud.Entry{}, false, nil
}

func (f *fakeProvider) ListDir(ctx context.Context, path cloudpath.Path) ([]cloud.Entry, error) {
	return nil, nil
}
func (f *fakeProvider) Mkdir(ctx context.Context, path cloudpath.Path) error { return nil }
func (f *fakeProvider) DeleteFile(ctx context.Context, path cloudpath.Path) error { return nil }
func (f *fakeProvider) DeleteDirRecursive(ctx context.Context, path cloudpath.Path, job cloud.JobControl) error {
	return nil
}
func (f *fakeProvider) DeleteDirEmpty(ctx context.Context, path cloudpath.Path) error { return nil }
func (f *fakeProvider) Move(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, job cloud.JobControl) error {
	return nil
}
func (f *fakeProvider) Copy(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, job cloud.JobControl) error {
	return nil
}

func (f *fakeProvider) DownloadFile(ctx context.Context, source cloudpath.Path, local string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.downloaded = append(f.downloaded, local)
	return os.WriteFile(local, []byte("data"), 0o644)
}

func (f *fakeProvider) UploadFileWithProgress(ctx context.Context, local string, target cloudpath.Path, onProgress func(cloud.UploadEvent), job cloud.JobControl) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploadCalls = append(f.uploadCalls, target.String())
	if onProgress != nil {
		onProgress(cloud.UploadEvent{BytesSent: 4, TotalBytes: 4})
	}
	return nil
}

func TestClassifyLocalToCloud(t *testing.T) {
	route, err := Classify([]string{"/tmp/a.txt"}, "rclone://drive/docs")
	require.NoError(t, err)
	require.Equal(t, LocalToCloud, route)
}

func TestClassifyCloudToLocal(t *testing.T) {
	route, err := Classify([]string{"rclone://drive/a.txt"}, "/tmp/docs")
	require.NoError(t, err)
	require.Equal(t, CloudToLocal, route)
}

func TestClassifyRejectsMixedSources(t *testing.T) {
	_, err := Classify([]string{"/tmp/a.txt", "rclone://drive/b.txt"}, "rclone://drive/docs")
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidInput, browseyerr.CodeOf(err))
}

func TestClassifyRejectsLocalToLocal(t *testing.T) {
	_, err := Classify([]string{"/tmp/a.txt"}, "/tmp/docs")
	require.Error(t, err)
}

func TestClassifyRejectsCloudToCloud(t *testing.T) {
	_, err := Classify([]string{"rclone://drive/a.txt"}, "rclone://s3/docs")
	require.Error(t, err)
}

func TestRunLocalToCloudUploadsEachSourceAndReportsProgress(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.txt")
	fileB := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(fileA, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte("b"), 0o644))

	provider := &fakeProvider{statHits: map[string]bool{}}
	tr := New(provider, nil, nil)

	var progressed []string
	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{fileA, fileB},
		Destination: "rclone://drive/docs",
	}, func(source string, event cloud.UploadEvent) {
		progressed = append(progressed, source)
	}, nil)

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	require.ElementsMatch(t, []string{"rclone://drive/docs/a.txt", "rclone://drive/docs/b.txt"}, provider.uploadCalls)
	require.ElementsMatch(t, []string{fileA, fileB}, progressed)
}

func TestRunLocalToCloudOverwriteCheckBlocksOnExistingDestination(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	provider := &fakeProvider{statHits: map[string]bool{"rclone://drive/docs/a.txt": true}}
	tr := New(provider, nil, nil)

	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{file},
		Destination: "rclone://drive/docs",
	}, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	require.Equal(t, browseyerr.DestinationExists, browseyerr.CodeOf(results[0].Err))
	require.Empty(t, provider.uploadCalls)
}

func TestRunLocalToCloudOverwriteTrueSkipsCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	provider := &fakeProvider{statHits: map[string]bool{"rclone://drive/docs/a.txt": true}}
	tr := New(provider, nil, nil)

	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{file},
		Destination: "rclone://drive/docs",
		Overwrite:   true,
	}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	require.Len(t, provider.uploadCalls, 1)
}

func TestRunLocalToCloudMoveDeletesSourceAfterUpload(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	provider := &fakeProvider{statHits: map[string]bool{}}
	tr := New(provider, nil, nil)

	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{file},
		Destination: "rclone://drive/docs",
		Mode:        Move,
	}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	_, statErr := os.Lstat(file)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunCloudToLocalDownloadsEachSource(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeProvider{}
	tr := New(provider, nil, nil)

	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{"rclone://drive/docs/a.txt"},
		Destination: dir,
	}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	require.Equal(t, filepath.Join(dir, "a.txt"), results[0].Destination)
	_, statErr := os.Lstat(filepath.Join(dir, "a.txt"))
	require.NoError(t, statErr)
}

func TestRunCloudToLocalMoveIsRejected(t *testing.T) {
	provider := &fakeProvider{}
	tr := New(provider, nil, nil)

	_, err := tr.Run(context.Background(), Request{
		Sources:     []string{"rclone://drive/docs/a.txt"},
		Destination: t.TempDir(),
		Mode:        Move,
	}, nil, nil)
	require.Error(t, err)
	require.Equal(t, browseyerr.InvalidInput, browseyerr.CodeOf(err))
}

func TestRunCloudToLocalOverwriteCheckBlocksOnExistingDestination(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	provider := &fakeProvider{}
	tr := New(provider, nil, nil)

	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{"rclone://drive/docs/a.txt"},
		Destination: dir,
	}, nil, nil)
	require.NoError(t, err)
	require.Error(t, results[0].Err)
	require.Equal(t, browseyerr.DestinationExists, browseyerr.CodeOf(results[0].Err))
	require.Empty(t, provider.downloaded)
}

type cancelledJob struct{}

func (cancelledJob) Cancelled() bool { return true }

func TestRunStopsImmediatelyOnCancellation(t *testing.T) {
	provider := &fakeProvider{}
	tr := New(provider, nil, nil)

	results, err := tr.Run(context.Background(), Request{
		Sources:     []string{"rclone://drive/a.txt", "rclone://drive/b.txt"},
		Destination: t.TempDir(),
	}, nil, cancelledJob{})
	require.Error(t, err)
	require.Equal(t, browseyerr.Cancelled, browseyerr.CodeOf(err))
	require.Empty(t, results)
	require.Empty(t, provider.downloaded)
}

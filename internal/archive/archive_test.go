package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	exists  bool
	made    []string
	puts    map[string]string
	putErr  error
	content map[string]string
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) { return f.exists, nil }

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	f.exists = true
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, _ string, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	if f.puts == nil {
		f.puts = map[string]string{}
		f.content = map[string]string{}
	}
	f.puts[object] = filePath
	f.content[object] = opts.ContentType
	return minio.UploadInfo{Key: object}, nil
}

func TestArchiver_Upload(t *testing.T) {
	dir := t.TempDir()
	outcome := filepath.Join(dir, "file_report.csv")
	book := filepath.Join(dir, "review.xlsx")
	require.NoError(t, os.WriteFile(outcome, []byte("file\n"), 0o644))
	require.NoError(t, os.WriteFile(book, []byte("pk"), 0o644))

	store := &fakeStore{}
	a := newArchiver(store, "docs", "/docsort/", nil)

	objs, err := a.Upload(context.Background(), "run-1", []string{outcome, filepath.Join(dir, "missing.csv"), "", book})
	require.NoError(t, err)
	assert.Equal(t, []string{"docsort/run-1/file_report.csv", "docsort/run-1/review.xlsx"}, objs)
	assert.Equal(t, []string{"docs"}, store.made)
	assert.Equal(t, outcome, store.puts["docsort/run-1/file_report.csv"])
	assert.Equal(t, "text/csv", store.content["docsort/run-1/file_report.csv"])
}

func TestArchiver_UploadError(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	store := &fakeStore{exists: true, putErr: errors.New("denied")}
	a := newArchiver(store, "docs", "", nil)
	_, err := a.Upload(context.Background(), "r", []string{p})
	assert.ErrorContains(t, err, "denied")
	assert.Empty(t, store.made)
}

func TestNewArchiver_RequiresEndpoint(t *testing.T) {
	_, err := NewArchiver(Config{}, nil)
	assert.Error(t, err)

	a, err := NewArchiver(Config{Endpoint: "localhost:9000", Bucket: "b", Prefix: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "p/run/x.csv", a.ObjectName("run", "/tmp/x.csv"))
}

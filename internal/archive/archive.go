package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether an endpoint was configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

// objectStore is the subset of the minio client the archiver uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archiver copies run artifacts to an S3-compatible bucket.
type Archiver struct {
	store  objectStore
	bucket string
	prefix string
	logger *slog.Logger
}

func NewArchiver(cfg Config, logger *slog.Logger) (*Archiver, error) {
	if !cfg.Enabled() {
		return nil, errors.New("archive endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newArchiver(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newArchiver(store objectStore, bucket, prefix string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		a.logger.Info("archive.bucket.created", "bucket", a.bucket)
	}
	return nil
}

// ObjectName returns the key for a local file under the run's prefix.
func (a *Archiver) ObjectName(runID, localPath string) string {
	return path.Join(a.prefix, runID, filepath.Base(localPath))
}

// Upload puts every existing file from paths under <prefix>/<runID>/ and returns
// the object names written. Missing files are skipped.
func (a *Archiver) Upload(ctx context.Context, runID string, paths []string) ([]string, error) {
	if err := a.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	var uploaded []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			a.logger.Debug("archive.skip.missing", "path", p)
			continue
		}
		obj := a.ObjectName(runID, p)
		info, err := a.store.FPutObject(ctx, a.bucket, obj, p, minio.PutObjectOptions{
			ContentType: contentType(p),
		})
		if err != nil {
			return uploaded, fmt.Errorf("failed to upload %s: %w", p, err)
		}
		a.logger.Info("archive.uploaded", "bucket", a.bucket, "object", obj, "bytes", info.Size)
		uploaded = append(uploaded, obj)
	}
	return uploaded, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".log":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

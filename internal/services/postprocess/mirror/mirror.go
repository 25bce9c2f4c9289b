// Package mirror copies persisted artifacts to an S3-compatible bucket
package mirror

import (
	"context"
	"path"
	"path/filepath"

	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	"hh4b/internal/platform/objectstore"
	"hh4b/internal/services/postprocess/domain"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
)

// putter is the part of *minio.Client we use
type putter interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3 is a domain.Mirror
type S3 struct {
	client putter
	bucket string
	prefix string
	log    logger.Logger
}

var _ domain.Mirror = (*S3)(nil)

// New returns a mirror writing under <cfg.Prefix>/<templatesTag>/ in cfg.Bucket
func New(client *minio.Client, cfg objectstore.Config, templatesTag string, log logger.Logger) *S3 {
	return newS3(client, cfg, templatesTag, log)
}

func newS3(client putter, cfg objectstore.Config, templatesTag string, log logger.Logger) *S3 {
	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: path.Join(cfg.Prefix, templatesTag),
		log:    logger.Named(log, "mirror"),
	}
}

// Key returns the object key for a local artifact
func (m *S3) Key(ref domain.ArtifactRef) string {
	return path.Join(m.prefix, filepath.Base(ref.Path))
}

// Upload copies one artifact; any failure is a storage error
func (m *S3) Upload(ctx context.Context, ref domain.ArtifactRef) error {
	key := m.Key(ref)
	info, err := m.client.FPutObject(ctx, m.bucket, key, ref.Path, minio.PutObjectOptions{
		ContentType: "application/zstd",
		UserMetadata: map[string]string{
			"year": ref.Year,
			"kind": ref.Kind,
		},
	})
	if err != nil {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeStorage, "mirror %s to s3://%s/%s", ref.Path, m.bucket, key), "mirror")
	}
	m.log.Info().
		Str("year", ref.Year).
		Str("kind", ref.Kind).
		Str("object", "s3://"+m.bucket+"/"+key).
		Str("size", humanize.IBytes(uint64(info.Size))).
		Msg("mirrored artifact")
	return nil
}

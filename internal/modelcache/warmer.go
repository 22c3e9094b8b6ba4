// Package modelcache keeps a local mirror of the model weights so workers boot
// warm instead of pulling multi-gigabyte checkpoints on every cold start. The
// source of truth is an S3-compatible bucket; the mirror lives on the worker's
// cache volume.
package modelcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/TheMindExpansionNetwork/musicmind/internal/config"
)

type Warmer struct {
	api    *s3.S3
	bucket string
	prefix string
	dir    string

	// warm is written once by Warm before the server starts serving and only
	// read afterwards, so it needs no locking.
	warm bool
}

// New builds a Warmer from config. Returns nil when no weights bucket is
// configured; a nil Warmer is valid and reports an unwarmed cache.
func New(cfg *config.Config) *Warmer {
	if cfg.Weights.Bucket == "" {
		return nil
	}

	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.Weights.KeyID, cfg.Weights.AppKey, ""),
		Endpoint:         aws.String(cfg.Weights.Endpoint),
		Region:           aws.String(cfg.Weights.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess := session.Must(session.NewSession(s3Config))

	return &Warmer{
		api:    s3.New(sess),
		bucket: cfg.Weights.Bucket,
		prefix: cfg.Weights.Prefix,
		dir:    cfg.Weights.CacheDir,
	}
}

// Cached reports whether the local mirror matched the bucket the last time
// Warm ran.
func (w *Warmer) Cached() bool {
	return w != nil && w.warm
}

// Warm mirrors the weight objects into the cache dir, skipping files that are
// already present with the right size. Returns the number of objects fetched.
func (w *Warmer) Warm(ctx context.Context) (int, error) {
	if w == nil {
		return 0, nil
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return 0, fmt.Errorf("create cache dir: %w", err)
	}

	type object struct {
		key  string
		size int64
	}
	var objects []object

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(w.bucket),
		Prefix: aws.String(w.prefix),
	}
	err := w.api.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, item := range page.Contents {
			key := aws.StringValue(item.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, object{key: key, size: aws.Int64Value(item.Size)})
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("list weights: %w", err)
	}

	fetched := 0
	for _, obj := range objects {
		local, err := localPath(w.dir, w.prefix, obj.key)
		if err != nil {
			return fetched, err
		}
		if upToDate(local, obj.size) {
			continue
		}

		slog.Info("fetching model weight", "key", obj.key, "bytes", obj.size)
		if err := w.fetch(ctx, obj.key, local); err != nil {
			return fetched, fmt.Errorf("fetch %s: %w", obj.key, err)
		}
		fetched++
	}

	w.warm = true
	return fetched, nil
}

func (w *Warmer) fetch(ctx context.Context, key, local string) error {
	out, err := w.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return err
	}

	// Download to a sibling temp file so a crash never leaves a truncated
	// weight file that passes the size check on the next boot.
	tmp := local + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, local)
}

// localPath maps an object key to a path under dir, rejecting keys that would
// escape it.
func localPath(dir, prefix, key string) (string, error) {
	rel := strings.TrimPrefix(key, prefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", fmt.Errorf("weight key %q resolves to empty path", key)
	}

	full := filepath.Join(dir, filepath.FromSlash(rel))
	cleanDir := filepath.Clean(dir) + string(filepath.Separator)
	if !strings.HasPrefix(full, cleanDir) {
		return "", fmt.Errorf("weight key %q escapes cache dir", key)
	}
	return full, nil
}

func upToDate(path string, size int64) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() == size
}

/*
	Package blob registers a storage engine keeping graph snapshots as objects in a
	gocloud bucket.

	The store's URL selects the provider: "mem://" for an in-process bucket,
	"file:///abs/dir" for a local directory and "gs://bucket" for Google Cloud
	Storage using default credentials.  A Path without a URL opens a local
	directory, creating it if needed.
*/
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blang/semver"
	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/storage"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
	"gocloud.dev/gcp"
)

func init() {
	storage.RegisterEngine(Engine{"blob", "gocloud blob bucket", semver.MustParse("0.1.0")})
}

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore opens the bucket given by the config's URL or Path.  A bucket is
// reported as created if it holds no snapshots.
func (e Engine) NewStore(config storage.Config) (storage.Store, bool, error) {
	ctx := context.Background()
	ref := config.URL
	if ref == "" && config.InMemory {
		ref = "mem://"
	}
	bucket, err := openBucket(ctx, ref, config.Path)
	if err != nil {
		return nil, false, err
	}
	if config.Prefix != "" {
		bucket = blob.PrefixedBucket(bucket, config.Prefix)
	}
	if ref == "" {
		ref = "file://" + config.Path
	}
	s := &Store{ref: ref, bucket: bucket}
	ids, err := s.ListSnapshots(ctx)
	if err != nil {
		bucket.Close()
		return nil, false, err
	}
	return s, len(ids) == 0, nil
}

// openBucket returns a bucket for ref, or for a local directory if ref is empty.
func openBucket(ctx context.Context, ref, path string) (*blob.Bucket, error) {
	switch {
	case ref == "" && path == "":
		return nil, fmt.Errorf("blob store needs a url or a path")
	case ref == "":
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
		}
		return fileblob.OpenBucket(path, nil)
	case strings.HasPrefix(ref, "gs://"):
		// Default to Google Store authentication.
		// See https://cloud.google.com/docs/authentication/production
		creds, err := gcp.DefaultCredentials(ctx)
		if err != nil {
			return nil, err
		}
		client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
		if err != nil {
			return nil, err
		}
		name := strings.SplitN(strings.TrimPrefix(ref, "gs://"), "/", 2)[0]
		return gcsblob.OpenBucket(ctx, client, name, nil)
	default:
		bucket, err := blob.OpenBucket(ctx, ref)
		if err != nil {
			agstore.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
			return nil, err
		}
		return bucket, nil
	}
}

// Store is a storage.Store over a bucket.
type Store struct {
	ref    string
	bucket *blob.Bucket
}

func (s *Store) String() string {
	return "blob @ " + s.ref
}

func (s *Store) PutSnapshot(ctx context.Context, graphID string, data []byte) error {
	opts := &blob.WriterOptions{ContentType: "application/octet-stream"}
	if err := s.bucket.WriteAll(ctx, storage.SnapshotKey("", graphID), data, opts); err != nil {
		return fmt.Errorf("putting snapshot of graph %s: %w", graphID, err)
	}
	agstore.Debugf("Put %s snapshot of graph %s in %s\n", humanize.Bytes(uint64(len(data))), graphID, s)
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, graphID string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, storage.SnapshotKey("", graphID))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("graph %s in %s: %w", graphID, s, agstore.ErrNotFound)
	}
	return data, err
}

func (s *Store) ListSnapshots(ctx context.Context) ([]string, error) {
	var ids []string
	it := s.bucket.List(&blob.ListOptions{Prefix: storage.SnapshotPrefix("")})
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		if id, ok := storage.GraphIDFromKey("", obj.Key); ok {
			ids = append(ids, id)
		}
	}
}

func (s *Store) DeleteSnapshot(ctx context.Context, graphID string) error {
	err := s.bucket.Delete(ctx, storage.SnapshotKey("", graphID))
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

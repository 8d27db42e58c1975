package kv_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/handball/internal/adapters/kv"
)

// fakeS3 keeps objects in a map keyed by bucket/key.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func backends(t *testing.T) map[string]kv.Store {
	t.Helper()
	dir := t.TempDir()
	fsStore, err := kv.NewFS(filepath.Join(dir, "fs"))
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	sqliteStore, err := kv.NewSQLite(context.Background(), filepath.Join(dir, "db", "kv.sqlite"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })
	return map[string]kv.Store{
		"memory": kv.NewMemory(),
		"fs":     fsStore,
		"sqlite": sqliteStore,
		"s3":     kv.NewS3WithClient(newFakeS3(), "bucket", "handball/"),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		Convey("Given the "+name+" store", t, func() {
			Convey("When a missing key is read", func() {
				v, ok, err := store.Get(ctx, "absent-"+name)

				Convey("Then it is a soft miss", func() {
					So(err, ShouldBeNil)
					So(ok, ShouldBeFalse)
					So(v, ShouldBeNil)
				})
			})

			Convey("When a key is set and read back", func() {
				So(store.Set(ctx, "handball-files-index", []byte(`[{"id":"a"}]`)), ShouldBeNil)
				v, ok, err := store.Get(ctx, "handball-files-index")

				Convey("Then the same bytes come back", func() {
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					So(string(v), ShouldEqual, `[{"id":"a"}]`)
				})

				Convey("And a second set replaces the value", func() {
					So(store.Set(ctx, "handball-files-index", []byte(`[]`)), ShouldBeNil)
					v, _, err := store.Get(ctx, "handball-files-index")
					So(err, ShouldBeNil)
					So(string(v), ShouldEqual, `[]`)
				})

				Convey("And remove deletes it, twice without error", func() {
					So(store.Remove(ctx, "handball-files-index"), ShouldBeNil)
					So(store.Remove(ctx, "handball-files-index"), ShouldBeNil)
					_, ok, err := store.Get(ctx, "handball-files-index")
					So(err, ShouldBeNil)
					So(ok, ShouldBeFalse)
				})
			})

			Convey("When an empty value is stored", func() {
				So(store.Set(ctx, "empty", nil), ShouldBeNil)
				v, ok, err := store.Get(ctx, "empty")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldBeEmpty)
			})

			Convey("When the key is empty", func() {
				So(errors.Is(store.Set(ctx, "", []byte("x")), kv.ErrEmptyKey), ShouldBeTrue)
				_, _, err := store.Get(ctx, "")
				So(errors.Is(err, kv.ErrEmptyKey), ShouldBeTrue)
			})

			Convey("When the context is cancelled", func() {
				cctx, cancel := context.WithCancel(ctx)
				cancel()
				So(errors.Is(store.Set(cctx, "k", []byte("x")), context.Canceled), ShouldBeTrue)
			})
		})
	}
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		m := kv.NewMemory()
		ctx := context.Background()

		Convey("When a returned value is modified", func() {
			So(m.Set(ctx, "k", []byte("abc")), ShouldBeNil)
			v, _, _ := m.Get(ctx, "k")
			v[0] = 'x'

			Convey("Then the stored value is unchanged", func() {
				again, _, _ := m.Get(ctx, "k")
				So(string(again), ShouldEqual, "abc")
				So(m.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the store is closed", func() {
			So(m.Close(), ShouldBeNil)
			So(errors.Is(m.Set(ctx, "k", nil), kv.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestFSStore(t *testing.T) {
	Convey("Given a filesystem store", t, func() {
		s, err := kv.NewFS(t.TempDir())
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When keys contain path separators", func() {
			So(s.Set(ctx, "a/../b", []byte("v")), ShouldBeNil)
			v, ok, err := s.Get(ctx, "a/../b")

			Convey("Then they stay inside the root", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, "v")
				matches, _ := filepath.Glob(filepath.Join(s.Root(), "*"))
				So(matches, ShouldHaveLength, 1)
			})
		})

		Convey("When the key is a dot path", func() {
			So(errors.Is(s.Set(ctx, "..", []byte("v")), kv.ErrInvalidKey), ShouldBeTrue)
		})

		Convey("When no root is given", func() {
			_, err := kv.NewFS(" ")
			So(errors.Is(err, kv.ErrMissingConfig), ShouldBeTrue)
		})
	})
}

func TestSQLitePersistence(t *testing.T) {
	Convey("Given a sqlite file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "kv.sqlite")
		s, err := kv.NewSQLite(ctx, path)
		So(err, ShouldBeNil)
		So(s.Set(ctx, "handball-file-1", []byte(`[]`)), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When it is reopened", func() {
			again, err := kv.NewSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer func() { _ = again.Close() }()
			v, ok, err := again.Get(ctx, "handball-file-1")

			Convey("Then earlier writes are still there", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, `[]`)
				So(again.Path(), ShouldEqual, path)
				So(again.Driver(), ShouldEqual, kv.DriverSQLite)
			})
		})
	})
}

func TestS3Prefix(t *testing.T) {
	Convey("Given an S3 store with a key prefix", t, func() {
		fake := newFakeS3()
		s := kv.NewS3WithClient(fake, "bucket", "teams/")
		So(s.Set(context.Background(), "handball-files-index", []byte("[]")), ShouldBeNil)

		Convey("Then objects are written under the prefix", func() {
			_, ok := fake.objects["bucket/teams/handball-files-index"]
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given an S3 config without a bucket", t, func() {
		_, err := kv.NewS3(context.Background(), kv.S3Config{})
		So(errors.Is(err, kv.ErrMissingConfig), ShouldBeTrue)
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store configurations", t, func() {
		ctx := context.Background()

		Convey("When the driver is empty", func() {
			s, err := kv.Open(ctx, kv.Config{})
			So(err, ShouldBeNil)
			So(s.Driver(), ShouldEqual, kv.DriverMemory)
		})

		Convey("When the driver is fs", func() {
			s, err := kv.Open(ctx, kv.Config{Driver: "FS", Path: t.TempDir()})
			So(err, ShouldBeNil)
			So(s.Driver(), ShouldEqual, kv.DriverFS)
			So(s.Set(ctx, "k", []byte("v")), ShouldBeNil)
		})

		Convey("When the driver is sqlite", func() {
			s, err := kv.Open(ctx, kv.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
			So(err, ShouldBeNil)
			defer func() { _ = s.Close() }()
			So(s.Driver(), ShouldEqual, kv.DriverSQLite)
		})

		Convey("When sqlite has no path", func() {
			_, err := kv.Open(ctx, kv.Config{Driver: "sqlite"})
			So(errors.Is(err, kv.ErrMissingConfig), ShouldBeTrue)
		})

		Convey("When the driver is unknown", func() {
			_, err := kv.Open(ctx, kv.Config{Driver: "redis"})
			So(errors.Is(err, kv.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

package store

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

func trio(t *testing.T) *pedigree.Pedigree {
	t.Helper()
	p := pedigree.New()
	if _, err := p.AddProband(pedigree.Person{Name: "Ann", Gender: pedigree.Female}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddParents("III-1", pedigree.Person{Name: "Bob"}, pedigree.Person{Name: "Cat"}, pedigree.Married); err != nil {
		t.Fatal(err)
	}
	return p
}

// exercise runs the behaviour every backend must share.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete(missing) code = %q, want %q", errors.GetCode(err), errors.ErrCodeNotFound)
	}

	p := trio(t)
	if err := Save(ctx, s, "b-doc", p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Put(ctx, "a-doc", []byte(`{"individuals":[],"probandId":null,"inheritancePattern":"autosomal-recessive","carrierFrequency":0.02}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := Load(ctx, s, "b-doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("Load().Len() = %d, want 3", got.Len())
	}
	if got.ProbandID() != "III-1" {
		t.Errorf("ProbandID = %q, want III-1", got.ProbandID())
	}

	// Overwrite.
	if _, err := p.AddSibling("III-1", pedigree.Person{Name: "Dan"}, pedigree.NotAdopted); err != nil {
		t.Fatal(err)
	}
	if err := Save(ctx, s, "b-doc", p); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = Load(ctx, s, "b-doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 4 {
		t.Errorf("Load().Len() after overwrite = %d, want 4", got.Len())
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, info := range infos {
		ids = append(ids, info.ID)
		if info.Size <= 0 {
			t.Errorf("List[%s].Size = %d, want > 0", info.ID, info.Size)
		}
	}
	if strings.Join(ids, ",") != "a-doc,b-doc" {
		t.Errorf("List IDs = %v, want [a-doc b-doc]", ids)
	}

	if err := s.Delete(ctx, "a-doc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a-doc"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "docs"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", ".x.tmp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	infos, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("List() = %v, want empty", infos)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "pedigree.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exercise(t, s)
}

func TestS3Store(t *testing.T) {
	exercise(t, NewS3Store(newFakeS3(), "bucket", "pedigrees"))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PEDIGREE_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("PEDIGREE_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PEDIGREE_TEST_MONGO")
	if uri == "" {
		t.Skip("PEDIGREE_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, MongoConfig{URI: uri, Collection: "test_" + NewID()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer s.coll.Drop(ctx)
	exercise(t, s)
}

func TestLoadRejectsBadID(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "../etc", "a/b"} {
		if _, err := Load(context.Background(), s, id); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Load(%q) code = %q, want %q", id, errors.GetCode(err), errors.ErrCodeInvalidInput)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if s.Backend() != BackendFile {
		t.Errorf("Open(default).Backend() = %q, want %q", s.Backend(), BackendFile)
	}

	s, err = Open(ctx, Config{Backend: BackendSQLite, DSN: filepath.Join(dir, "p.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Backend() != BackendSQLite {
		t.Errorf("Open(sqlite).Backend() = %q, want %q", s.Backend(), BackendSQLite)
	}

	if _, err := Open(ctx, Config{Backend: "floppy"}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Open(floppy) code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}
	if _, err := Open(ctx, Config{Backend: BackendS3}); !errors.Is(err, errors.ErrCodeStore) {
		t.Errorf("Open(s3 without bucket) code = %q, want %q", errors.GetCode(err), errors.ErrCodeStore)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Errorf("NewID() returned %q twice", a)
	}
	if err := errors.ValidateDocumentID(a); err != nil {
		t.Errorf("ValidateDocumentID(NewID()) = %v", err)
	}
}

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	pageLen int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, pageLen: 1}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

// ListObjectsV2 pages pageLen keys at a time so pagination is exercised.
func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := min(start+f.pageLen, len(keys))
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(time.Unix(0, 0)),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

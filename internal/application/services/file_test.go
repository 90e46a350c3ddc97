package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "file-sharing-api/internal/domain/file"
	"file-sharing-api/internal/infrastructure/mq"
	"file-sharing-api/internal/infrastructure/urlsign"
)

type FakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr error
	delErr error

	putCalls []string
	delCalls []string
}

func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{objects: make(map[string][]byte)}
}

func (f *FakeBlobStore) Put(key string, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls = append(f.putCalls, key)
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *FakeBlobStore) Get(key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *FakeBlobStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delCalls = append(f.delCalls, key)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

type FakeRepository struct {
	FetchFilesFunc       func(ctx context.Context) (domain.Records, error)
	CreateFileFunc       func(ctx context.Context, req *domain.Record) (*domain.Record, error)
	DeleteFileByUUIDFunc func(ctx context.Context, id uuid.UUID) error

	createCalls int
	deleteCalls int
}

func (f *FakeRepository) FetchFiles(ctx context.Context) (domain.Records, error) {
	if f.FetchFilesFunc == nil {
		return nil, errors.New("not used")
	}
	return f.FetchFilesFunc(ctx)
}

func (f *FakeRepository) CreateFile(ctx context.Context, req *domain.Record) (*domain.Record, error) {
	f.createCalls++
	if f.CreateFileFunc == nil {
		return nil, errors.New("not used")
	}
	return f.CreateFileFunc(ctx, req)
}

func (f *FakeRepository) DeleteFileByUUID(ctx context.Context, id uuid.UUID) error {
	f.deleteCalls++
	if f.DeleteFileByUUIDFunc == nil {
		return errors.New("not used")
	}
	return f.DeleteFileByUUIDFunc(ctx, id)
}

type FakeBus struct{ in chan mq.Event }

func NewFakeBus() *FakeBus { return &FakeBus{in: make(chan mq.Event, 16)} }

func (f *FakeBus) Connect(ctx context.Context, dsn string) error { return nil }
func (f *FakeBus) Init() error                                   { return nil }
func (f *FakeBus) PublisherWorker(ctx context.Context)           {}
func (f *FakeBus) GetInputChan() chan mq.Event                   { return f.in }
func (f *FakeBus) GetConn() *amqp091.Connection                  { return nil }

func makeFileHeader(t *testing.T, name, mimeType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, name))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&b, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	fhs := form.File["files"]
	require.Len(t, fhs, 1)
	return fhs[0]
}

func newTestService(t *testing.T, blob *FakeBlobStore, repo *FakeRepository) (*FileService, *FakeBus, *prometheus.CounterVec) {
	t.Helper()

	bus := NewFakeBus()
	mCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_counters"},
		[]string{"result"},
	)
	issuer := NewLinkIssuer(urlsign.New("test-secret"), "http://localhost:8080", "/api/v1/files/shared")

	svc := NewFileService(blob, repo, issuer, bus, zap.NewNop(), mCounter).(*FileService)
	return svc, bus, mCounter
}

func TestCreateFile_Success(t *testing.T) {
	blob := NewFakeBlobStore()
	repo := &FakeRepository{
		CreateFileFunc: func(ctx context.Context, req *domain.Record) (*domain.Record, error) {
			out := *req
			out.UUID = uuid.New()
			out.CreatedAt = time.Now()
			return &out, nil
		},
	}
	svc, bus, _ := newTestService(t, blob, repo)

	content := []byte("hello world")
	fh := makeFileHeader(t, "Report Final.PDF", "application/pdf", content)

	rec, err := svc.CreateFile(context.Background(), fh)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "Report Final.PDF", rec.Name)
	assert.Equal(t, "application/pdf", rec.MimeType)
	assert.Equal(t, uint64(len(content)), rec.SizeBytes)
	assert.True(t, strings.HasPrefix(rec.StoragePath, "files/"))

	// blob written before the record, with the original bytes
	require.Len(t, blob.putCalls, 1)
	assert.Equal(t, rec.StoragePath, blob.putCalls[0])
	assert.Equal(t, content, blob.objects[rec.StoragePath])
	assert.Empty(t, blob.delCalls)

	// committed insert publishes exactly one inserted event
	select {
	case e := <-bus.GetInputChan():
		assert.Equal(t, mq.KindInserted, e.Kind)
		assert.Equal(t, rec.UUID, e.FileID)
	default:
		t.Fatal("expected an inserted event on the bus")
	}
}

func TestCreateFile_PutFails_NoRecordCreated(t *testing.T) {
	blob := NewFakeBlobStore()
	blob.putErr = fmt.Errorf("%w: disk full", domain.ErrStorageWrite)
	repo := &FakeRepository{}
	svc, bus, _ := newTestService(t, blob, repo)

	fh := makeFileHeader(t, "doc.txt", "text/plain", []byte("abc"))

	_, err := svc.CreateFile(context.Background(), fh)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageWrite)

	// write failed first, so no metadata call and no cleanup
	assert.Zero(t, repo.createCalls)
	assert.Empty(t, blob.delCalls)
	assert.Empty(t, bus.GetInputChan())
}

func TestCreateFile_InsertFails_OneCleanupAttempt(t *testing.T) {
	blob := NewFakeBlobStore()
	repo := &FakeRepository{
		CreateFileFunc: func(ctx context.Context, req *domain.Record) (*domain.Record, error) {
			return nil, fmt.Errorf("%w: tx aborted", domain.ErrMetadata)
		},
	}
	svc, bus, _ := newTestService(t, blob, repo)

	fh := makeFileHeader(t, "doc.txt", "text/plain", []byte("abc"))

	_, err := svc.CreateFile(context.Background(), fh)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMetadata)

	// exactly one cleanup delete of the orphaned blob
	require.Len(t, blob.putCalls, 1)
	require.Len(t, blob.delCalls, 1)
	assert.Equal(t, blob.putCalls[0], blob.delCalls[0])
	assert.Empty(t, blob.objects)
	assert.Empty(t, bus.GetInputChan())
}

func TestCreateFile_InsertAndCleanupFail_OrphanStays(t *testing.T) {
	blob := NewFakeBlobStore()
	blob.delErr = fmt.Errorf("%w: transport down", domain.ErrStorageDelete)
	repo := &FakeRepository{
		CreateFileFunc: func(ctx context.Context, req *domain.Record) (*domain.Record, error) {
			return nil, fmt.Errorf("%w: tx aborted", domain.ErrMetadata)
		},
	}
	svc, bus, mCounter := newTestService(t, blob, repo)

	fh := makeFileHeader(t, "doc.txt", "text/plain", []byte("abc"))

	_, err := svc.CreateFile(context.Background(), fh)
	require.Error(t, err)
	// the insert failure is surfaced, not the cleanup failure
	assert.ErrorIs(t, err, domain.ErrMetadata)

	require.Len(t, blob.delCalls, 1)
	assert.Len(t, blob.objects, 1, "orphan blob is left in place")
	assert.Empty(t, bus.GetInputChan())
	assert.Equal(t, float64(1),
		testutil.ToFloat64(mCounter.WithLabelValues("upload_cleanup_failed_total")))
}

func TestDeleteFile_BlobDeleteFails_RecordKept(t *testing.T) {
	blob := NewFakeBlobStore()
	blob.delErr = fmt.Errorf("%w: transport down", domain.ErrStorageDelete)
	repo := &FakeRepository{}
	svc, bus, _ := newTestService(t, blob, repo)

	err := svc.DeleteFile(context.Background(), uuid.New(), "files/1-abc-doc.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageDelete)

	// record deletion never starts before the blob is confirmed gone
	assert.Zero(t, repo.deleteCalls)
	assert.Empty(t, bus.GetInputChan())
}

func TestDeleteFile_Success_EmitsDeletedEvent(t *testing.T) {
	blob := NewFakeBlobStore()
	repo := &FakeRepository{
		DeleteFileByUUIDFunc: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	svc, bus, _ := newTestService(t, blob, repo)

	id := uuid.New()
	require.NoError(t, svc.DeleteFile(context.Background(), id, "files/1-abc-doc.txt"))

	require.Len(t, blob.delCalls, 1)
	assert.Equal(t, 1, repo.deleteCalls)

	select {
	case e := <-bus.GetInputChan():
		assert.Equal(t, mq.KindDeleted, e.Kind)
		assert.Equal(t, id, e.FileID)
	default:
		t.Fatal("expected a deleted event on the bus")
	}
}

func TestDeleteFile_UnknownID_NotFound(t *testing.T) {
	blob := NewFakeBlobStore()
	repo := &FakeRepository{
		DeleteFileByUUIDFunc: func(ctx context.Context, id uuid.UUID) error {
			return fmt.Errorf("%w: %s", domain.ErrMetadataNotFound, id)
		},
	}
	svc, bus, _ := newTestService(t, blob, repo)

	err := svc.DeleteFile(context.Background(), uuid.New(), "files/1-abc-doc.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMetadataNotFound)
	assert.Empty(t, bus.GetInputChan())
}

func TestOpenSharedLink(t *testing.T) {
	blob := NewFakeBlobStore()
	blob.objects["files/1-abc-doc.txt"] = []byte("shared bytes")
	svc, _, _ := newTestService(t, blob, &FakeRepository{})
	signer := urlsign.New("test-secret")

	tests := []struct {
		name      string
		token     func(t *testing.T) string
		wantErr   error
		wantBytes []byte
	}{
		{
			name: "valid token streams the blob",
			token: func(t *testing.T) string {
				tok, err := signer.SignPath("files/1-abc-doc.txt", time.Hour)
				require.NoError(t, err)
				return tok
			},
			wantBytes: []byte("shared bytes"),
		},
		{
			name: "expired token is access denied",
			token: func(t *testing.T) string {
				tok, err := signer.SignPath("files/1-abc-doc.txt", -time.Minute)
				require.NoError(t, err)
				return tok
			},
			wantErr: domain.ErrLinkExpired,
		},
		{
			name: "token signed with another secret is access denied",
			token: func(t *testing.T) string {
				tok, err := urlsign.New("other-secret").SignPath("files/1-abc-doc.txt", time.Hour)
				require.NoError(t, err)
				return tok
			},
			wantErr: domain.ErrLinkExpired,
		},
		{
			name: "valid token to a deleted blob is not found",
			token: func(t *testing.T) string {
				tok, err := signer.SignPath("files/999-gone.txt", time.Hour)
				require.NoError(t, err)
				return tok
			},
			wantErr: domain.ErrBlobNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rc, err := svc.OpenSharedLink(tt.token(t))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer rc.Close()
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBytes, b)
		})
	}
}

func TestGenStorageKey_SameTimestampDistinctKeys(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	k1 := genStorageKey(now, "photo.jpg")
	k2 := genStorageKey(now, "photo.jpg")

	prefix := fmt.Sprintf("files/%d-", now.UnixMilli())
	assert.True(t, strings.HasPrefix(k1, prefix))
	assert.True(t, strings.HasPrefix(k2, prefix))
	assert.NotEqual(t, k1, k2, "identical timestamp and name must still disambiguate")
	assert.True(t, strings.HasSuffix(k1, "-photo.jpg"))
}

func TestSanitizeFileName_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"uppercase and spaces", "My Report Final.PDF", "my-report-final.pdf"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"windows path stripped", `C:\temp\notes.txt`, "notes.txt"},
		{"diacritics folded", "résumé.txt", "resume.txt"},
		{"empty", "", "file"},
		{"dot only", ".", "file"},
		{"weird ext dropped", "archive.t@r", "archive"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFileName(tt.in))
		})
	}
}

package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"file-sharing-api/internal/application/ports"
	domain "file-sharing-api/internal/domain/file"
	"file-sharing-api/internal/infrastructure/mq"
)

const maxBaseNameLen = 100

var extSafeRe = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// FileService coordinates every operation that touches both backends.
// Operation order is fixed: an upload writes the blob before the
// record, a delete removes the blob before the record. A record is
// never committed ahead of its blob, so a listed file either downloads
// or was already deleted.
type FileService struct {
	blob           ports.BlobStore
	fileRepository domain.Repository
	issuer         *LinkIssuer
	mq             ports.RabbitMQ
	logger         *zap.Logger
	mCounter       *prometheus.CounterVec
}

func NewFileService(
	blob ports.BlobStore,
	fileRepository domain.Repository,
	issuer *LinkIssuer,
	rbMQ ports.RabbitMQ,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.FileService {
	return &FileService{
		blob:           blob,
		fileRepository: fileRepository,
		issuer:         issuer,
		mq:             rbMQ,
		logger:         logger,
		mCounter:       mCounter,
	}
}

func (fs *FileService) FindFiles(ctx context.Context) (domain.Records, error) {
	fls, err := fs.fileRepository.FetchFiles(ctx)
	if err != nil {
		return nil, err
	}

	return fls, nil
}

// CreateFile is one logical transaction with no rollback support
// beyond a single best-effort cleanup: blob write, then record
// insert. A failed write leaves no partial state; a failed insert
// leaves an orphan blob that one Delete attempt tries to reclaim.
func (fs *FileService) CreateFile(
	ctx context.Context,
	in *multipart.FileHeader,
) (*domain.Record, error) {
	rec := fillMetaData(in)
	rec.StoragePath = genStorageKey(time.Now().UTC(), rec.Name)

	f, err := in.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", rec.Name, err)
	}
	defer f.Close()

	if err = fs.blob.Put(rec.StoragePath, f); err != nil {
		return nil, err
	}

	out, err := fs.fileRepository.CreateFile(ctx, rec)
	if err != nil {
		// exactly one cleanup attempt; on failure the orphan stays
		// and only the insert error is surfaced
		if cErr := fs.blob.Delete(rec.StoragePath); cErr != nil {
			fs.logger.Error("orphan blob cleanup failed",
				zap.String("storage_path", rec.StoragePath),
				zap.Error(cErr),
			)
			fs.mCounter.WithLabelValues("upload_cleanup_failed_total").Inc()
		}
		return nil, err
	}

	fs.mq.GetInputChan() <- mq.Event{
		Id:     uuid.New(),
		TS:     time.Now(),
		Kind:   mq.KindInserted,
		FileID: out.UUID,
	}

	fs.mCounter.WithLabelValues("files_uploaded_total").Inc()

	return out, nil
}

// DeleteFile removes the blob first. Deleting the record before its
// blob would leave a dangling reference that later downloads hit as a
// confusing NotFound, so a blob failure aborts with the record kept.
func (fs *FileService) DeleteFile(
	ctx context.Context,
	id uuid.UUID,
	storagePath string,
) error {
	if err := fs.blob.Delete(storagePath); err != nil {
		return err
	}

	if err := fs.fileRepository.DeleteFileByUUID(ctx, id); err != nil {
		return err
	}

	fs.mq.GetInputChan() <- mq.Event{
		Id:     uuid.New(),
		TS:     time.Now(),
		Kind:   mq.KindDeleted,
		FileID: id,
	}

	fs.mCounter.WithLabelValues("files_deleted_total").Inc()

	return nil
}

func (fs *FileService) DownloadFile(storagePath string) (io.ReadCloser, error) {
	return fs.blob.Get(storagePath)
}

// ShareLink is pure on-demand issuance; the metadata store is not
// consulted and no state is created.
func (fs *FileService) ShareLink(storagePath string) (*domain.SharedLink, error) {
	link, err := fs.issuer.Issue(storagePath)
	if err != nil {
		return nil, err
	}

	fs.mCounter.WithLabelValues("share_links_issued_total").Inc()

	return link, nil
}

// OpenSharedLink dereferences an issued link. An expired or forged
// token is AccessDenied; a valid token whose blob was deleted
// mid-window is NotFound.
func (fs *FileService) OpenSharedLink(token string) (io.ReadCloser, error) {
	claims, err := fs.issuer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLinkExpired, err)
	}

	return fs.blob.Get(claims.StoragePath)
}

func fillMetaData(in *multipart.FileHeader) *domain.Record {
	rec := new(domain.Record)
	rec.Name = path.Base(strings.ReplaceAll(in.Filename, "\\", "/"))
	rec.MimeType = in.Header.Get("Content-Type")
	rec.SizeBytes = uint64(in.Size)

	return rec
}

// genStorageKey builds "files/<unix-ms>-<uuid8>-<name>". The uuid
// fragment keeps two uploads of the same name apart even when they
// land in the same millisecond.
func genStorageKey(now time.Time, original string) string {
	return fmt.Sprintf(
		"files/%d-%s-%s",
		now.UnixMilli(),
		strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		sanitizeFileName(original),
	)
}

// sanitizeFileName reduces the user-supplied name to lowercase ASCII
// safe for a storage key. Only the key is sanitized; the record keeps
// the original name.
func sanitizeFileName(original string) string {
	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "" {
		return "file"
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, s)

	base := strings.TrimSuffix(s, path.Ext(s))
	ext := strings.ToLower(path.Ext(s))
	if !extSafeRe.MatchString(ext) {
		ext = ""
	}

	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		default:
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}
	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}

	return base + ext
}

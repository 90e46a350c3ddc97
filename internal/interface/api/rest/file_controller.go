package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-sharing-api/internal/application/ports"
	domain "file-sharing-api/internal/domain/file"
	"file-sharing-api/internal/interface/api/rest/dto/file"
	"file-sharing-api/internal/interface/api/rest/validator"
)

// 100MB per file
const maxSize = int64(100 << 20)

type FileController struct {
	fileService ports.FileService
	logger      *zap.Logger
}

func NewFileController(
	r *gin.Engine,
	fileService ports.FileService,
	logger *zap.Logger,
) *FileController {
	fc := &FileController{
		fileService: fileService,
		logger:      logger,
	}

	r.GET(RouteFiles, fc.GetFilesHandler)
	r.POST(RouteFiles, fc.CreateFilesHandler)
	r.DELETE(RouteFile, fc.DeleteFileHandler)
	r.GET(RouteFileDownload, fc.DownloadFileHandler)
	r.GET(RouteFileShare, fc.ShareLinkHandler)
	r.GET(RouteFileShared, fc.SharedFileHandler)

	return fc
}

func (fc *FileController) GetFilesHandler(c *gin.Context) {
	files, err := fc.fileService.FindFiles(c.Request.Context())
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to get files"},
		)
		fc.logger.Error("FindFiles() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, file.ResponseData{
		Data: file.ToResponseFiles(files),
	})
}

// CreateFilesHandler accepts one or more "files" parts. Each file is
// its own transaction; one failure does not block or roll back the
// rest, and the response reports every outcome.
func (fc *FileController) CreateFilesHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}
	fhs := form.File["files"]
	if len(fhs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	results := make([]file.UploadResult, 0, len(fhs))
	failed := 0
	for _, fh := range fhs {
		if fh.Size <= 0 || fh.Size > maxSize {
			results = append(results, file.UploadResult{
				Name:  fh.Filename,
				Error: "file too large or empty",
			})
			failed++
			continue
		}

		rec, err := fc.fileService.CreateFile(c.Request.Context(), fh)
		if err != nil {
			fc.logger.Error("CreateFile() error",
				zap.String("name", fh.Filename),
				zap.Error(err),
			)
			results = append(results, file.UploadResult{
				Name:  fh.Filename,
				Error: "failed to upload file",
			})
			failed++
			continue
		}

		resp := file.ToResponseFile(*rec)
		results = append(results, file.UploadResult{
			Name: fh.Filename,
			File: &resp,
		})
	}

	status := http.StatusCreated
	if failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, file.UploadResponse{Results: results})
}

func (fc *FileController) DeleteFileHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("file_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "file_id must be a valid UUID"},
		)
		return
	}
	path := c.Query("path")
	if err := validator.ValidateStoragePath(path); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := fc.fileService.DeleteFile(c.Request.Context(), id, path); err != nil {
		if errors.Is(err, domain.ErrMetadataNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to delete file"},
		)
		fc.logger.Error("DeleteFile() error", zap.Error(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (fc *FileController) DownloadFileHandler(c *gin.Context) {
	path := c.Query("path")
	if err := validator.ValidateStoragePath(path); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc, err := fc.fileService.DownloadFile(path)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to download file"},
		)
		fc.logger.Error("DownloadFile() error", zap.Error(err))
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err = io.Copy(c.Writer, rc); err != nil {
		fc.logger.Error("download stream error", zap.Error(err))
	}
}

func (fc *FileController) ShareLinkHandler(c *gin.Context) {
	path := c.Query("path")
	if err := validator.ValidateStoragePath(path); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := fc.fileService.ShareLink(path)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to create share link"},
		)
		fc.logger.Error("ShareLink() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, file.ShareLinkResponse{
		URL:       link.URL,
		ExpiresIn: link.TTLSeconds,
	})
}

// SharedFileHandler dereferences an issued share link. Expiry wins
// over existence: a bad token is 403 even if the blob is long gone.
func (fc *FileController) SharedFileHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	rc, err := fc.fileService.OpenSharedLink(token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLinkExpired):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		case errors.Is(err, domain.ErrBlobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(
				http.StatusInternalServerError,
				gin.H{"error": "failed to open shared file"},
			)
			fc.logger.Error("OpenSharedLink() error", zap.Error(err))
		}
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err = io.Copy(c.Writer, rc); err != nil {
		fc.logger.Error("shared stream error", zap.Error(err))
	}
}

package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/services/dto"
	"designhub_backend/internal/storage"
	"designhub_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// sniffLen - сколько байт смотрит http.DetectContentType
const sniffLen = 512

const (
	ModuleAttachments  = "attachments"
	ModuleDeliverables = "deliverables"
)

// UploadService кладёт файлы в хранилище; метаданные пишут вызывающие сервисы
type UploadService interface {
	// UploadAttachment - вложение к заявке до её создания, возвращает URL
	UploadAttachment(ctx context.Context, actor auth.Principal, file *multipart.FileHeader) (*dto.AttachmentResponse, error)
	Store(ctx context.Context, module, ownerID string, file *multipart.FileHeader) (*StoredFile, error)
	Remove(ctx context.Context, key string)
}

// StoredFile - результат сохранения загруженного файла
type StoredFile struct {
	Key         string
	URL         string
	FileName    string
	ContentType string
	Size        int64
}

type uploadService struct {
	storage storage.Storage
	config  *UploadConfig
}

// ============================================
// КОНФИГУРАЦИЯ
// ============================================

type UploadConfig struct {
	Modules map[string]*ModuleConfig
}

type ModuleConfig struct {
	// AllowedTypes - префиксы MIME-типов; пусто - любой тип
	AllowedTypes []string
	MaxFileSize  int64
}

func NewUploadService(store storage.Storage, config *UploadConfig) UploadService {
	if config == nil {
		config = GetDefaultUploadConfig(0, 0)
	}
	return &uploadService{
		storage: store,
		config:  config,
	}
}

// GetDefaultUploadConfig - нулевые лимиты заменяются значениями по умолчанию
func GetDefaultUploadConfig(deliverableMax, attachmentMax int64) *UploadConfig {
	if deliverableMax <= 0 {
		deliverableMax = 10 * 1024 * 1024
	}
	if attachmentMax <= 0 {
		attachmentMax = 5 * 1024 * 1024
	}
	return &UploadConfig{
		Modules: map[string]*ModuleConfig{
			ModuleAttachments: {
				AllowedTypes: []string{"image/", "application/pdf"},
				MaxFileSize:  attachmentMax,
			},
			ModuleDeliverables: {
				MaxFileSize: deliverableMax,
			},
		},
	}
}

// MaxFileSize - лимит модуля, используется и для ограничения тела запроса
func (c *UploadConfig) MaxFileSize(module string) int64 {
	if m, ok := c.Modules[module]; ok {
		return m.MaxFileSize
	}
	return 0
}

// ============================================
// ОСНОВНЫЕ МЕТОДЫ
// ============================================

func (s *uploadService) UploadAttachment(ctx context.Context, actor auth.Principal, file *multipart.FileHeader) (*dto.AttachmentResponse, error) {
	if err := authorize(auth.ActionServiceUpload, actor, auth.Resource{}); err != nil {
		return nil, err
	}

	stored, err := s.Store(ctx, ModuleAttachments, actor.UserID, file)
	if err != nil {
		return nil, err
	}
	return &dto.AttachmentResponse{URL: stored.URL, FileName: stored.FileName, Size: stored.Size}, nil
}

func (s *uploadService) Store(ctx context.Context, module, ownerID string, file *multipart.FileHeader) (*StoredFile, error) {
	cfg, ok := s.config.Modules[module]
	if !ok {
		return nil, apperrors.InternalError(fmt.Errorf("unknown upload module %q", module))
	}
	if file == nil {
		return nil, apperrors.FieldError("file", "This field is required")
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer src.Close()

	sniffed, err := sniffContentType(src)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	contentType, err := s.validateFile(file, sniffed, cfg)
	if err != nil {
		return nil, err
	}

	stored := &StoredFile{
		Key:         buildStorageKey(module, ownerID, file.Filename),
		FileName:    filepath.Base(file.Filename),
		ContentType: contentType,
		Size:        file.Size,
	}

	if err := s.storage.Save(ctx, stored.Key, src, contentType); err != nil {
		logger.CtxWithError(ctx, "Failed to save upload", err, "module", module, "key", stored.Key)
		return nil, handleDomainError(err)
	}

	url, err := s.storage.GetURL(ctx, stored.Key)
	if err != nil {
		s.Remove(ctx, stored.Key)
		return nil, apperrors.InternalError(err)
	}
	stored.URL = url

	logger.CtxInfo(ctx, "File uploaded", "module", module, "key", stored.Key, "size", stored.Size)
	return stored, nil
}

// Remove - удаление без ошибки наружу: файл-сирота не должен ломать запрос
func (s *uploadService) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		logger.CtxWarn(ctx, "Failed to delete stored file", "key", key, "error", err)
	}
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// validateFile - тип по содержимому важнее заявленного клиентом;
// заголовок и расширение используются, только если содержимое не распознано
func (s *uploadService) validateFile(file *multipart.FileHeader, sniffed string, config *ModuleConfig) (string, error) {
	if config.MaxFileSize > 0 && file.Size > config.MaxFileSize {
		return "", apperrors.ErrPayloadTooLarge(config.MaxFileSize)
	}

	mimeType := sniffed
	if isGenericContentType(mimeType) {
		mimeType = file.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = getMimeTypeFromFilename(file.Filename)
		}
	}

	if len(config.AllowedTypes) == 0 {
		return mimeType, nil
	}
	for _, allowed := range config.AllowedTypes {
		if strings.HasPrefix(mimeType, allowed) {
			return mimeType, nil
		}
	}
	return "", apperrors.FieldError("file", "File type is not allowed")
}

// ============================================
// УТИЛИТЫ
// ============================================

func getMimeTypeFromFilename(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}

// sniffContentType читает начало файла и возвращает позицию в ноль
func sniffContentType(src multipart.File) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(src, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if n == 0 {
		return "application/octet-stream", nil
	}
	return http.DetectContentType(buf[:n]), nil
}

// isGenericContentType - DetectContentType не узнал формат, только "какие-то байты/текст"
func isGenericContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return mediaType == "application/octet-stream" || mediaType == "text/plain"
}

// buildStorageKey: <module>/<owner>/<uuid><ext>
func buildStorageKey(module, ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", module, ownerID, uuid.NewString(), ext)
}

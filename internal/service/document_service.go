package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
	appErrors "github.com/hshinosa/kompetensia-api/pkg/errors"
	"github.com/hshinosa/kompetensia-api/pkg/storage"
)

// sniffLen is how many leading bytes are inspected for MIME detection.
const sniffLen = 3072

type documentStorage interface {
	SaveStream(relPath string, r io.Reader, maxBytes int64) (int64, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
}

type documentSigner interface {
	Generate(submissionID, relPath string) (string, time.Time, error)
	Parse(token string) (submissionID, relPath string, err error)
}

type submissionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	DocumentInUse(ctx context.Context, documentPath string) (bool, error)
}

// DocumentUpload carries an uploaded file stream.
type DocumentUpload struct {
	Filename      string
	ParticipantID string
	Content       io.Reader
}

// DocumentDownload bundles an open document for streaming.
type DocumentDownload struct {
	File     *os.File
	Filename string
	MIME     string
	Size     int64
}

// DocumentServiceConfig holds upload limits.
type DocumentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// DocumentService stores submission documents and hands out opaque
// references and signed download links for them.
type DocumentService struct {
	storage     documentStorage
	signer      documentSigner
	submissions submissionFinder
	enrollments enrollmentReader
	logger      *zap.Logger
	cfg         DocumentServiceConfig
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(store documentStorage, signer documentSigner, submissions submissionFinder, enrollments enrollmentReader, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "application/zip", "image/png", "image/jpeg"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &DocumentService{
		storage:     store,
		signer:      signer,
		submissions: submissions,
		enrollments: enrollments,
		logger:      logger,
		cfg:         cfg,
	}
}

// Upload sniffs the content type, enforces the allow-list and size limit,
// and stores the bytes under the owning participant.
func (s *DocumentService) Upload(ctx context.Context, actor models.Actor, upload DocumentUpload) (*models.DocumentRef, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	owner := strings.TrimSpace(upload.ParticipantID)
	switch {
	case actor.Role == models.RoleParticipant:
		if owner != "" && owner != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "participants can only upload their own documents")
		}
		owner = actor.ID
	case actor.Role.IsAdmin():
		if owner == "" {
			return nil, fieldError("invalid upload", map[string]string{"participant_id": "required"})
		}
	default:
		return nil, appErrors.ErrForbidden
	}
	if upload.Content == nil {
		return nil, fieldError("file is required", map[string]string{"file": "required"})
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Content, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if n == 0 {
		return nil, fieldError("file is empty", map[string]string{"file": "required"})
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !s.allowed(detected) {
		return nil, fieldError(fmt.Sprintf("mime type %s not allowed", detected.String()), map[string]string{"file": "mime"})
	}

	relPath := path.Join(owner, uuid.NewString()+detected.Extension())
	size, err := s.storage.SaveStream(relPath, io.MultiReader(bytes.NewReader(head), upload.Content), s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, fieldError(fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize), map[string]string{"file": "max"})
		}
		return nil, storageError(err, "failed to store document")
	}
	s.logger.Debug("document stored", zap.String("path", relPath), zap.Int64("size", size), zap.String("mime", detected.String()))
	return &models.DocumentRef{Path: relPath, Size: size, MIME: baseMIME(detected.String())}, nil
}

// Discard removes an uploaded document that no submission references yet.
// Participants may only discard their own uploads.
func (s *DocumentService) Discard(ctx context.Context, actor models.Actor, relPath string) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	relPath = path.Clean(strings.TrimSpace(relPath))
	if relPath == "." || relPath == "" {
		return fieldError("invalid document", map[string]string{"path": "required"})
	}
	switch {
	case actor.Role == models.RoleParticipant:
		if !ownsDocument(actor.ID, relPath) {
			return appErrors.Clone(appErrors.ErrForbidden, "document belongs to another participant")
		}
	case !actor.Role.IsAdmin():
		return appErrors.ErrForbidden
	}
	inUse, err := s.submissions.DocumentInUse(ctx, relPath)
	if err != nil {
		return storageError(err, "failed to check document usage")
	}
	if inUse {
		return appErrors.Clone(appErrors.ErrConflict, "document is referenced by a submission")
	}
	if err := s.storage.Delete(relPath); err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			return fieldError("invalid document", map[string]string{"path": "invalid"})
		}
		return storageError(err, "failed to delete document")
	}
	s.logger.Debug("document discarded", zap.String("path", relPath), zap.String("actor", actor.ID))
	return nil
}

// SignedURL returns an expiring download link for a submission's document.
func (s *DocumentService) SignedURL(ctx context.Context, actor models.Actor, submissionID string) (string, time.Time, error) {
	submission, err := s.loadSubmission(ctx, actor, submissionID)
	if err != nil {
		return "", time.Time{}, err
	}
	ref := submission.Document()
	if ref == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "submission has no document")
	}
	token, expiresAt, err := s.signer.Generate(submission.ID, ref.Path)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	url := fmt.Sprintf("%s/submissions/%s/document?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), submission.ID, token)
	return url, expiresAt, nil
}

// Download validates the token against the submission and opens the document.
func (s *DocumentService) Download(ctx context.Context, submissionID, token string) (*DocumentDownload, error) {
	grantedID, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if grantedID != submissionID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOrStorage(err, "submission not found", "failed to load submission")
	}
	ref := submission.Document()
	if ref == nil || ref.Path != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, storageError(err, "failed to open document")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, storageError(err, "failed to read document metadata")
	}
	return &DocumentDownload{
		File:     file,
		Filename: path.Base(relPath),
		MIME:     ref.MIME,
		Size:     info.Size(),
	}, nil
}

func (s *DocumentService) loadSubmission(ctx context.Context, actor models.Actor, submissionID string) (*models.Submission, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOrStorage(err, "submission not found", "failed to load submission")
	}
	if _, err := loadEnrollment(ctx, s.enrollments, actor, submission.EnrollmentID); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *DocumentService) allowed(detected *mimetype.MIME) bool {
	for _, mt := range s.cfg.AllowedMIMEs {
		if detected.Is(mt) {
			return true
		}
	}
	return false
}

// ownsDocument reports whether a stored document path sits under the participant.
func ownsDocument(participantID, relPath string) bool {
	cleaned := path.Clean(strings.TrimSpace(relPath))
	return participantID != "" && strings.HasPrefix(cleaned, participantID+"/")
}

func baseMIME(raw string) string {
	if idx := strings.Index(raw, ";"); idx >= 0 {
		return strings.TrimSpace(raw[:idx])
	}
	return raw
}

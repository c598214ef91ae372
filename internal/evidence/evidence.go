package evidence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/caseregistry"
	"vendorops.io/vmp/internal/checklist"
	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform"
	"vendorops.io/vmp/internal/platform/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxUploadBytes is the §4.4 hard size ceiling on a single evidence file.
const maxUploadBytes = 50 * 1024 * 1024

// allowedMimeTypes is the §4.4 upload allow-list.
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// Service is the Evidence Vault, §4.4. Grounded on the teacher's S3 upload
// path in storage/s3aws.go, narrowed to the streamed single-object contract
// this spec needs and digesting with SHA-256 instead of MD5.
type Service struct {
	db        *gorm.DB
	s3        S3API
	presigner Presigner
	checklist *checklist.Engine
	cases     *caseregistry.Registry
	notifier  *notify.Service
	logger    *logrus.Logger

	bucket      string
	signedTTL   time.Duration
}

func NewService(db *gorm.DB, s3api S3API, presigner Presigner, checklistEngine *checklist.Engine, cases *caseregistry.Registry, notifier *notify.Service, logger *logrus.Logger, bucket string, signedTTL time.Duration) *Service {
	if signedTTL <= 0 {
		signedTTL = time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		db:        db,
		s3:        s3api,
		presigner: presigner,
		checklist: checklistEngine,
		cases:     cases,
		notifier:  notifier,
		logger:    logger,
		bucket:    bucket,
		signedTTL: signedTTL,
	}
}

// UploadInput carries a single evidence file and the case/step it targets.
type UploadInput struct {
	CaseID       uuid.UUID
	EvidenceType domain.EvidenceType
	Filename     string
	MimeType     string
	Data         []byte
}

// Upload validates, digests, stores, and records a new evidence version,
// then reconciles the checklist and case status, §4.4/§9.
func (s *Service) Upload(ctx context.Context, actor identity.Actor, in UploadInput) (*domain.Evidence, error) {
	if !allowedMimeTypes[in.MimeType] {
		return nil, errs.Validation("evidence_mime_rejected", "file type is not accepted")
	}
	if len(in.Data) == 0 {
		return nil, errs.Validation("evidence_empty", "uploaded file is empty")
	}
	if len(in.Data) > maxUploadBytes {
		return nil, errs.Validation("evidence_too_large", fmt.Sprintf(
			"uploaded file is %s, which exceeds the %s limit",
			humanize.Bytes(uint64(len(in.Data))), humanize.Bytes(uint64(maxUploadBytes)),
		))
	}

	var c domain.Case
	q := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", in.CaseID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return nil, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("vendor_id = ?", *actor.VendorID)
	}
	if err := q.First(&c).Error; err != nil {
		return nil, errs.NotFound("case_not_found", "case not found")
	}
	if c.Status.Terminal() {
		return nil, errs.Conflict("case_terminal", "case is closed; evidence can no longer be uploaded")
	}

	step, err := s.checklist.StepForType(ctx, in.CaseID, in.EvidenceType)
	if err != nil {
		return nil, err
	}

	version, err := s.nextVersion(ctx, in.CaseID, in.EvidenceType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sum := sha256.Sum256(in.Data)
	digest := hex.EncodeToString(sum[:])
	key := storagePath(in.CaseID, in.EvidenceType, version, now, in.Filename)

	err = platform.WithDeadline(ctx, platform.ObjectUploadDeadline, func(dctx context.Context) error {
		_, err := s.s3.PutObject(dctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(in.Data),
			ContentType: aws.String(in.MimeType),
			// IfNoneMatch refuses to overwrite an existing object at key;
			// storagePath is versioned per upload so a collision here means
			// two uploads raced on the same nextVersion, §4.4 "Atomicity".
			IfNoneMatch: aws.String("*"),
		})
		return err
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindUnavailable, "evidence_store_failed", "could not store evidence blob", err)
	}

	row := &domain.Evidence{
		ID:               uuid.New(),
		CaseID:           in.CaseID,
		ChecklistStepID:  &step.ID,
		EvidenceType:     in.EvidenceType,
		Version:          version,
		OriginalFilename: in.Filename,
		MimeType:         in.MimeType,
		SizeBytes:        int64(len(in.Data)),
		StoragePath:      key,
		SHA256:           digest,
		UploaderUserID:   &actor.UserID,
		UploaderParty:    actor.Role().ToParty(),
		CreatedAt:        now,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.cleanupBlob(ctx, key)
		return nil, errs.Wrap(errs.KindInternal, "evidence_record_failed", "could not record evidence upload", err)
	}

	if err := s.checklist.MarkSubmitted(ctx, step.ID); err != nil {
		return row, err
	}
	if err := s.reconcile(ctx, in.CaseID); err != nil {
		return row, err
	}

	return row, nil
}

// nextVersion returns one past the highest existing version for a
// case/evidence-type pair, §4.4 "Versioning".
func (s *Service) nextVersion(ctx context.Context, caseID uuid.UUID, evidenceType domain.EvidenceType) (int, error) {
	var maxVersion int
	row := s.db.WithContext(ctx).Model(&domain.Evidence{}).
		Where("case_id = ? AND evidence_type = ?", caseID, evidenceType).
		Select("COALESCE(MAX(version), 0)").Row()
	if err := row.Scan(&maxVersion); err != nil {
		return 0, errs.Wrap(errs.KindInternal, "evidence_version_lookup_failed", "could not compute next version", err)
	}
	return maxVersion + 1, nil
}

// cleanupBlob best-effort deletes an orphaned upload after a failed insert,
// §4.4 "Atomicity". The error is logged, not surfaced; the caller already
// has a real error to return and a leaked blob is not itself user-visible.
func (s *Service) cleanupBlob(ctx context.Context, key string) {
	err := platform.WithDeadline(ctx, platform.ObjectUploadDeadline, func(dctx context.Context) error {
		_, err := s.s3.DeleteObject(dctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("could not clean up orphaned evidence blob")
	}
}

// reconcile rolls the checklist's recommendation into the case status, §9.
// It sends no notification; Verify and Reject notify the vendor themselves.
func (s *Service) reconcile(ctx context.Context, caseID uuid.UUID) error {
	rec, err := s.checklist.Reconcile(ctx, caseID)
	if err != nil {
		return err
	}
	if s.cases == nil {
		return nil
	}
	return s.cases.ApplyEvidenceRecommendation(ctx, caseID, rec)
}

// Verify marks a checklist step verified and reconciles the case, §4.4
// "verify_evidence" (internal-only).
func (s *Service) Verify(ctx context.Context, actor identity.Actor, stepID uuid.UUID) error {
	if actor.Role() != domain.RoleInternal {
		return errs.Authz("internal_only", "only internal staff may verify evidence")
	}
	step, err := s.stepByID(ctx, stepID)
	if err != nil {
		return err
	}
	if err := s.checklist.MarkVerified(ctx, stepID); err != nil {
		return err
	}
	if err := s.reconcile(ctx, step.CaseID); err != nil {
		return err
	}
	s.notifyVendor(ctx, step.CaseID, notify.KindEvidenceVerified, "Evidence verified", "Your submitted evidence was verified")
	return nil
}

// Reject marks a checklist step rejected with a reason and reconciles the
// case, §4.4 "reject_evidence" (internal-only).
func (s *Service) Reject(ctx context.Context, actor identity.Actor, stepID uuid.UUID, reason string) error {
	if actor.Role() != domain.RoleInternal {
		return errs.Authz("internal_only", "only internal staff may reject evidence")
	}
	if reason == "" {
		return errs.Validation("reject_reason_required", "a rejection reason is required")
	}
	step, err := s.stepByID(ctx, stepID)
	if err != nil {
		return err
	}
	if err := s.checklist.MarkRejected(ctx, stepID, reason); err != nil {
		return err
	}
	if err := s.reconcile(ctx, step.CaseID); err != nil {
		return err
	}
	s.notifyVendor(ctx, step.CaseID, notify.KindEvidenceRejected, "Evidence rejected", reason)
	return nil
}

func (s *Service) stepByID(ctx context.Context, stepID uuid.UUID) (*domain.ChecklistStep, error) {
	var step domain.ChecklistStep
	if err := s.db.WithContext(ctx).First(&step, "id = ?", stepID).Error; err != nil {
		return nil, errs.NotFound("checklist_step_not_found", "checklist step not found")
	}
	return &step, nil
}

func (s *Service) notifyVendor(ctx context.Context, caseID uuid.UUID, kind, title, body string) {
	if s.notifier == nil {
		return
	}
	var c domain.Case
	if err := s.db.WithContext(ctx).First(&c, "id = ?", caseID).Error; err != nil {
		return
	}
	var supplierUser domain.User
	if err := s.db.WithContext(ctx).Where("vendor_id = ? AND active = ?", c.VendorID, true).First(&supplierUser).Error; err != nil {
		return
	}
	_ = s.notifier.Emit(ctx, supplierUser.ID, &caseID, kind, title, body)
}

// EvidenceItem pairs a stored evidence row with its time-bounded read URL.
type EvidenceItem struct {
	Evidence  domain.Evidence `json:"evidence"`
	SignedURL string          `json:"signed_url"`
}

// List returns every evidence row for a case with a freshly signed URL
// each, generated concurrently up to MaxConcurrentSignedURLs, §4.4 "Read"
// and §5's concurrency expectation.
func (s *Service) List(ctx context.Context, actor identity.Actor, caseID uuid.UUID) ([]EvidenceItem, error) {
	var c domain.Case
	q := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", caseID, actor.TenantID)
	if actor.Role() == domain.RoleSupplier {
		if actor.VendorID == nil {
			return nil, errs.Authz("no_vendor_scope", "supplier actor has no vendor scope")
		}
		q = q.Where("vendor_id = ?", *actor.VendorID)
	}
	if err := q.First(&c).Error; err != nil {
		return nil, errs.NotFound("case_not_found", "case not found")
	}

	var rows []domain.Evidence
	if err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(errs.KindInternal, "evidence_list_failed", "could not list evidence", err)
	}

	items := make([]EvidenceItem, len(rows))
	sem := make(chan struct{}, MaxConcurrentSignedURLs)
	errCh := make(chan error, len(rows))
	var wg sync.WaitGroup

	for i, row := range rows {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, row domain.Evidence) {
			defer wg.Done()
			defer func() { <-sem }()
			url, err := s.sign(ctx, row.StoragePath)
			if err != nil {
				errCh <- err
				return
			}
			items[i] = EvidenceItem{Evidence: row, SignedURL: url}
		}(i, row)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Service) sign(ctx context.Context, key string) (string, error) {
	var req *v4.PresignedHTTPRequest
	err := platform.WithDeadline(ctx, platform.SignedURLDeadline, func(dctx context.Context) error {
		r, err := s.presigner.PresignGetObject(dctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, func(o *s3.PresignOptions) {
			o.Expires = s.signedTTL
		})
		req = r
		return err
	})
	if err != nil {
		return "", errs.Wrap(errs.KindUnavailable, "evidence_sign_failed", "could not generate signed URL", err)
	}
	return req.URL, nil
}

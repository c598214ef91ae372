package evidence

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"vendorops.io/vmp/internal/domain"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// sanitizeFilename replaces any character outside [A-Za-z0-9._-] with an
// underscore, per §4.4's storage-path rule.
func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// storagePath builds the canonical object key:
// {case id}/{evidence type}/{YYYY-MM-DD}/v{version}_{sanitized filename}
func storagePath(caseID uuid.UUID, evidenceType domain.EvidenceType, version int, uploadedAt time.Time, originalFilename string) string {
	day := uploadedAt.Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s/v%d_%s", caseID, evidenceType, day, version, sanitizeFilename(originalFilename))
}

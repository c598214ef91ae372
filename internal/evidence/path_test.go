package evidence

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/domain"
)

func TestSanitizeFilenameReplacesUnsafeCharacters(t *testing.T) {
	assert.Equal(t, "invoice_2026.pdf", sanitizeFilename("invoice 2026.pdf"))
	assert.Equal(t, ".._invoice.pdf", sanitizeFilename("../invoice.pdf"))
	assert.Equal(t, "caf_.pdf", sanitizeFilename("café.pdf"))
	assert.Equal(t, "report-final_v2.pdf", sanitizeFilename("report-final_v2.pdf"))
}

func TestStoragePathIsCanonicalAndStable(t *testing.T) {
	caseID := uuid.New()
	uploadedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	path := storagePath(caseID, domain.EvidenceInvoicePDF, 2, uploadedAt, "invoice final.pdf")

	assert.Equal(t, caseID.String()+"/invoice_pdf/2026-03-14/v2_invoice_final.pdf", path)
}

func TestStoragePathSanitizesFilenameComponent(t *testing.T) {
	caseID := uuid.New()
	uploadedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	path := storagePath(caseID, domain.EvidenceBankLetter, 1, uploadedAt, "../../etc/passwd")

	// the filename component can no longer introduce extra path segments
	assert.Equal(t, 4, len(strings.Split(path, "/")))
	assert.Contains(t, path, "v1_")
}

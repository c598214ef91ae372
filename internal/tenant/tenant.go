// Package tenant manages Tenant, Company, Vendor, and the Vendor–Company
// authorization link named in SPEC_FULL.md §3. Grounded on the teacher's
// repository pattern (db/repository/postgres.go): a thin struct wrapping
// the shared *gorm.DB handle, one method per operation, context-scoped.
package tenant

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/platform/errs"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// Linked reports whether vendor is authorized to act on behalf of company,
// the precondition checked by Case Registry's create-case operation (§4.1).
func (s *Store) Linked(ctx context.Context, vendorID, companyID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.VendorCompanyLink{}).
		Where("vendor_id = ? AND company_id = ?", vendorID, companyID).
		Count(&count).Error
	return count > 0, err
}

// Vendor loads a vendor scoped to tenant; cross-tenant reads return
// not_found per §8's invariant.
func (s *Store) Vendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := s.db.WithContext(ctx).First(&v, "id = ? AND tenant_id = ?", vendorID, tenantID).Error; err != nil {
		return nil, errs.NotFound("vendor_not_found", "vendor not found")
	}
	return &v, nil
}

// Company loads a company scoped to tenant.
func (s *Store) Company(ctx context.Context, tenantID, companyID uuid.UUID) (*domain.Company, error) {
	var c domain.Company
	if err := s.db.WithContext(ctx).First(&c, "id = ? AND tenant_id = ?", companyID, tenantID).Error; err != nil {
		return nil, errs.NotFound("company_not_found", "company not found")
	}
	return &c, nil
}

// UpdateVendorBank applies a bank-details change, the hook invoked by
// Case Registry on resolving a bank-change payment case (§9 open question,
// resolved in DESIGN.md: the mutation happens inside the resolve
// transition, not a separate action).
func (s *Store) UpdateVendorBank(ctx context.Context, tenantID, vendorID uuid.UUID, bank domain.BankDetails) error {
	res := s.db.WithContext(ctx).Model(&domain.Vendor{}).
		Where("id = ? AND tenant_id = ?", vendorID, tenantID).
		Updates(map[string]interface{}{
			"bank_account_name":   bank.AccountName,
			"bank_account_number": bank.AccountNumber,
			"bank_name":           bank.BankName,
			"bank_swift":          bank.SWIFT,
		})
	if res.Error != nil {
		return errs.Wrap(errs.KindInternal, "vendor_bank_update_failed", "could not update vendor bank details", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("vendor_not_found", "vendor not found")
	}
	return nil
}

package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/platform/errs"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want int
	}{
		{errs.KindValidation, http.StatusBadRequest},
		{errs.KindAuthz, http.StatusForbidden},
		{errs.KindNotFound, http.StatusNotFound},
		{errs.KindConflict, http.StatusConflict},
		{errs.KindIntegrity, http.StatusConflict},
		{errs.KindUnavailable, http.StatusServiceUnavailable},
		{errs.KindInternal, http.StatusInternalServerError},
		{errs.Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForKind(tt.kind), tt.kind)
	}
}

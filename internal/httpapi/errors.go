package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"vendorops.io/vmp/internal/platform/errs"
)

// ErrorResponse is the uniform JSON error body, grounded on the teacher's
// http.ErrorResponse shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusForKind maps the closed errs.Kind set to an HTTP status, §7.
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindAuthz:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindIntegrity:
		return http.StatusConflict
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorHandler builds the Echo HTTPErrorHandler that maps errs.Error to
// status codes and logs the full cause chain without leaking it to callers.
func NewErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *errs.Error
		if errors.As(err, &ve) {
			code := statusForKind(ve.Kind)
			if code >= http.StatusInternalServerError {
				logger.WithError(err).WithField("reason", ve.Reason).Error("request failed")
			}
			_ = c.JSON(code, ErrorResponse{Error: ve.Reason, Message: ve.Message})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, _ := he.Message.(string)
			_ = c.JSON(he.Code, ErrorResponse{Error: http.StatusText(he.Code), Message: msg})
			return
		}

		logger.WithError(err).Error("unhandled request error")
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "an unexpected error occurred"})
	}
}

package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"vendorops.io/vmp/internal/caseregistry"
	"vendorops.io/vmp/internal/checklist"
	"vendorops.io/vmp/internal/domain"
	"vendorops.io/vmp/internal/evidence"
	"vendorops.io/vmp/internal/identity"
	"vendorops.io/vmp/internal/notify"
	"vendorops.io/vmp/internal/platform/errs"
	"vendorops.io/vmp/internal/soa"
	"vendorops.io/vmp/internal/thread"
)

// Dependencies is every component a route handler dispatches to, assembled
// once at startup by cmd/vmpd and threaded through RegisterRoutes.
type Dependencies struct {
	Identity  *identity.Service
	Tokens    *identity.TokenService
	Cases     *caseregistry.Registry
	Checklist *checklist.Engine
	Thread    *thread.Service
	Evidence  *evidence.Service
	SOA       *soa.Service
	Notify    *notify.Service

	SessionTTL        time.Duration
	BreakGlassContact string
}

// RegisterRoutes wires the §6 endpoint surface onto e, gating every route
// past /login behind actorMiddleware and every internal-only action behind
// internalOnly.
func RegisterRoutes(e *echo.Echo, d Dependencies, uploadLimiter echo.MiddlewareFunc) {
	h := &handlers{d: d}

	e.POST("/login", h.login)
	e.POST("/logout", h.logout, actorMiddleware(d.Identity, d.Tokens))

	api := e.Group("", actorMiddleware(d.Identity, d.Tokens))

	api.GET("/cases", h.listCases)
	api.POST("/cases", h.createCase)
	api.GET("/cases/:id", h.getCase)
	api.POST("/cases/:id/status", h.transitionCase, internalOnly)
	api.POST("/cases/:id/reassign", h.reassignCase, internalOnly)
	api.POST("/cases/:id/escalate", h.escalateCase)

	api.GET("/cases/:id/messages", h.listMessages)
	api.POST("/cases/:id/messages", h.postMessage)

	api.GET("/cases/:id/checklist", h.listChecklist)
	api.POST("/cases/:id/checklist/:step/verify", h.verifyChecklistStep, internalOnly)
	api.POST("/cases/:id/checklist/:step/reject", h.rejectChecklistStep, internalOnly)

	api.GET("/cases/:id/evidence", h.listEvidence)
	api.POST("/cases/:id/evidence", h.uploadEvidence, uploadLimiter)

	api.POST("/soa/ingest", h.soaIngest, uploadLimiter, internalOnly)
	api.POST("/soa/:case/recompute", h.soaRecompute, internalOnly)
	api.POST("/soa/:case/signoff", h.soaSignoff, internalOnly)
	api.POST("/soa/lines/:line/match", h.soaManualMatch, internalOnly)
	api.POST("/soa/lines/:line/dispute", h.soaDisputeLine)
	api.POST("/soa/lines/:line/evidence", h.soaUploadLineEvidence, uploadLimiter)
	api.POST("/soa/issues/:issue/resolve", h.soaResolveIssue, internalOnly)

	api.GET("/notifications", h.listNotifications)
	api.POST("/notifications/:id/read", h.markNotificationRead)
}

type handlers struct {
	d Dependencies
}

// --- Identity ---

type loginRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
}

func (h *handlers) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed login request")
	}
	session, _, err := h.d.Identity.Login(c.Request().Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID.String(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, echo.Map{"session_id": session.ID})
}

func (h *handlers) logout(c echo.Context) error {
	cookie, err := c.Cookie(sessionCookieName)
	if err == nil {
		if sid, perr := uuid.Parse(cookie.Value); perr == nil {
			_ = h.d.Identity.Logout(c.Request().Context(), sid)
		}
	}
	c.SetCookie(&http.Cookie{Name: sessionCookieName, Value: "", MaxAge: -1, Path: "/"})
	return c.NoContent(http.StatusNoContent)
}

// --- Case Registry ---

func (h *handlers) listCases(c echo.Context) error {
	actor := actorFromContext(c)
	f := caseregistry.ListFilter{
		Status:     domain.CaseStatus(c.QueryParam("status")),
		OwnerTeam:  domain.OwnerTeam(c.QueryParam("owner_team")),
		CaseType:   domain.CaseType(c.QueryParam("case_type")),
		SLAPosture: domain.SLAPosture(c.QueryParam("sla_posture")),
		FreeText:   c.QueryParam("q"),
	}
	cases, err := h.d.Cases.Enumerate(c.Request().Context(), actor, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cases)
}

type createCaseRequest struct {
	CompanyID       uuid.UUID              `json:"company_id"`
	VendorID        uuid.UUID              `json:"vendor_id"`
	CaseType        domain.CaseType        `json:"case_type"`
	Subject         string                 `json:"subject"`
	Metadata        map[string]interface{} `json:"metadata"`
	LinkedInvoiceID *uuid.UUID             `json:"linked_invoice_id"`
}

func (h *handlers) createCase(c echo.Context) error {
	actor := actorFromContext(c)
	var req createCaseRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed case creation request")
	}
	created, err := h.d.Cases.Create(c.Request().Context(), actor, caseregistry.CreateCaseInput{
		CompanyID:       req.CompanyID,
		VendorID:        req.VendorID,
		CaseType:        req.CaseType,
		Subject:         req.Subject,
		Metadata:        req.Metadata,
		LinkedInvoiceID: req.LinkedInvoiceID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) getCase(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	detail, err := h.d.Cases.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

type transitionRequest struct {
	Status domain.CaseStatus `json:"status"`
}

func (h *handlers) transitionCase(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed transition request")
	}
	updated, err := h.d.Cases.TransitionStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

type reassignRequest struct {
	OwnerTeam  domain.OwnerTeam `json:"owner_team"`
	AssigneeID *uuid.UUID       `json:"assignee_id"`
}

func (h *handlers) reassignCase(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	var req reassignRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed reassign request")
	}
	updated, err := h.d.Cases.Reassign(c.Request().Context(), actor, id, req.OwnerTeam, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

type escalateRequest struct {
	Level  int    `json:"level"`
	Reason string `json:"reason"`
}

func (h *handlers) escalateCase(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	var req escalateRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed escalation request")
	}
	updated, contact, err := h.d.Cases.Escalate(c.Request().Context(), actor, id, req.Level, req.Reason, h.d.BreakGlassContact)
	if err != nil {
		return err
	}
	resp := echo.Map{"case": updated}
	if contact != "" {
		resp["break_glass_contact"] = contact
	}
	return c.JSON(http.StatusOK, resp)
}

// --- Thread ---

func (h *handlers) listMessages(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	messages, err := h.d.Thread.List(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messages)
}

type postMessageRequest struct {
	Body         string               `json:"body"`
	Channel      domain.ChannelSource `json:"channel"`
	InternalNote bool                 `json:"internal_note"`
}

func (h *handlers) postMessage(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed message request")
	}
	msg, err := h.d.Thread.Append(c.Request().Context(), actor, id, req.Body, req.Channel, req.InternalNote)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// --- Checklist ---

func (h *handlers) listChecklist(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	steps, err := h.d.Checklist.List(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, steps)
}

func (h *handlers) verifyChecklistStep(c echo.Context) error {
	actor := actorFromContext(c)
	stepID, err := uuid.Parse(c.Param("step"))
	if err != nil {
		return errs.Validation("bad_step_id", "malformed checklist step id")
	}
	if err := h.d.Evidence.Verify(c.Request().Context(), actor, stepID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *handlers) rejectChecklistStep(c echo.Context) error {
	actor := actorFromContext(c)
	stepID, err := uuid.Parse(c.Param("step"))
	if err != nil {
		return errs.Validation("bad_step_id", "malformed checklist step id")
	}
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed rejection request")
	}
	if err := h.d.Evidence.Reject(c.Request().Context(), actor, stepID, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Evidence ---

func (h *handlers) listEvidence(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	items, err := h.d.Evidence.List(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *handlers) uploadEvidence(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errs.Validation("missing_file", "multipart field \"file\" is required")
	}
	evidenceType := domain.EvidenceType(c.FormValue("evidence_type"))
	if evidenceType == "" {
		return errs.Validation("missing_evidence_type", "form field \"evidence_type\" is required")
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		return errs.Validation("unreadable_file", "could not read uploaded file")
	}

	row, err := h.d.Evidence.Upload(c.Request().Context(), actor, evidence.UploadInput{
		CaseID:       id,
		EvidenceType: evidenceType,
		Filename:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, row)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// --- SOA ---

func (h *handlers) soaIngest(c echo.Context) error {
	actor := actorFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errs.Validation("missing_file", "multipart field \"file\" is required")
	}
	vendorID, err := uuid.Parse(c.FormValue("vendor_id"))
	if err != nil {
		return errs.Validation("bad_vendor_id", "malformed vendor id")
	}
	companyID, err := uuid.Parse(c.FormValue("company_id"))
	if err != nil {
		return errs.Validation("bad_company_id", "malformed company id")
	}
	periodStart, err := time.Parse("2006-01-02", c.FormValue("period_start"))
	if err != nil {
		return errs.Validation("bad_period_start", "period_start must be YYYY-MM-DD")
	}
	periodEnd, err := time.Parse("2006-01-02", c.FormValue("period_end"))
	if err != nil {
		return errs.Validation("bad_period_end", "period_end must be YYYY-MM-DD")
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		return errs.Validation("unreadable_file", "could not read uploaded statement")
	}

	result, err := h.d.SOA.Ingest(c.Request().Context(), actor, soa.IngestInput{
		CompanyID:   companyID,
		VendorID:    vendorID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		CSV:         data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *handlers) soaRecompute(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("case"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	if err := h.d.SOA.Recompute(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) soaSignoff(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("case"))
	if err != nil {
		return errs.Validation("bad_case_id", "malformed case id")
	}
	updated, err := h.d.SOA.SignOff(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

type manualMatchRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
}

func (h *handlers) soaManualMatch(c echo.Context) error {
	actor := actorFromContext(c)
	lineID, err := uuid.Parse(c.Param("line"))
	if err != nil {
		return errs.Validation("bad_line_id", "malformed statement line id")
	}
	var req manualMatchRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed manual match request")
	}
	if err := h.d.SOA.ManualMatch(c.Request().Context(), actor, lineID, req.InvoiceID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type disputeLineRequest struct {
	Reason string `json:"reason"`
}

func (h *handlers) soaDisputeLine(c echo.Context) error {
	actor := actorFromContext(c)
	lineID, err := uuid.Parse(c.Param("line"))
	if err != nil {
		return errs.Validation("bad_line_id", "malformed statement line id")
	}
	var req disputeLineRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed dispute request")
	}
	if err := h.d.SOA.DisputeLine(c.Request().Context(), actor, lineID, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type resolveIssueRequest struct {
	Note   string `json:"note"`
	Ignore bool   `json:"ignore"`
}

func (h *handlers) soaResolveIssue(c echo.Context) error {
	actor := actorFromContext(c)
	issueID, err := uuid.Parse(c.Param("issue"))
	if err != nil {
		return errs.Validation("bad_issue_id", "malformed issue id")
	}
	var req resolveIssueRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("bad_request", "malformed resolve request")
	}
	if err := h.d.SOA.ResolveIssue(c.Request().Context(), actor, issueID, req.Note, req.Ignore); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) soaUploadLineEvidence(c echo.Context) error {
	actor := actorFromContext(c)
	lineID, err := uuid.Parse(c.Param("line"))
	if err != nil {
		return errs.Validation("bad_line_id", "malformed statement line id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errs.Validation("missing_file", "multipart field \"file\" is required")
	}
	data, err := readMultipartFile(fileHeader)
	if err != nil {
		return errs.Validation("unreadable_file", "could not read uploaded file")
	}

	row, err := h.d.SOA.UploadLineEvidence(c.Request().Context(), actor, lineID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, row)
}

// --- Notifications ---

func (h *handlers) listNotifications(c echo.Context) error {
	actor := actorFromContext(c)
	items, err := h.d.Notify.List(c.Request().Context(), actor.UserID, 50)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *handlers) markNotificationRead(c echo.Context) error {
	actor := actorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errs.Validation("bad_notification_id", "malformed notification id")
	}
	if err := h.d.Notify.MarkRead(c.Request().Context(), actor.UserID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

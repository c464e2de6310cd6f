package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clientcare/crm/internal/config"
	"github.com/clientcare/crm/internal/identity"
	leaddomain "github.com/clientcare/crm/internal/lead/domain"
	notedomain "github.com/clientcare/crm/internal/note/domain"
	organizationdomain "github.com/clientcare/crm/internal/organization/domain"
	"github.com/clientcare/crm/internal/whatsapp"
)

const testToken = "valid-token"

var testUserID = uuid.MustParse("11111111-2222-3333-4444-555555555555")

type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	_ = ctx
	if token != testToken {
		return nil, identity.ErrUnauthenticated
	}
	return &identity.Principal{ID: testUserID, Email: "agent@example.com"}, nil
}

type fakeOrgService struct {
	role       organizationdomain.Role
	resolveErr error
}

func (f *fakeOrgService) ResolveTenant(ctx context.Context, userID uuid.UUID) (*organizationdomain.Tenant, error) {
	_ = ctx
	_ = userID
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &organizationdomain.Tenant{
		OrgID: snowflake.ID(1001),
		Role:  f.role,
		Organization: organizationdomain.Organization{
			ID:               snowflake.ID(1001),
			Name:             "Acme Clinic",
			Slug:             "acme-clinic",
			SubscriptionTier: "free",
		},
	}, nil
}

func (f *fakeOrgService) Update(ctx context.Context, orgID snowflake.ID, req organizationdomain.UpdateOrganizationRequest) (*organizationdomain.Organization, error) {
	_ = ctx
	org := organizationdomain.Organization{ID: orgID, Name: "Acme Clinic", Slug: "acme-clinic"}
	if req.Name != nil {
		org.Name = *req.Name
	}
	return &org, nil
}

func (f *fakeOrgService) ListMembers(ctx context.Context, orgID snowflake.ID) ([]organizationdomain.MemberView, error) {
	_ = ctx
	_ = orgID
	return []organizationdomain.MemberView{}, nil
}

func (f *fakeOrgService) InviteMember(ctx context.Context, orgID snowflake.ID, invitedBy uuid.UUID, req organizationdomain.InviteRequest) (*organizationdomain.OrganizationInvite, error) {
	_ = ctx
	return &organizationdomain.OrganizationInvite{
		ID:        snowflake.ID(7),
		OrgID:     orgID,
		Email:     req.Email,
		Role:      req.Role,
		Status:    organizationdomain.InviteStatusPending,
		InvitedBy: invitedBy,
	}, nil
}

func (f *fakeOrgService) RemoveMember(ctx context.Context, orgID, memberID snowflake.ID) error {
	_ = ctx
	_ = orgID
	_ = memberID
	return nil
}

func (f *fakeOrgService) UsageStats(ctx context.Context, orgID snowflake.ID) (*organizationdomain.UsageStatsResponse, error) {
	_ = ctx
	_ = orgID
	return &organizationdomain.UsageStatsResponse{
		LeadsCount: 3,
		LeadsLimit: 50,
		UsersCount: 1,
		UsersLimit: 1,
		Tier:       "free",
	}, nil
}

type fakeLeadService struct {
	lastCreate    *leaddomain.CreateRequest
	lastCreateOrg snowflake.ID
	lastCreatedBy uuid.UUID
	deleteCalls   int
}

func (f *fakeLeadService) List(ctx context.Context, orgID snowflake.ID, req leaddomain.ListRequest) (*leaddomain.ListResponse, error) {
	_ = ctx
	_ = orgID
	return &leaddomain.ListResponse{
		Items:    []leaddomain.Lead{},
		Total:    0,
		Page:     req.Page.Page,
		PageSize: req.Page.PageSize,
	}, nil
}

func (f *fakeLeadService) GetByID(ctx context.Context, orgID, id snowflake.ID) (*leaddomain.Lead, error) {
	_ = ctx
	if id != snowflake.ID(42) {
		return nil, leaddomain.ErrNotFound
	}
	return &leaddomain.Lead{ID: id, OrgID: orgID, Name: "Asha", Phone: "919900112233"}, nil
}

func (f *fakeLeadService) Create(ctx context.Context, orgID snowflake.ID, createdBy uuid.UUID, req leaddomain.CreateRequest) (*leaddomain.Lead, error) {
	_ = ctx
	f.lastCreate = &req
	f.lastCreateOrg = orgID
	f.lastCreatedBy = createdBy
	if req.Name == "" {
		return nil, leaddomain.ErrInvalidName
	}
	return &leaddomain.Lead{ID: snowflake.ID(42), OrgID: orgID, CreatedBy: createdBy, Name: req.Name, Phone: req.Phone}, nil
}

func (f *fakeLeadService) Update(ctx context.Context, orgID, id snowflake.ID, req leaddomain.UpdateRequest) (*leaddomain.Lead, error) {
	_ = ctx
	_ = req
	if id != snowflake.ID(42) {
		return nil, leaddomain.ErrNotFound
	}
	return &leaddomain.Lead{ID: id, OrgID: orgID, Name: "Asha", Phone: "919900112233"}, nil
}

func (f *fakeLeadService) Delete(ctx context.Context, orgID, id snowflake.ID) error {
	_ = ctx
	_ = orgID
	f.deleteCalls++
	if id != snowflake.ID(42) {
		return leaddomain.ErrNotFound
	}
	return nil
}

func (f *fakeLeadService) CountSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error) {
	_ = ctx
	_ = orgID
	_ = since
	return 0, nil
}

type fakeNoteService struct{}

func (f *fakeNoteService) ListByLead(ctx context.Context, orgID, leadID snowflake.ID) ([]notedomain.Note, error) {
	_ = ctx
	_ = orgID
	if leadID != snowflake.ID(42) {
		return nil, notedomain.ErrNotFound
	}
	return []notedomain.Note{}, nil
}

func (f *fakeNoteService) Create(ctx context.Context, orgID snowflake.ID, createdBy uuid.UUID, req notedomain.CreateRequest) (*notedomain.Note, error) {
	_ = ctx
	_ = orgID
	return &notedomain.Note{ID: snowflake.ID(9), LeadID: req.LeadID, Content: req.Content, CreatedBy: createdBy}, nil
}

func (f *fakeNoteService) Update(ctx context.Context, orgID, noteID snowflake.ID, content string) (*notedomain.Note, error) {
	_ = ctx
	_ = orgID
	return &notedomain.Note{ID: noteID, Content: content}, nil
}

func (f *fakeNoteService) Delete(ctx context.Context, orgID, noteID snowflake.ID) error {
	_ = ctx
	_ = orgID
	_ = noteID
	return nil
}

type serverFixture struct {
	server  *Server
	engine  *gin.Engine
	leadSvc *fakeLeadService
	orgSvc  *fakeOrgService
}

func newTestServer(t *testing.T, role organizationdomain.Role) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	cfg := config.Config{
		HTTPAddr: ":0",
		WhatsApp: config.WhatsAppConfig{
			AccessToken:        "token",
			PhoneNumberID:      "1234567890",
			WebhookVerifyToken: "verify-secret",
		},
	}

	leadSvc := &fakeLeadService{}
	orgSvc := &fakeOrgService{role: role}

	srv := &Server{
		engine:           r,
		cfg:              cfg,
		verifier:         &fakeVerifier{},
		organizationSvc:  orgSvc,
		leadSvc:          leadSvc,
		noteSvc:          &fakeNoteService{},
		whatsappClient:   whatsapp.NewClient(cfg, zap.NewNop(), nil),
		webhookProcessor: whatsapp.NewProcessor(zap.NewNop(), nil),
	}
	srv.registerAPIRoutes()

	return &serverFixture{server: srv, engine: r, leadSvc: leadSvc, orgSvc: orgSvc}
}

func (f *serverFixture) request(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestListLeadsRequiresAuth(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)

	rec := f.request(t, http.MethodGet, "/api/v1/leads", nil, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateLeadStampsTenantAndCreator(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)

	rec := f.request(t, http.MethodPost, "/api/v1/leads", gin.H{
		"name":  "Asha",
		"phone": "919900112233",
	}, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.leadSvc.lastCreate)
	assert.Equal(t, snowflake.ID(1001), f.leadSvc.lastCreateOrg)
	assert.Equal(t, testUserID, f.leadSvc.lastCreatedBy)
}

func TestGetLeadUnknownIsNotFound(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)

	rec := f.request(t, http.MethodGet, "/api/v1/leads/999", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/v1/leads/not-a-number", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLeadRequiresElevatedRole(t *testing.T) {
	agent := newTestServer(t, organizationdomain.RoleAgent)
	rec := agent.request(t, http.MethodDelete, "/api/v1/leads/42", nil, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, agent.leadSvc.deleteCalls)

	admin := newTestServer(t, organizationdomain.RoleAdmin)
	rec = admin.request(t, http.MethodDelete, "/api/v1/leads/42", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, admin.leadSvc.deleteCalls)
}

func TestUpdateOrganizationRequiresElevatedRole(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleManager)

	rec := f.request(t, http.MethodPut, "/api/v1/organizations/current", gin.H{"name": "New Name"}, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMembershipNotFoundMapsToNotFound(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)
	f.orgSvc.resolveErr = organizationdomain.ErrMembershipNotFound

	rec := f.request(t, http.MethodGet, "/api/v1/leads", nil, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAmbiguousMembershipIsServerFault(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)
	f.orgSvc.resolveErr = organizationdomain.ErrAmbiguousMembership

	rec := f.request(t, http.MethodGet, "/api/v1/leads", nil, true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookVerification(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)

	rec := f.request(t, http.MethodGet, "/api/v1/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=424242", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "424242", rec.Body.String())

	rec = f.request(t, http.MethodGet, "/api/v1/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=424242", nil, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookPostAlwaysAcknowledges(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)

	rec := f.request(t, http.MethodPost, "/api/v1/whatsapp/webhook", gin.H{"entry": []any{}}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/whatsapp/webhook", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	f.engine.ServeHTTP(raw, req)
	require.Equal(t, http.StatusOK, raw.Code)
	assert.JSONEq(t, `{"status":"error"}`, raw.Body.String())
}

func TestBulkDelayDistinguishesAbsentFromZero(t *testing.T) {
	var absent sendBulkRequest
	require.NoError(t, json.Unmarshal([]byte(`{"recipients":["911"],"message":"hi"}`), &absent))
	assert.Equal(t, time.Second, absent.delay())

	var zero sendBulkRequest
	require.NoError(t, json.Unmarshal([]byte(`{"recipients":["911"],"message":"hi","delay_ms":0}`), &zero))
	assert.Equal(t, time.Duration(0), zero.delay())

	var custom sendBulkRequest
	require.NoError(t, json.Unmarshal([]byte(`{"recipients":["911"],"message":"hi","delay_ms":250}`), &custom))
	assert.Equal(t, 250*time.Millisecond, custom.delay())
}

func TestSendMessageUnconfiguredIsUnavailable(t *testing.T) {
	f := newTestServer(t, organizationdomain.RoleAgent)
	f.server.whatsappClient = whatsapp.NewClient(config.Config{}, zap.NewNop(), nil)

	rec := f.request(t, http.MethodPost, "/api/v1/whatsapp/send", gin.H{
		"phone":   "919900112233",
		"message": "hello",
	}, true)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

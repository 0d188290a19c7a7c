package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quickqr/internal/config"
	"quickqr/internal/handlers"
	"quickqr/internal/middleware"
	"quickqr/internal/model"
	"quickqr/internal/qrgen"
	"quickqr/internal/repo"
	"quickqr/internal/service"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Local light mocks
type hMockUserRepo struct{ mock.Mock }

func (m *hMockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockUserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

var _ repo.UserRepository = (*hMockUserRepo)(nil)

type hMockLostFoundRepo struct{ mock.Mock }

func (m *hMockLostFoundRepo) CreateQR(ctx context.Context, qr *model.QRRecord, owner *model.ScanMapping) error {
	return m.Called(ctx, qr, owner).Error(0)
}
func (m *hMockLostFoundRepo) GetQR(ctx context.Context, qrID string) (*model.QRRecord, error) {
	args := m.Called(ctx, qrID)
	if v, ok := args.Get(0).(*model.QRRecord); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockLostFoundRepo) SaveQRURL(ctx context.Context, qrID, url string) error {
	return m.Called(ctx, qrID, url).Error(0)
}
func (m *hMockLostFoundRepo) ListQRsByOwner(ctx context.Context, userID string) ([]model.QRRecord, error) {
	args := m.Called(ctx, userID)
	if v, ok := args.Get(0).([]model.QRRecord); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockLostFoundRepo) GetMapping(ctx context.Context, qrID, userID string) (*model.ScanMapping, error) {
	args := m.Called(ctx, qrID, userID)
	if v, ok := args.Get(0).(*model.ScanMapping); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockLostFoundRepo) GetPermissions(ctx context.Context, qrID string) ([]model.FieldPermission, error) {
	args := m.Called(ctx, qrID)
	if v, ok := args.Get(0).([]model.FieldPermission); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockLostFoundRepo) RecordScan(ctx context.Context, event *model.ScanEvent, mapping *model.ScanMapping) error {
	return m.Called(ctx, event, mapping).Error(0)
}
func (m *hMockLostFoundRepo) UpdateDetails(ctx context.Context, qrID string, upd repo.DetailUpdate, event *model.ScanEvent) error {
	return m.Called(ctx, qrID, upd, event).Error(0)
}
func (m *hMockLostFoundRepo) MarkFound(ctx context.Context, qrID, userID, location string, date time.Time, event *model.ScanEvent) error {
	return m.Called(ctx, qrID, userID, location, date, event).Error(0)
}

var _ repo.LostFoundRepository = (*hMockLostFoundRepo)(nil)

type hMockDesignRepo struct{ mock.Mock }

func (m *hMockDesignRepo) CreateDesign(ctx context.Context, d *model.QRDesign) error {
	return m.Called(ctx, d).Error(0)
}
func (m *hMockDesignRepo) GetDesign(ctx context.Context, id string) (*model.QRDesign, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*model.QRDesign); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockDesignRepo) ListDesignsByUser(ctx context.Context, userID string) ([]model.QRDesign, error) {
	args := m.Called(ctx, userID)
	if v, ok := args.Get(0).([]model.QRDesign); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *hMockDesignRepo) RecordUsage(ctx context.Context, u *model.QRUsage) error {
	return m.Called(ctx, u).Error(0)
}
func (m *hMockDesignRepo) ListUsage(ctx context.Context, designID string) ([]model.QRUsage, error) {
	args := m.Called(ctx, designID)
	if v, ok := args.Get(0).([]model.QRUsage); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.DesignRepository = (*hMockDesignRepo)(nil)

type hMockVerifier struct{ mock.Mock }

func (m *hMockVerifier) Verify(ctx context.Context, idToken string) (*service.GoogleClaims, error) {
	args := m.Called(ctx, idToken)
	if v, ok := args.Get(0).(*service.GoogleClaims); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ service.GoogleVerifier = (*hMockVerifier)(nil)

type hMockNotifier struct{ mock.Mock }

func (m *hMockNotifier) NotifyScan(ctx context.Context, alert service.ScanAlert) service.NotifyResult {
	return m.Called(ctx, alert).Get(0).(service.NotifyResult)
}

var _ service.Notifier = (*hMockNotifier)(nil)

// testEnv — роутер с полным набором моков под ним.
type testEnv struct {
	router   http.Handler
	cfg      *config.Config
	users    *hMockUserRepo
	lost     *hMockLostFoundRepo
	designs  *hMockDesignRepo
	verifier *hMockVerifier
	notifier *hMockNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{AuthSecret: "test-secret", FrontendBaseURL: "https://front.example.com"}
	logger := zap.NewNop().Sugar()

	env := &testEnv{
		cfg:      cfg,
		users:    &hMockUserRepo{},
		lost:     &hMockLostFoundRepo{},
		designs:  &hMockDesignRepo{},
		verifier: &hMockVerifier{},
		notifier: &hMockNotifier{},
	}

	renderer := qrgen.NewRenderer()
	userSvc := service.NewUserService(env.users, env.verifier)
	lostSvc := service.NewLostFound(env.lost, service.NewPermissionEngine(env.lost), renderer, logger, cfg.FrontendBaseURL)
	designSvc := service.NewDesignService(env.designs, renderer, logger)
	reportSvc := service.NewReportService(env.designs, env.lost, env.notifier, logger, "")

	h := handlers.NewHandler(userSvc, lostSvc, designSvc, reportSvc, logger, cfg)
	env.router = h.Router
	return env
}

func addAuthCookie(t *testing.T, req *http.Request, userID, role, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_ = middleware.SetLoginCookie(rr, userID, role, secret)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

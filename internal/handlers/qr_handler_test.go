package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quickqr/internal/model"
	"quickqr/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestQR_GenerateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ok with defaults", func(t *testing.T) {
		env.designs.ExpectedCalls = nil
		env.designs.On("CreateDesign", mock.Anything, mock.MatchedBy(func(d *model.QRDesign) bool {
			return d.Content == "example.com" && d.Size == 300 && d.ErrorCorrection == "M"
		})).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/qr/generate", strings.NewReader(`{"content":"example.com","qr_type":"url"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			QRID       string         `json:"qr_id"`
			QRCodeData string         `json:"qr_code_data"`
			Metadata   map[string]any `json:"metadata"`
		}
		require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body))
		assert.NotEmpty(t, body.QRID)
		assert.True(t, strings.HasPrefix(body.QRCodeData, "data:image/png;base64,"))
		assert.Equal(t, "https://example.com", body.Metadata["content"])
		env.designs.AssertExpectations(t)
	})

	t.Run("empty content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/qr/generate", strings.NewReader(`{"content":"  "}`))
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestQR_ContactEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.designs.On("CreateDesign", mock.Anything, mock.MatchedBy(func(d *model.QRDesign) bool {
		return d.QRType == "contact_qr" && strings.Contains(d.Content, "FN:John Doe") &&
			!strings.Contains(d.Content, "secret@example.com")
	})).Return(nil).Once()

	payload := `{"contact":{
		"full_name":{"value":"John Doe","show":true},
		"phone_number":{"value":"+386","show":true},
		"email":{"value":"secret@example.com","show":false}
	}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/qr/contact", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	env.designs.AssertExpectations(t)
}

func TestQR_MetaEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("types", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/qr/types", nil))
		assert.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Types []string `json:"types"`
		}
		_ = json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body)
		assert.Contains(t, body.Types, "url")
		assert.Contains(t, body.Types, "wifi")
	})

	t.Run("error correction levels", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/qr/error-correction-levels", nil))
		assert.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Levels  []map[string]string `json:"levels"`
			Default string              `json:"default"`
		}
		_ = json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body)
		assert.Len(t, body.Levels, 4)
		assert.Equal(t, "M", body.Default)
	})

	t.Run("validate url", func(t *testing.T) {
		for _, tc := range []struct {
			url   string
			valid bool
		}{
			{"https://example.com", true},
			{"http://localhost:8080/path", true},
			{"not a url", false},
		} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/qr/validate-url",
				strings.NewReader(`{"url":"`+tc.url+`"}`))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code)

			var body struct {
				Valid bool `json:"valid"`
			}
			_ = json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body)
			assert.Equal(t, tc.valid, body.Valid, tc.url)
		}
	})
}

func TestQR_ScanLocationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ok", func(t *testing.T) {
		env.designs.ExpectedCalls = nil
		env.lost.ExpectedCalls = nil
		env.notifier.ExpectedCalls = nil

		env.designs.On("RecordUsage", mock.Anything, mock.MatchedBy(func(u *model.QRUsage) bool {
			return u.QRDesignID == "qr-1" && u.Location != ""
		})).Return(nil).Once()
		env.lost.On("GetQR", mock.Anything, "qr-1").Return(&model.QRRecord{
			QRID: "qr-1", PhoneNumber: "+386", Email: "owner@example.com",
		}, nil).Once()
		env.notifier.On("NotifyScan", mock.Anything, mock.MatchedBy(func(a service.ScanAlert) bool {
			return a.Phone == "+386" && a.Email == "owner@example.com"
		})).Return(service.NotifyResult{SMSSent: true, EmailSent: true}).Once()

		payload := `{"qr_id":"qr-1","lat":46.05,"lng":14.5,"accuracy":10}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/location", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			SMSSent   bool `json:"sms_sent"`
			EmailSent bool `json:"email_sent"`
		}
		_ = json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body)
		assert.True(t, body.SMSSent)
		assert.True(t, body.EmailSent)
		env.notifier.AssertExpectations(t)
	})

	t.Run("notification failure does not fail request", func(t *testing.T) {
		env.designs.ExpectedCalls = nil
		env.lost.ExpectedCalls = nil
		env.notifier.ExpectedCalls = nil

		env.designs.On("RecordUsage", mock.Anything, mock.Anything).Return(nil).Once()
		env.lost.On("GetQR", mock.Anything, "qr-1").Return((*model.QRRecord)(nil), gorm.ErrRecordNotFound).Once()
		env.notifier.On("NotifyScan", mock.Anything, mock.Anything).
			Return(service.NotifyResult{SMSError: "twilio_env_missing"}).Once()

		payload := `{"qr_id":"qr-1","lat":1,"lng":2}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/location", strings.NewReader(payload))
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			SMSSent  bool   `json:"sms_sent"`
			SMSError string `json:"sms_error"`
		}
		_ = json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body)
		assert.False(t, body.SMSSent)
		assert.Equal(t, "twilio_env_missing", body.SMSError)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/location", strings.NewReader(`{"qr_id":"qr-1"}`))
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestQR_DesignEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("list requires auth", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/qr/designs", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("list returns own designs", func(t *testing.T) {
		env.designs.ExpectedCalls = nil
		env.designs.On("ListDesignsByUser", mock.Anything, "u-1").Return([]model.QRDesign{
			{ID: "d1", UserID: "u-1", QRType: "url", Content: "https://example.com"},
			{ID: "d2", UserID: "u-1", QRType: "text", Content: "hello"},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/qr/designs", nil)
		addAuthCookie(t, req, "u-1", model.RoleUser, env.cfg.AuthSecret)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Designs []struct {
				ID string `json:"id"`
			} `json:"designs"`
			Count int `json:"count"`
		}
		require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body))
		assert.Equal(t, 2, body.Count)
		require.Len(t, body.Designs, 2)
		assert.Equal(t, "d1", body.Designs[0].ID)
		env.designs.AssertExpectations(t)
	})

	t.Run("get foreign design is 404", func(t *testing.T) {
		env.designs.ExpectedCalls = nil
		env.designs.On("GetDesign", mock.Anything, "d1").Return(&model.QRDesign{
			ID: "d1", UserID: "someone-else",
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/qr/designs/d1", nil)
		addAuthCookie(t, req, "u-1", model.RoleUser, env.cfg.AuthSecret)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("usage for own design", func(t *testing.T) {
		env.designs.ExpectedCalls = nil
		env.designs.On("GetDesign", mock.Anything, "d1").Return(&model.QRDesign{
			ID: "d1", UserID: "u-1",
		}, nil).Once()
		env.designs.On("ListUsage", mock.Anything, "d1").Return([]model.QRUsage{
			{ID: "s1", QRDesignID: "d1", IPAddress: "10.0.0.1"},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/qr/designs/d1/usage", nil)
		addAuthCookie(t, req, "u-1", model.RoleUser, env.cfg.AuthSecret)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Usage []struct {
				IPAddress string `json:"ip_address"`
			} `json:"usage"`
			Count int `json:"count"`
		}
		require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&body))
		assert.Equal(t, 1, body.Count)
		require.Len(t, body.Usage, 1)
		assert.Equal(t, "10.0.0.1", body.Usage[0].IPAddress)
		env.designs.AssertExpectations(t)
	})
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

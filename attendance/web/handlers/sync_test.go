package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	atcore "tadbeer.com/hrms/attendance/core"
	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/attendance/model"
)

type fakeAdapter struct{}

func (fakeAdapter) Connect(ctx context.Context) error { return nil }
func (fakeAdapter) FetchEvents(ctx context.Context) ([]device.RawEvent, error) { return nil, nil }
func (fakeAdapter) SetMatchingEnabled(enabled bool) error { return nil }
func (fakeAdapter) Disconnect() error { return nil }

func testConnectionRouter(capture *model.Device) *gin.Engine {
	gin.SetMode(gin.TestMode)

	orch := atcore.NewOrchestrator(time.Second, atcore.Policy{}, zap.NewNop())
	orch.Adapters = func(d model.Device, _ time.Duration) (device.Adapter, error) {
		*capture = d
		return fakeAdapter{}, nil
	}

	r := gin.New()
	r.POST("/attendance/test-connection", TestConnectionHandler(orch))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestTestConnectionHandlerForwardsCredentials(t *testing.T) {
	var got model.Device
	r := testConnectionRouter(&got)

	w := postJSON(r, "/attendance/test-connection",
		`{"ip":"10.0.0.9","port":8081,"provider":"adms","username":"sync","password":"secret"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	assert.Equal(t, model.ProviderADMS, got.Provider)
	require.NotNil(t, got.Username)
	require.NotNil(t, got.Password)
	assert.Equal(t, "sync", *got.Username)
	assert.Equal(t, "secret", *got.Password)
}

func TestTestConnectionHandlerDefaults(t *testing.T) {
	var got model.Device
	r := testConnectionRouter(&got)

	w := postJSON(r, "/attendance/test-connection", `{"ip":"10.0.0.9"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4370, got.Port)
	assert.Equal(t, model.ProviderZKTeco, got.Provider)
	assert.Nil(t, got.Username)
}

func TestTestConnectionHandlerRequiresIP(t *testing.T) {
	var got model.Device
	r := testConnectionRouter(&got)

	w := postJSON(r, "/attendance/test-connection", `{"port":4370}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, http.StatusCreated, gin.H{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["data"].(map[string]any)["id"])
}

func TestServerError_HidesDetailsByDefault(t *testing.T) {
	ExposeDetails(false)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ServerError(c, "UPLOAD_FAILED", "Failed to upload file", errors.New("dial tcp: refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	errBody := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "UPLOAD_FAILED", errBody["code"])
	assert.NotContains(t, errBody, "details")
	assert.Len(t, c.Errors, 1)
}

func TestServerError_ExposesDetailsInDev(t *testing.T) {
	ExposeDetails(true)
	t.Cleanup(func() { ExposeDetails(false) })
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ServerError(c, "X", "failed", errors.New("dial tcp: refused"))

	errBody := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "dial tcp: refused", errBody["details"])
}

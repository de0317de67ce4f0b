package assessment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/risk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *testService) {
	t.Helper()
	ts := newTestService(t)
	r := gin.New()
	NewHandler(ts.Service).RegisterRoutes(r.Group("/v1"))
	return r, ts
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type checkResponse struct {
	Check View `json:"check"`
}

func decodeCheck(t *testing.T, w *httptest.ResponseRecorder) View {
	t.Helper()
	var resp checkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Check
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

func TestHandler_CheckLifecycle(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/checks", StartCheckRequest{Category: flows.CategoryMarketplace})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	check := decodeCheck(t, w)
	require.NotEmpty(t, check.ID)
	assert.Equal(t, "mp-outside-platform", check.Question.ID)

	for _, v := range []string{"no", "yes", "no"} {
		w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/answers", AnswerRequest{Value: v})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeCheck(t, w).Index)

	for _, v := range []string{"no", "no"} {
		w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/answers", AnswerRequest{Value: v})
		require.Equal(t, http.StatusOK, w.Code)
	}
	check = decodeCheck(t, w)
	assert.Equal(t, StateComplete, check.State)
	require.NotNil(t, check.Report)
	assert.Equal(t, risk.NeutralRisk, check.Report.RiskLevel)

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/answers", AnswerRequest{Value: "no"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_in_category", errorCode(t, w))

	w = doJSON(r, http.MethodGet, "/v1/checks/"+check.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/v1/checks/"+check.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, "/v1/checks/"+check.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_StartWithoutBody(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/checks", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	check := decodeCheck(t, w)
	assert.Equal(t, StateNotStarted, check.State)

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/category", SelectCategoryRequest{Category: flows.CategoryOther})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, flows.CategoryOther, decodeCheck(t, w).Category)

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StateNotStarted, decodeCheck(t, w).State)
}

func TestHandler_StartErrors(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/checks", StartCheckRequest{Category: "Not A Slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_category", errorCode(t, w))

	w = doJSON(r, http.MethodPost, "/v1/checks", StartCheckRequest{Category: "lottery"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unavailable_category", errorCode(t, w))
}

func TestHandler_BackWithNothingToUndo(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/checks", StartCheckRequest{Category: flows.CategoryGiftCard})
	check := decodeCheck(t, w)

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeCheck(t, w)
	assert.Equal(t, check.ID, got.ID)
	assert.Equal(t, check.Index, got.Index)
	assert.False(t, got.CanGoBack)
	assert.Empty(t, got.Answers)
}

func TestHandler_AnswerValidation(t *testing.T) {
	r, ts := setupRouter(t)
	ts.WithPolicy(PolicyStrict)

	w := doJSON(r, http.MethodPost, "/v1/checks", StartCheckRequest{Category: flows.CategoryMarketplace})
	check := decodeCheck(t, w)

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/answers", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/checks/"+check.ID+"/answers", AnswerRequest{Value: "perhaps"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "unknown_option", errorCode(t, w))

	w = doJSON(r, http.MethodPost, "/v1/checks/chk_missing/answers", AnswerRequest{Value: "no"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Assess(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/assess", AssessRequest{
		Category: flows.CategoryCryptoPayment,
		Answers:  []string{"friend-family", "no", "no", "yes", "no"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Report risk.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, risk.HighRisk, resp.Report.RiskLevel)
	assert.Len(t, resp.Report.RedFlags, 4)
}

func TestHandler_AssessErrors(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/assess", map[string]any{"answers": []string{"no"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/assess", AssessRequest{Category: flows.CategoryMarketplace, Answers: []string{"no"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "incomplete", errorCode(t, w))

	w = doJSON(r, http.MethodPost, "/v1/assess", AssessRequest{Category: flows.CategoryMarketplace, Answers: make([]string, 100)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "too_many_answers", errorCode(t, w))
}

package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medlink-api/internal/utils"
)

const testSecret = "handlers-test-secret"

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	t        *testing.T
	h        *Handler
	router   *gin.Engine
	partners *fakePartners
	images   *fakeImages
	users    *fakeUsers
	orders   *fakeOrders
	reviews  *fakeReviews
	payments *fakePayments
	media    *fakeMedia
	cache    *fakeCache
	events   *fakeEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		partners: newFakePartners(),
		images:   newFakeImages(),
		users:    newFakeUsers(),
		orders:   &fakeOrders{},
		reviews:  &fakeReviews{},
		payments: newFakePayments(),
		media:    &fakeMedia{},
		cache:    newFakeCache(),
		events:   &fakeEvents{},
	}
	env.h = &Handler{
		Partners:      env.partners,
		Images:        env.images,
		Users:         env.users,
		Orders:        env.orders,
		Reviews:       env.reviews,
		Payments:      env.payments,
		Media:         env.media,
		Cache:         env.cache,
		Events:        env.events,
		JWTSecret:     testSecret,
		JWTTTL:        time.Hour,
		PartnerFolder: "partners",
		UserFolder:    "users",
	}
	env.router = gin.New()
	env.h.RegisterRoutes(env.router)
	return env
}

func (env *testEnv) token(id primitive.ObjectID, roles ...string) string {
	env.t.Helper()
	tok, err := utils.GenerateJWT(id.Hex(), roles, testSecret, time.Hour)
	require.NoError(env.t, err)
	return tok
}

func (env *testEnv) adminToken() string {
	return env.token(primitive.NewObjectID(), "Admin")
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonBody(v any) (io.Reader, string) {
	data, _ := json.Marshal(v)
	return bytes.NewReader(data), "application/json"
}

// multipartBody builds a form with the given fields and, if withFile is
// set, a small "file" part.
func multipartBody(t *testing.T, fields map[string][]string, withFile bool) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if withFile {
		part, err := w.CreateFormFile("file", "logo.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (env *testEnv) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) apiResponse {
	t.Helper()
	resp := decode(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, dst), string(resp.Data))
	return resp
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	if status >= http.StatusBadRequest {
		require.False(t, decode(t, w).Success)
	}
}

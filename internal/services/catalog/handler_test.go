package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

type testServer struct {
	router   *gin.Engine
	verifier *auth.Verifier
	fixture  *fixture
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier, err := auth.NewVerifier("secret", "")
	require.NoError(t, err)

	f := newFixture()
	r := gin.New()
	r.Use(auth.Middleware(verifier))
	NewHandler(f.service, logger.Discard()).Register(r)

	return &testServer{router: r, verifier: verifier, fixture: f}
}

func (s *testServer) do(t *testing.T, req *http.Request, caller *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	if caller != nil {
		token, err := s.verifier.Issue(caller, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func photoRequest(t *testing.T, path, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_CatalogFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, jsonRequest(http.MethodPost, "/dishes", `{"name": "Borscht", "price": 150, "weight": 300}`), staff)
	require.Equal(t, http.StatusCreated, w.Code)
	var dish models.Dish
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dish))
	assert.Equal(t, "Borscht", dish.Name)

	w = s.do(t, jsonRequest(http.MethodPut, "/dishes/1", `{"price": 170}`), staff)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, photoRequest(t, "/dishes/1/photo", "borscht.png", "image/png", []byte("\x89PNG")), staff)
	require.Equal(t, http.StatusOK, w.Code)
	var upload models.PhotoUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
	assert.True(t, strings.HasPrefix(upload.PhotoURL, photoBaseURL+"/dishes/1-"))

	w = s.do(t, jsonRequest(http.MethodGet, "/dishes?min_price=100&max_price=200", ""), guest)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.DishListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Dishes, 1)
	assert.Equal(t, int64(170), list.Dishes[0].Price)
	require.NotNil(t, list.Dishes[0].Photo)
	assert.Equal(t, int64(77), *list.DraftDinnerID)

	w = s.do(t, jsonRequest(http.MethodDelete, "/dishes/1", ""), staff)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, jsonRequest(http.MethodGet, "/dishes/1", ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dish))
	assert.Equal(t, models.DishDeleted, dish.Status)
}

func TestHandler_CatalogErrors(t *testing.T) {
	s := newTestServer(t)
	s.fixture.seed("Borscht", 150)

	tests := []struct {
		name       string
		req        func() *http.Request
		caller     *auth.Identity
		wantStatus int
	}{
		{"create anonymous", func() *http.Request { return jsonRequest(http.MethodPost, "/dishes", `{"name": "X"}`) }, nil, http.StatusUnauthorized},
		{"create by guest", func() *http.Request { return jsonRequest(http.MethodPost, "/dishes", `{"name": "X"}`) }, guest, http.StatusForbidden},
		{"create invalid", func() *http.Request { return jsonRequest(http.MethodPost, "/dishes", `{"name": ""}`) }, staff, http.StatusBadRequest},
		{"bad price filter", func() *http.Request { return jsonRequest(http.MethodGet, "/dishes?min_price=cheap", "") }, nil, http.StatusBadRequest},
		{"unknown dish", func() *http.Request { return jsonRequest(http.MethodGet, "/dishes/42", "") }, nil, http.StatusNotFound},
		{"missing photo", func() *http.Request { return jsonRequest(http.MethodPost, "/dishes/1/photo", "") }, staff, http.StatusBadRequest},
		{"photo not an image", func() *http.Request {
			return photoRequest(t, "/dishes/1/photo", "notes.txt", "text/plain", []byte("hello"))
		}, staff, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.req(), tt.caller)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_PhotoUploadTransportError(t *testing.T) {
	s := newTestServer(t)
	s.fixture.seed("Borscht", 150)
	s.fixture.photos.putErr = errS3Down

	w := s.do(t, photoRequest(t, "/dishes/1/photo", "borscht.png", "image/png", []byte("\x89PNG")), staff)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// pngBytes starts with the PNG signature so content sniffing sees an image.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 17)...)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = b
	s.types[key] = contentType
	return nil
}

func (s *memStore) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "http://minio.local/devblog/" + key + "?X-Amz-Expires=" + expires.String(), nil
}

// fakeAuth attaches a fixed identity through the real middleware path.
type fakeToken struct{}

func (fakeToken) Claims(v interface{}) error {
	return json.Unmarshal([]byte(`{"sub":"u1","name":"Ada"}`), v)
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	if raw != "ok" {
		return nil, errors.New("bad token")
	}
	return fakeToken{}, nil
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(g *gin.Engine, body io.Reader, ct, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", ct)
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestUploads(t *testing.T) {
	store := newMemStore()
	g := gin.New()
	RegisterUploadRoutes(g, store, middleware.AuthMiddleware(fakeVerifier{}), 1024)

	body, ct := multipartBody(t, "Photo.PNG", "image/png", pngBytes)
	w := upload(g, body, ct, "ok")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp["key"], "posts/u1/"))
	require.True(t, strings.HasSuffix(resp["key"], ".png"))
	require.Contains(t, resp["url"], resp["key"])
	require.Equal(t, pngBytes, store.objects[resp["key"]])
	require.Equal(t, "image/png", store.types[resp["key"]])
}

func TestUploads_Rejections(t *testing.T) {
	store := newMemStore()
	g := gin.New()
	RegisterUploadRoutes(g, store, middleware.AuthMiddleware(fakeVerifier{}), 64)

	body, ct := multipartBody(t, "a.png", "image/png", []byte("x"))
	require.Equal(t, http.StatusUnauthorized, upload(g, body, ct, "").Code)

	body, ct = multipartBody(t, "a.txt", "text/plain", []byte("x"))
	require.Equal(t, http.StatusBadRequest, upload(g, body, ct, "ok").Code)

	body, ct = multipartBody(t, "big.png", "image/png", bytes.Repeat([]byte("x"), 128))
	require.Equal(t, http.StatusRequestEntityTooLarge, upload(g, body, ct, "ok").Code)

	require.Equal(t, http.StatusBadRequest, upload(g, strings.NewReader("{}"), "application/json", "ok").Code)

	store.putErr = errors.New("bucket gone")
	body, ct = multipartBody(t, "a.png", "image/png", pngBytes)
	require.Equal(t, http.StatusInternalServerError, upload(g, body, ct, "ok").Code)
	require.Empty(t, store.objects)
}

func TestUploads_SniffsContentInsteadOfTrustingHeader(t *testing.T) {
	store := newMemStore()
	g := gin.New()
	RegisterUploadRoutes(g, store, middleware.AuthMiddleware(fakeVerifier{}), 1024)

	// declared as an image, actually a script
	body, ct := multipartBody(t, "evil.png", "image/png", []byte("<script>alert(1)</script>"))
	require.Equal(t, http.StatusBadRequest, upload(g, body, ct, "ok").Code)
	require.Empty(t, store.objects)

	// a real image with a wrong declared type is stored under the detected type
	body, ct = multipartBody(t, "photo.png", "application/octet-stream", pngBytes)
	w := upload(g, body, ct, "ok")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "image/png", store.types[resp["key"]])
	require.Equal(t, pngBytes, store.objects[resp["key"]])
}

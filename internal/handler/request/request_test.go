package request

import (
	"MapHub-Backend/internal/domain"
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=13"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"name":"anna","email":"a@b.com","age":20}`, ""},
		{"malformed", `{"name":`, "body"},
		{"missing name", `{"email":"a@b.com","age":20}`, "name"},
		{"bad email", `{"name":"anna","email":"nope","age":20}`, "email"},
		{"too young", `{"name":"anna","email":"a@b.com","age":5}`, "age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst signup
			err := DecodeJSON(r, &dst)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "anna", dst.Name)
				return
			}
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.wantField, domain.FieldOf(err))
		})
	}
}

func TestIDParam(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("mapID", value)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := IDParam(withParam("42"), "mapID")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := IDParam(withParam(bad), "mapID")
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
}

func TestIntQuery(t *testing.T) {
	n, err := IntQuery(httptest.NewRequest(http.MethodGet, "/?page=3", nil), "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = IntQuery(httptest.NewRequest(http.MethodGet, "/", nil), "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = IntQuery(httptest.NewRequest(http.MethodGet, "/?page=x", nil), "page", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFormFile(t *testing.T) {
	build := func(content []byte) *http.Request {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("name", "anna"))
		if content != nil {
			part, err := w.CreateFormFile("photo", "a.png")
			require.NoError(t, err)
			_, err = part.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
		r := httptest.NewRequest(http.MethodPut, "/", &buf)
		r.Header.Set("Content-Type", w.FormDataContentType())
		return r
	}

	t.Run("present", func(t *testing.T) {
		r := build([]byte("data"))
		file, err := FormFile(r, "photo", 1024)
		require.NoError(t, err)
		require.NotNil(t, file)
		assert.Equal(t, "a.png", file.Filename)
		assert.Equal(t, []byte("data"), file.Content)
		assert.Equal(t, "anna", r.FormValue("name"))
	})

	t.Run("missing", func(t *testing.T) {
		file, err := FormFile(build(nil), "photo", 1024)
		require.NoError(t, err)
		assert.Nil(t, file)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := FormFile(build(bytes.Repeat([]byte("x"), 2048)), "photo", 1024)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("not multipart", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader("name=anna"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		file, err := FormFile(r, "photo", 1024)
		require.NoError(t, err)
		assert.Nil(t, file)
		assert.Equal(t, "anna", r.FormValue("name"))
	})
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}

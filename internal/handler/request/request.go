// Package request decodes and validates incoming API requests.
package request

import (
	"MapHub-Backend/internal/domain"
	"errors"
	"io"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// DecodeJSON reads the body into dst and validates its `validate` tags.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation("body", "invalid request format")
	}
	return Validate(dst)
}

// Validate checks the `validate` tags of v.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns the first failed rule into a field error.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return domain.Validation("body", "invalid request")
	}

	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.Validation(field, field+" is required")
	case "email":
		return domain.Validation(field, "invalid email address")
	case "min", "gte":
		return domain.Validation(field, field+" must be at least "+fe.Param())
	case "max", "lte":
		return domain.Validation(field, field+" must be at most "+fe.Param())
	case "oneof":
		return domain.Validation(field, field+" must be one of: "+fe.Param())
	default:
		return domain.Validation(field, field+" is invalid")
	}
}

// IDParam parses a positive int64 chi URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation(name, "invalid "+name)
	}
	return id, nil
}

// IntQuery parses an optional integer query parameter, returning def when absent.
func IntQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation(name, "invalid "+name)
	}
	return n, nil
}

// FormFile reads an optional multipart file. A missing field yields nil.
func FormFile(r *http.Request, field string, maxBytes int64) (*domain.Upload, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, domain.Validation(field, "invalid multipart form")
	}

	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Validation(field, "invalid file")
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, domain.Validation(field, "failed to read file")
	}
	if int64(len(content)) > maxBytes {
		return nil, domain.Validation(field, "file is too large")
	}

	return &domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// ClientIP returns the caller address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may hold a comma-separated chain
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

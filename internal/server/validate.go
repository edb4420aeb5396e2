package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	// Gameinfo ids are URL-safe base64-like strings.
	albionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// getValidator returns the shared validator. Field errors are reported by
// their query parameter name.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := f.Tag.Get("query")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		validate.RegisterValidation("albion_id", func(fl validator.FieldLevel) bool {
			return albionIDPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// FieldError describes one invalid request parameter.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func validateStruct(v any) []FieldError {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}

	out := make([]FieldError, len(ve))
	for i, fe := range ve {
		out[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translate(fe)}
	}
	return out
}

var messageTemplates = map[string]string{
	"required":  "%s is required",
	"albion_id": "%s must be a game id",
}

var messageWithParam = map[string]string{
	"oneof":    "%s must be one of: %s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"datetime": "%s must be a date in the form %s",
}

func translate(fe validator.FieldError) string {
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	if tmpl, ok := messageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// queryParams is implemented by every request struct bound from a query string.
type queryParams interface {
	read(q *queryReader)
}

// bindQuery fills dst from the request query and validates it. It writes a
// 400 response and returns false on any problem.
func bindQuery(w http.ResponseWriter, r *http.Request, dst queryParams) bool {
	qr := &queryReader{values: r.URL.Query()}
	dst.read(qr)

	errs := qr.errs
	if len(errs) == 0 {
		errs = validateStruct(dst)
	}
	if len(errs) > 0 {
		writeError(w, http.StatusBadRequest, "invalid request", errs)
		return false
	}
	return true
}

// queryReader parses typed query parameters, collecting parse errors.
type queryReader struct {
	values url.Values
	errs   []FieldError
}

func (qr *queryReader) str(key, def string) string {
	if v := strings.TrimSpace(qr.values.Get(key)); v != "" {
		return v
	}
	return def
}

// list splits a comma-separated parameter, dropping blanks and duplicates.
// The result is sorted so equivalent requests share cache entries.
func (qr *queryReader) list(key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range qr.values[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	sort.Strings(out)
	return out
}

func (qr *queryReader) integers(key string) []int {
	var out []int
	seen := make(map[int]bool)
	for _, s := range qr.list(key) {
		n, err := strconv.Atoi(s)
		if err != nil {
			qr.fail(key, "number", key+" must be a list of integers")
			return nil
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func (qr *queryReader) integer(key string, def int) int {
	raw := qr.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		qr.fail(key, "number", key+" must be an integer")
		return def
	}
	return n
}

func (qr *queryReader) number(key string, def float64) float64 {
	raw := qr.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		qr.fail(key, "number", key+" must be a number")
		return def
	}
	return f
}

func (qr *queryReader) fail(field, tag, msg string) {
	qr.errs = append(qr.errs, FieldError{Field: field, Tag: tag, Message: msg})
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hongminglow/agent-market-be/internal/apperr"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
)

const maxBodyBytes = 1 << 20

var errInvalidID = apperr.Validation("id must be a positive integer", nil)

// errMalformedJSON marks a body that is present but not decodable.
var errMalformedJSON = errors.New("invalid JSON payload")

// allowMethod writes a 405 and returns false when r.Method is not one of methods.
func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	respond.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	return false
}

// onlyMethods rejects disallowed methods before next runs, so a guarded route
// answers 405 rather than 401 for a wrong method.
func onlyMethods(next http.HandlerFunc, allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, allowed...) {
			return
		}
		next(w, r)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required", err)
		}
		return errMalformedJSON
	}
	return nil
}

// writeDecodeError reports malformed bodies as 400 and missing ones as 422.
func writeDecodeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		respond.Error(w, respond.StatusFor(appErr.Kind), appErr.Message)
		return
	}
	respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryInt reads an integer query parameter, returning def when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name+" must be an integer", err)
	}
	return v, nil
}

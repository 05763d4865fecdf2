package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/middleware"
	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/services"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

// writeError maps a service error to its status code. Internal errors are logged with
// their cause and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindUnauthenticated:
		status = http.StatusUnauthorized
	case services.KindValidation:
		status = http.StatusBadRequest
	}

	message := "internal server error"
	var svcErr *services.Error
	if status != http.StatusInternalServerError && errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		logging.Logger.Debugf("Event ID: REQUEST_REJECTED, Description: %s %s rejected with %d: %v", r.Method, r.URL.Path, status, err)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// decodeJSON reads a JSON body into dst. It writes the 400 response itself and reports
// whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(w, "request body is required")
		} else {
			badRequest(w, "invalid request payload")
		}
		logging.Logger.Warnf("Event ID: INVALID_PAYLOAD, Description: Invalid request payload for %s %s: %v", r.Method, r.URL.Path, err)
		return false
	}
	return true
}

// pathID parses the {name} route variable as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := services.ParseID(name, mux.Vars(r)[name])
	if err != nil {
		writeError(w, r, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// authOf returns the caller identity placed by the JWT middleware.
func authOf(w http.ResponseWriter, r *http.Request) (models.AuthContext, bool) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return models.AuthContext{}, false
	}
	return auth, true
}

// sourceAddress is the client address recorded on auth events.
func sourceAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"recipe-restful/auth"
	"recipe-restful/models"
	"recipe-restful/serializers"
	"recipe-restful/services"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeError(response *restful.Response, status int, message string) {
	_ = response.WriteHeaderAndJson(status, ErrorResponse{Message: message}, restful.MIME_JSON)
}

// handleServiceError translates service errors to HTTP responses.
func handleServiceError(response *restful.Response, logger *zap.Logger, err error) {
	var verr *serializers.ValidationError
	var serr *services.Error
	switch {
	case errors.As(err, &verr):
		_ = response.WriteHeaderAndJson(http.StatusBadRequest,
			ErrorResponse{Message: "Invalid input", Errors: verr.Fields}, restful.MIME_JSON)
	case errors.Is(err, services.ErrNotFound):
		message := "Not found."
		if errors.As(err, &serr) {
			message = serr.Msg
		}
		writeError(response, http.StatusNotFound, message)
	case errors.Is(err, services.ErrConflict):
		message := err.Error()
		if errors.As(err, &serr) {
			message = serr.Msg
		}
		writeError(response, http.StatusConflict, message)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(response, http.StatusUnauthorized, "Unable to authenticate with provided credentials.")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// The only foreign keys point at the owner or at the owner's rows, so the
		// account went away while the request was in flight.
		writeError(response, http.StatusUnauthorized, auth.ErrInactiveUser.Error())
	default:
		// Log the internal error for debugging
		logger.Error("unhandled service error", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "An internal error occurred")
	}
}

// readEntity decodes the JSON body into v. An empty body leaves v untouched.
func readEntity(request *restful.Request, response *restful.Response, v any) bool {
	if err := request.ReadEntity(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// requestingUser returns the user set by the auth filter, answering 401 when absent.
func requestingUser(request *restful.Request, response *restful.Response) (*models.User, bool) {
	user, ok := auth.CurrentUser(request)
	if !ok {
		writeError(response, http.StatusUnauthorized, "Unauthorized: Cannot identify requesting user")
		return nil, false
	}
	return user, true
}

// pathID parses a numeric path parameter, answering 400 when malformed.
func pathID(request *restful.Request, response *restful.Response, name string) (uint, bool) {
	id, err := strconv.ParseUint(request.PathParameter(name), 10, 32)
	if err != nil {
		writeError(response, http.StatusBadRequest, "Invalid "+strings.TrimSuffix(name, "-id")+" ID format")
		return 0, false
	}
	return uint(id), true
}

// parseIDs splits a comma-separated list of ids such as "1,2,3".
func parseIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-restful/serializers"
	"recipe-restful/services"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"Validation", serializers.NewValidationError("title", "This field is required."), http.StatusBadRequest, "Invalid input"},
		{"Not found", &services.Error{Kind: services.ErrNotFound, Msg: "recipe not found"}, http.StatusNotFound, "recipe not found"},
		{"Conflict", &services.Error{Kind: services.ErrConflict, Msg: "tag already exists"}, http.StatusConflict, "tag already exists"},
		{"Bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "Unable to authenticate with provided credentials."},
		{"Owner vanished", fmt.Errorf("failed to create recipe: %w", gorm.ErrForeignKeyViolated), http.StatusUnauthorized, "User inactive or deleted."},
		{"Unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "An internal error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(restful.NewResponse(rec), zap.NewNop(), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

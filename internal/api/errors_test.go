package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
	"github.com/yabaapp/yaba-server/internal/store"
)

func TestRegisterErrorHandler_DomainError(t *testing.T) {
	RegisterErrorHandler()

	wrapped := fmt.Errorf("fetch: %w", domainerrors.InvalidFilter("invalid sort attribute"))
	err := huma.NewError(http.StatusInternalServerError, "unexpected error", wrapped)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.GetStatus())
	assert.Equal(t, "INVALID_FILTER", apiErr.Code)
	assert.Equal(t, "invalid sort attribute", apiErr.Message)
}

func TestRegisterErrorHandler_StoreNotFound(t *testing.T) {
	RegisterErrorHandler()

	err := huma.NewError(http.StatusInternalServerError, "unexpected error", store.ErrTagNotFound)
	assert.Equal(t, http.StatusNotFound, err.GetStatus())
	assert.Equal(t, "NOT_FOUND", err.(*APIError).Code)
}

func TestRegisterErrorHandler_SchemaErrors(t *testing.T) {
	RegisterErrorHandler()

	err := huma.NewError(http.StatusUnprocessableEntity, "validation failed",
		errors.New("expected required property name to be present"))

	apiErr := err.(*APIError)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.GetStatus())
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Equal(t, []string{"expected required property name to be present"}, apiErr.Details)
}

func TestStatusToCode(t *testing.T) {
	tests := map[int]string{
		http.StatusBadRequest:          "VALIDATION",
		http.StatusUnauthorized:        "UNAUTHORIZED",
		http.StatusForbidden:           "FORBIDDEN",
		http.StatusNotFound:            "NOT_FOUND",
		http.StatusConflict:            "CONFLICT",
		http.StatusTooManyRequests:     "RATE_LIMITED",
		http.StatusInternalServerError: "INTERNAL",
	}
	for status, want := range tests {
		assert.Equal(t, want, statusToCode(status), "status %d", status)
	}
}

func TestRelabel(t *testing.T) {
	details := map[string]string{"date": "must be a recognised date"}

	got := relabel(domainerrors.ValidationWithDetails("validation failed", details), msgCouldNotUpdate)
	var de *domainerrors.Error
	require.True(t, errors.As(got, &de))
	assert.Equal(t, "Could not update transaction", de.Message)
	assert.Equal(t, details, de.Details)

	notFound := relabel(domainerrors.NotFound("transaction not found"), msgCouldNotDelete)
	assert.Equal(t, "Could not delete transaction", notFound.Error())
	assert.Equal(t, http.StatusNotFound, notFound.(*domainerrors.Error).HTTPStatus())

	consistency := domainerrors.Consistency("broken link")
	assert.Same(t, consistency, relabel(consistency, msgCouldNotDelete))

	plain := errors.New("disk full")
	assert.Equal(t, plain, relabel(plain, msgCouldNotDelete))
}

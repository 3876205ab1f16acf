package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INTERNAL_ERROR: Internal server error: boom", err.Error())
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}

func TestIsCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("post sale row: %w", NewDuplicatePosting("SALE#1", "p1"))

	assert.True(t, IsDuplicatePosting(err))
	assert.True(t, IsCode(err, CodeDuplicatePosting))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(err))
}

func TestPaymentMismatch_Details(t *testing.T) {
	err := NewPaymentMismatch(decimal.RequireFromString("200"), decimal.RequireFromString("150"))

	require.Equal(t, CodePaymentMismatch, err.Code)
	assert.Equal(t, "200", err.Details["expected"])
	assert.Equal(t, "150", err.Details["actual"])
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("x")))
}

func TestNotFound_Details(t *testing.T) {
	err := fmt.Errorf("load: %w", NewNotFound("sale", "abc"))

	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(err))
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "sale not found", appErr.Message)
	assert.Equal(t, map[string]any{"entity": "sale", "id": "abc"}, appErr.Details)
}

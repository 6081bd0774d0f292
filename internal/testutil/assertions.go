package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "budgetwise/internal/errors"
)

// AssertAppError stops the test unless err carries an *AppError with the
// given code. The matched error is returned so callers can inspect the
// message or the wrapped cause.
func AssertAppError(t *testing.T, err error, expectedCode string) *apperrors.AppError {
	t.Helper()

	require.Error(t, err, "expected error code %s", expectedCode)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, expectedCode, appErr.Code, "message: %s", appErr.Message)
	return appErr
}

// AssertNoError stops the test on any error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplateByCode(t *testing.T) {
	err := Clone(ErrAlreadyIssued, "certificate already issued for enrollment")
	wrapped := fmt.Errorf("issue: %w", err)

	require.True(t, errors.Is(wrapped, ErrAlreadyIssued))
	require.False(t, errors.Is(wrapped, ErrInvalidTransition))
	require.Equal(t, http.StatusConflict, FromError(wrapped).Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.Equal(t, ErrInternal.Code, appErr.Code)
	require.ErrorIs(t, appErr, sql.ErrConnDone)
	require.Nil(t, FromError(nil))
}

func TestWithDetailsKeepsTemplateUntouched(t *testing.T) {
	detailed := WithDetails(ErrValidation, "invalid payload", map[string]string{"link_url": "url"})
	require.Equal(t, map[string]string{"link_url": "url"}, detailed.Details)
	require.Nil(t, ErrValidation.Details)
}

func TestStorageWrapsCause(t *testing.T) {
	err := Storage(sql.ErrTxDone, "")
	require.Equal(t, ErrStorage.Code, err.Code)
	require.Equal(t, http.StatusServiceUnavailable, err.Status)
	require.ErrorIs(t, err, sql.ErrTxDone)
}

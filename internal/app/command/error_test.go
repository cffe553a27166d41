package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	require.Nil(t, WrapError("search packages", nil))

	inner := errors.New("boom")
	err := WrapError("search packages", inner)
	require.EqualError(t, err, "search packages: boom")
	require.ErrorIs(t, err, inner)

	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, "search packages", cmdErr.Msg)
}

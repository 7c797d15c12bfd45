package hooks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calyptra/watchmux/types"
)

func TestNewNop(t *testing.T) {
	h := NewNop()

	require.NotNil(t, h.OnWatchOpened)
	require.NotNil(t, h.OnWatchClosed)
	require.NotNil(t, h.OnWatchFailure)

	ctx := t.Context()
	require.NoError(t, h.OnWatchOpened(ctx, types.KindDocument, "teams/t1"))
	require.NoError(t, h.OnWatchClosed(ctx, types.KindCollection, "teams"))
	require.NoError(t, h.OnWatchFailure(ctx, types.KindDocument, "teams/t1", errors.New("boom")))
}

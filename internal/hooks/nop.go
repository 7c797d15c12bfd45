package hooks

import (
	"context"

	"github.com/calyptra/watchmux/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.WatchKind, string) error        = (*NopHooks)(nil).OnWatchOpened
	_ func(context.Context, types.WatchKind, string) error        = (*NopHooks)(nil).OnWatchClosed
	_ func(context.Context, types.WatchKind, string, error) error = (*NopHooks)(nil).OnWatchFailure
)

// NewNop creates a new no-op hooks implementation.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnWatchOpened:  h.OnWatchOpened,
		OnWatchClosed:  h.OnWatchClosed,
		OnWatchFailure: h.OnWatchFailure,
	}
}

// OnWatchOpened is a no-op implementation.
func (h *NopHooks) OnWatchOpened(ctx context.Context, kind types.WatchKind, key string) error {
	return nil
}

// OnWatchClosed is a no-op implementation.
func (h *NopHooks) OnWatchClosed(ctx context.Context, kind types.WatchKind, key string) error {
	return nil
}

// OnWatchFailure is a no-op implementation.
func (h *NopHooks) OnWatchFailure(ctx context.Context, kind types.WatchKind, key string, err error) error {
	return nil
}

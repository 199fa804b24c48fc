package logging

import (
	"context"

	"go.viam.com/utils"
)

type debugKey struct{}

// EnableDebugMode returns a context under which the CDebug methods log regardless of the logger
// level. The key tags the request; an empty key gets a random one.
func EnableDebugMode(ctx context.Context, key string) context.Context {
	if key == "" {
		key = utils.RandomAlphaString(6)
	}
	return context.WithValue(ctx, debugKey{}, key)
}

// IsDebugMode reports whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return DebugKey(ctx) != ""
}

// DebugKey returns the key given to EnableDebugMode, or "" outside debug mode.
func DebugKey(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	key, _ := ctx.Value(debugKey{}).(string)
	return key
}

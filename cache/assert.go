//go:build !grdebug

package cache

import "github.com/gogpu/gr/internal/logging"

const debugChecks = false

// misuse reports a contract violation by the caller.
func misuse(msg string, args ...any) {
	logging.L().Warn("cache: "+msg, args...)
}

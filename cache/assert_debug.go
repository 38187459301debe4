//go:build grdebug

package cache

import "fmt"

const debugChecks = true

// misuse reports a contract violation by the caller.
func misuse(msg string, args ...any) {
	panic(fmt.Sprint(append([]any{"cache: " + msg + " "}, args...)...))
}

// Package debug provides zero-allocation stderr logging for cold paths:
// directory arbitration warnings and salvage notices, and the default
// error handler's fallback when the error log cannot record an error.
// It must never be called from an agent's DoWork hot path.
package debug

import "github.com/schets/aeron/utils"

// DropError logs prefix followed by err's message, or just prefix if err
// is nil, writing directly to stderr without heap allocation.
//
//go:nosplit
//go:inline
//go:registerparams
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
}

// DropMessage logs a prefixed informational message: connection state
// changes, directory salvage notices, conclude-step warnings.
//
//go:nosplit
//go:inline
//go:registerparams
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}

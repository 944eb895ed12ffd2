package log

import (
	"context"
	"fmt"
	"strings"
)

// controlCharReplacer escapes control characters that can be used for log injection (CWE-117).
// Input rows are untrusted text, so anything echoed from them goes through SanitizeString.
var controlCharReplacer = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// SanitizeString escapes control characters in a single string value.
func SanitizeString(s string) string {
	return controlCharReplacer.Replace(s)
}

// SafeError logs errors with explicit production-aware sanitization.
// When production is true, only the error type is logged.
func SafeError(ctx context.Context, logger Logger, msg string, err error, production bool) {
	if logger == nil || err == nil {
		return
	}

	if !logger.Enabled(LevelError) {
		return
	}

	if production {
		logger.Log(ctx, LevelError, msg, String("error_type", fmt.Sprintf("%T", err)))
		return
	}

	logger.Log(ctx, LevelError, msg, Err(err))
}

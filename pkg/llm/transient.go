package llm

import "strings"

// transientPatterns are case-insensitive substrings that mark a provider
// error as transient overload, eligible for model fallback.
var transientPatterns = []string{
	"503",
	"overload",
	"unavailable",
	"capacity",
}

// IsTransient reports whether err looks like a transient provider overload.
// Callers use it to pick between the transient and terminal LLM error codes.
func IsTransient(err error) bool { return isTransient(err) }

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

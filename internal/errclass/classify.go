// Package errclass turns raised failures into routable outcomes. Classify
// is pure: it never logs and never touches the failure. Callers log the
// returned LogMessage and show the returned UserMessage.
package errclass

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"gemchat/internal/adapters/llm"
	"gemchat/internal/config"
)

type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryRateLimit      Category = "rate_limit"
	CategoryAuth           Category = "auth"
	CategoryContextService Category = "context_service"
	CategoryMissingConfig  Category = "missing_configuration"
	CategoryUnknown        Category = "unknown"
)

// Origin tags where a failure was raised. Context-service failures are
// classified by origin, not by inspecting the error, so that nothing the
// optional collaborator raises can ever be treated as fatal.
type Origin string

const (
	OriginConversation Origin = "conversation"
	OriginContext      Origin = "context_service"
	OriginStartup      Origin = "startup"
)

// Outcome is produced fresh per failure and consumed once.
type Outcome struct {
	Category    Category
	UserMessage string
	LogMessage  string
	Recoverable bool
}

// Classify maps a failure to its outcome. Ordering: context-service origin
// first (always recoverable, the context service is advisory), then missing
// configuration, auth, rate limit, network, unknown. Only auth and missing
// configuration are non-recoverable.
func Classify(err error, origin Origin) Outcome {
	logMsg := fmt.Sprintf("%s: %T: %v", origin, err, err)

	if origin == OriginContext {
		return Outcome{
			Category:    CategoryContextService,
			UserMessage: "The context service is unavailable. The conversation continues without extra context.",
			LogMessage:  logMsg,
			Recoverable: true,
		}
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		return Outcome{
			Category:    CategoryMissingConfig,
			UserMessage: fmt.Sprintf("Configuration error (%s): %s.", verr.Field, verr.Message),
			LogMessage:  logMsg,
			Recoverable: false,
		}
	}

	status := statusCode(err)
	text := err.Error()

	switch {
	case isAuth(status, text):
		return Outcome{
			Category:    CategoryAuth,
			UserMessage: "API key authentication failed. Check that your API key is set correctly.",
			LogMessage:  logMsg,
			Recoverable: false,
		}

	case isRateLimit(status, text):
		return Outcome{
			Category:    CategoryRateLimit,
			UserMessage: "The API rate limit was reached. Wait a moment and try again.",
			LogMessage:  logMsg,
			Recoverable: true,
		}

	case isNetwork(err, text):
		return Outcome{
			Category:    CategoryNetwork,
			UserMessage: "A network problem occurred while reaching the service. Check your connection and try again.",
			LogMessage:  logMsg,
			Recoverable: true,
		}

	default:
		return Outcome{
			Category:    CategoryUnknown,
			UserMessage: "An unexpected error occurred. Check the log file for details.",
			LogMessage:  logMsg,
			Recoverable: true,
		}
	}
}

func statusCode(err error) int {
	var lerr *llm.Error
	if errors.As(err, &lerr) {
		return lerr.StatusCode
	}
	return 0
}

func isAuth(status int, text string) bool {
	if status == 401 || status == 403 {
		return true
	}
	return strings.Contains(text, "401") ||
		strings.Contains(text, "403") ||
		strings.Contains(text, "Unauthorized") ||
		strings.Contains(text, "Forbidden") ||
		strings.Contains(text, "PERMISSION_DENIED") ||
		strings.Contains(text, "API key not valid")
}

func isRateLimit(status int, text string) bool {
	if status == 429 {
		return true
	}
	return strings.Contains(text, "429") ||
		strings.Contains(text, "Too Many Requests") ||
		strings.Contains(text, "RESOURCE_EXHAUSTED")
}

func isNetwork(err error, text string) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}

	return strings.Contains(text, "connection refused") ||
		strings.Contains(text, "no such host") ||
		strings.Contains(text, "i/o timeout")
}

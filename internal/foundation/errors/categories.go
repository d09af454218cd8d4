package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryValidation covers malformed or incomplete submission requests.
	CategoryValidation ErrorCategory = "validation"
	// CategoryAuth covers a submission secret that does not match the configured value.
	CategoryAuth ErrorCategory = "auth"
	// CategoryConfig covers missing process-wide credentials or bad configuration.
	CategoryConfig ErrorCategory = "config"
	// CategoryNotFound covers a round-2 lookup that finds no matching repository.
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryPrecondition covers a revision target missing its source markup.
	CategoryPrecondition ErrorCategory = "precondition"

	// CategoryGeneration covers text-generation service failures.
	CategoryGeneration ErrorCategory = "generation"
	// CategoryForge covers hosting-platform API failures (create repo, pages).
	CategoryForge ErrorCategory = "forge"
	// CategoryGit covers version-control failures (clone, commit, push).
	CategoryGit ErrorCategory = "git"
	// CategoryNotify covers evaluator webhook delivery failures.
	CategoryNotify ErrorCategory = "notify"

	CategoryWorkspace ErrorCategory = "workspace"
	CategoryInternal  ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Fails the whole request
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever   RetryStrategy = "never"   // Permanent failure, don't retry
	RetryBackoff RetryStrategy = "backoff" // Retry with backoff (transient network failures)
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}

package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for directive-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of directive errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	ValidationErrorCode
	SchemaErrorCode
	RegistrationErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case ValidationErrorCode:
		return "ValidationError"
	case SchemaErrorCode:
		return "SchemaError"
	case RegistrationErrorCode:
		return "RegistrationError"
	default:
		return "UnknownError"
	}
}

// SourceLocation represents where a directive was declared
type SourceLocation struct {
	File   string // File path, empty for directives read at runtime
	Line   int    // Line number (1-based)
	Column int    // Column inside the directive text (1-based)
}

func (l SourceLocation) String() string {
	if l.File == "" {
		if l.Column > 0 {
			return fmt.Sprintf("col %d", l.Column)
		}
		return "<directive>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Directive string         // Directive name
	Parameter string         // Parameter name that failed validation
	Expected  string         // What was expected
	Actual    string         // What was provided
	Loc       SourceLocation // Where the error occurred
	Hint      string         // Suggested fix
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s: parameter '%s' validation failed: expected %s, got %s",
		e.Loc, e.Directive, e.Parameter, e.Expected, e.Actual)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *ValidationError) Location() SourceLocation { return e.Loc }
func (e *ValidationError) Suggestion() string       { return e.Hint }
func (e *ValidationError) Code() ErrorCode          { return ValidationErrorCode }

// SyntaxError represents a syntax parsing error
type SyntaxError struct {
	Msg  string         // Error message
	Raw  string         // Directive text
	Loc  SourceLocation // Where the error occurred
	Hint string         // Suggested fix
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error in %q: %s. %s", e.Loc, e.Raw, e.Msg, e.Hint)
}

func (e *SyntaxError) Location() SourceLocation { return e.Loc }
func (e *SyntaxError) Suggestion() string       { return e.Hint }
func (e *SyntaxError) Code() ErrorCode          { return SyntaxErrorCode }

// SchemaError represents a schema-related error
type SchemaError struct {
	Msg  string         // Error message
	Loc  SourceLocation // Where the error occurred
	Hint string         // Suggested fix
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error: %s. %s", e.Loc, e.Msg, e.Hint)
}

func (e *SchemaError) Location() SourceLocation { return e.Loc }
func (e *SchemaError) Suggestion() string       { return e.Hint }
func (e *SchemaError) Code() ErrorCode          { return SchemaErrorCode }

// RegistrationError represents an error during schema registration
type RegistrationError struct {
	Msg  string // Error message
	Hint string // Suggested fix
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration error: %s. %s", e.Msg, e.Hint)
}

func (e *RegistrationError) Location() SourceLocation { return SourceLocation{} }
func (e *RegistrationError) Suggestion() string       { return e.Hint }
func (e *RegistrationError) Code() ErrorCode          { return RegistrationErrorCode }

// NewSyntaxErrorWithContext creates a syntax error with context-aware suggestions
func NewSyntaxErrorWithContext(msg, raw string, loc SourceLocation) *SyntaxError {
	return &SyntaxError{
		Msg:  msg,
		Raw:  raw,
		Loc:  loc,
		Hint: generateSyntaxSuggestion(msg, raw),
	}
}

// NewValidationErrorWithContext creates a validation error with context-aware suggestions
func NewValidationErrorWithContext(directive, parameter, expected, actual string, loc SourceLocation) *ValidationError {
	return &ValidationError{
		Directive: directive,
		Parameter: parameter,
		Expected:  expected,
		Actual:    actual,
		Loc:       loc,
		Hint:      generateValidationSuggestion(directive, parameter),
	}
}

// NewSchemaErrorWithContext creates a schema error with context-aware suggestions
func NewSchemaErrorWithContext(msg, directive string, loc SourceLocation) *SchemaError {
	return &SchemaError{
		Msg:  msg,
		Loc:  loc,
		Hint: generateSchemaSuggestion(msg, directive),
	}
}

func generateSyntaxSuggestion(msg, raw string) string {
	msg = strings.ToLower(msg)

	switch {
	case strings.TrimSpace(raw) == "":
		return "Directive must not be empty. Try: entity(User) or constructor(time.Time)"
	case strings.Contains(msg, "unexpected token \"<eof>\""):
		return "Check for a missing ')' or ']'"
	case strings.Contains(msg, "invalid input text"):
		return "Quote values containing spaces or punctuation: from='array:user id'"
	default:
		return "Format: name(positional, ..., key=value, list=[a, b])"
	}
}

func generateValidationSuggestion(directive, parameter string) string {
	switch directive + "." + parameter {
	case "entity.entity", "fromEntity.entity":
		return "Name the entity first. Example: entity(User)"
	case "entity.by", "fromEntity.by":
		return "by names the lookup column. Example: by=username"
	case "fromEntity.from":
		return "from must be '<namespace>:<key>'. Example: from=array:id"
	case "fromEntity.exclude":
		return "exclude takes a list of field names. Example: exclude=[password, token]"
	case "service.service", "service.method":
		return "Service directives need a service and a method. Example: service(Mailer, Normalize)"
	case "constructor.type":
		return "Name a registered type. Example: constructor(time.Time)"
	case "constructor.named":
		return "named is a boolean. Example: constructor(time.Time, named=true)"
	case "arrayOf.loader":
		return "Name the element loader. Example: arrayOf(constructor, time.Time)"
	default:
		return fmt.Sprintf("Check the '%s' parameter of %s", parameter, directive)
	}
}

func generateSchemaSuggestion(msg, directive string) string {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "unknown directive"):
		return "Supported directives: entity, service, constructor, arrayOf, fromEntity"
	case strings.Contains(msg, "unknown parameter"):
		if schema, ok := DefaultRegistry().Lookup(directive); ok {
			names := make([]string, 0, len(schema.Parameters))
			for _, p := range schema.Parameters {
				names = append(names, p.Name)
			}
			return fmt.Sprintf("%s supports: %s", directive, strings.Join(names, ", "))
		}
		return "Check the directive schema for supported parameters"
	case strings.Contains(msg, "not allowed here"):
		return "Loader directives go in the load tag, fromEntity goes on a blank field"
	default:
		return "Check directive schema and parameter definitions"
	}
}

package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// DirectiveKind separates field loader directives from type-level directives
type DirectiveKind int

const (
	LoaderDirective DirectiveKind = iota
	TypeDirective
)

// String returns the string representation of the directive kind
func (k DirectiveKind) String() string {
	switch k {
	case LoaderDirective:
		return "loader"
	case TypeDirective:
		return "type"
	default:
		return "unknown"
	}
}

// Directive is the root of a parsed directive, e.g. entity(User, by=username)
type Directive struct {
	Pos  lexer.Position
	Name string `parser:"@Ident"`
	Args []*Arg `parser:"( '(' ( @@ ( ',' @@ )* )? ')' )?"`
}

// Arg is a positional or named directive argument
type Arg struct {
	Pos   lexer.Position
	Name  *string `parser:"( @Ident '=' )?"`
	Value *Value  `parser:"@@"`
}

// Value is a single argument value
type Value struct {
	Pos    lexer.Position
	String *string  `parser:"  @String"`
	Number *string  `parser:"| @Number"`
	Bool   *Boolean `parser:"| @('true' | 'false')"`
	List   *List    `parser:"| @@"`
	Word   *string  `parser:"| @( Word | Ident )"`
}

// List is a bracketed value list, e.g. [username, email]
type List struct {
	Open  string   `parser:"@'['"`
	Items []*Value `parser:"( @@ ( ',' @@ )* )? ']'"`
}

// Boolean captures true/false literals
type Boolean bool

// Capture implements participle.Capture
func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

// Interface converts the value to a plain Go value: string, int64, float64, bool or []any
func (v *Value) Interface() any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return unquote(*v.String)
	case v.Number != nil:
		if i, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Bool != nil:
		return bool(*v.Bool)
	case v.List != nil:
		items := make([]any, 0, len(v.List.Items))
		for _, item := range v.List.Items {
			items = append(items, item.Interface())
		}
		return items
	case v.Word != nil:
		return *v.Word
	default:
		return nil
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}

// ParsedDirective is a directive validated against its schema with arguments in schema order
type ParsedDirective struct {
	Name string
	Kind DirectiveKind
	// Args holds one entry per schema parameter; variadic parameters are flattened at the end.
	Args []any
	Raw  string
}

// String returns the argument at position i as a string
func (p *ParsedDirective) String(i int) string {
	if i >= len(p.Args) || p.Args[i] == nil {
		return ""
	}
	if s, ok := p.Args[i].(string); ok {
		return s
	}
	return fmt.Sprint(p.Args[i])
}

// Bool returns the argument at position i as a bool
func (p *ParsedDirective) Bool(i int) bool {
	if i >= len(p.Args) {
		return false
	}
	b, _ := p.Args[i].(bool)
	return b
}

// StringSlice returns the argument at position i as a string slice
func (p *ParsedDirective) StringSlice(i int) []string {
	if i >= len(p.Args) {
		return nil
	}
	s, _ := p.Args[i].([]string)
	return s
}

// Rest returns the arguments from position i onwards
func (p *ParsedDirective) Rest(i int) []any {
	if i >= len(p.Args) {
		return nil
	}
	return append([]any(nil), p.Args[i:]...)
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	IntType
	StringSliceType
	AnyType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case StringSliceType:
		return "[]string"
	case AnyType:
		return "any"
	default:
		return "unknown"
	}
}

// ParameterSpec defines one ordered parameter of a directive
type ParameterSpec struct {
	Name         string
	Type         ParameterType
	Required     bool
	DefaultValue any
	// Variadic collects every remaining positional argument. Only valid on the last parameter.
	Variadic bool
	// Element marks the parameter naming another loader directive; the arguments after it
	// are normalized against that directive's schema.
	Element     bool
	Description string
	Validator   func(any) error
}

// DirectiveSchema defines the schema for a directive name
type DirectiveSchema struct {
	Name        string
	Aliases     []string
	Kind        DirectiveKind
	Description string
	Parameters  []ParameterSpec
	Examples    []string
}

// Parameter returns the spec and position of the named parameter
func (s DirectiveSchema) Parameter(name string) (ParameterSpec, int, bool) {
	for i, p := range s.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p, i, true
		}
	}
	return ParameterSpec{}, -1, false
}

// Type conversion utilities

// ConvertToString converts a scalar value to a string
func ConvertToString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", value)
	}
}

// ConvertToBool converts various types to boolean
func ConvertToBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return parseBoolString(v)
	case int64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// ConvertToInt converts various types to integer
func ConvertToInt(value any) (int, error) {
	switch v := value.(type) {
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

// ConvertToStringSlice converts a list or a single scalar to a string slice
func ConvertToStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			s, err := ConvertToString(item)
			if err != nil {
				return nil, err
			}
			result = append(result, s)
		}
		return result, nil
	case string:
		if v == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to []string", value)
	}
}

func parseBoolString(s string) (bool, error) {
	switch s {
	case "true", "True", "TRUE", "1", "yes", "Yes", "YES", "on", "On", "ON":
		return true, nil
	case "false", "False", "FALSE", "0", "no", "No", "NO", "off", "Off", "OFF":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s", s)
	}
}

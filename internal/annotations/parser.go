package annotations

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Parser parses directive text into schema-normalized directives
type Parser struct {
	parser   *participle.Parser[Directive]
	registry DirectiveRegistry
	cache    sync.Map // parseKey -> *ParsedDirective
}

type parseKey struct {
	kind DirectiveKind
	raw  string
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'[^']*'`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?`},
	{Name: "Word", Pattern: `[A-Za-z_*][A-Za-z0-9_.*/\-]*(:[A-Za-z0-9_.*/\-]+)+`},
	{Name: "Ident", Pattern: `\*?[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "Punct", Pattern: `[()\[\],=]`},
})

// NewParser creates a parser validating against the given registry
func NewParser(registry DirectiveRegistry) *Parser {
	return &Parser{
		parser: participle.MustBuild[Directive](
			participle.Lexer(directiveLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
		registry: registry,
	}
}

var (
	defaultParser     *Parser
	defaultParserOnce sync.Once
)

// DefaultParser returns a parser bound to DefaultRegistry
func DefaultParser() *Parser {
	defaultParserOnce.Do(func() {
		defaultParser = NewParser(DefaultRegistry())
	})
	return defaultParser
}

// Parse parses text with the default parser
func Parse(kind DirectiveKind, text string) (*ParsedDirective, error) {
	return DefaultParser().Parse(kind, text)
}

// Parse parses and normalizes a directive of the given kind. Results are memoized by text;
// callers must not modify the returned directive.
func (p *Parser) Parse(kind DirectiveKind, text string) (*ParsedDirective, error) {
	raw := strings.TrimSpace(text)
	key := parseKey{kind: kind, raw: raw}
	if cached, ok := p.cache.Load(key); ok {
		return cached.(*ParsedDirective), nil
	}

	if raw == "" {
		return nil, NewSyntaxErrorWithContext("empty directive", raw, SourceLocation{Column: 1})
	}

	ast, err := p.parser.ParseString("", raw)
	if err != nil {
		loc := SourceLocation{Column: 1}
		msg := err.Error()
		var perr participle.Error
		if errors.As(err, &perr) {
			loc.Column = perr.Position().Column
			msg = perr.Message()
		}
		return nil, NewSyntaxErrorWithContext(msg, raw, loc)
	}

	parsed, err := p.normalize(kind, ast, raw)
	if err != nil {
		return nil, err
	}

	actual, _ := p.cache.LoadOrStore(key, parsed)
	return actual.(*ParsedDirective), nil
}

func (p *Parser) normalize(kind DirectiveKind, ast *Directive, raw string) (*ParsedDirective, error) {
	schema, err := p.registry.GetSchema(kind, ast.Name)
	if err != nil {
		msg := fmt.Sprintf("unknown directive '%s'", ast.Name)
		if other, ok := p.registry.Lookup(ast.Name); ok && other.Kind != kind {
			msg = fmt.Sprintf("%s directive '%s' not allowed here", other.Kind, ast.Name)
		}
		return nil, NewSchemaErrorWithContext(msg, ast.Name, SourceLocation{Column: ast.Pos.Column})
	}

	args, err := p.normalizeArgs(schema, ast.Args, ast.Pos)
	if err != nil {
		return nil, err
	}

	return &ParsedDirective{
		Name: schema.Name,
		Kind: schema.Kind,
		Args: args,
		Raw:  raw,
	}, nil
}

// normalizeArgs orders positional and named arguments by the schema parameters.
func (p *Parser) normalizeArgs(schema DirectiveSchema, args []*Arg, pos lexer.Position) ([]any, error) {
	var positional []*Arg
	named := make(map[string]*Arg)
	var namedOrder []string

	for _, arg := range args {
		if arg.Name == nil {
			if len(named) > 0 {
				return nil, &SyntaxError{
					Msg:  "positional argument after named argument",
					Raw:  schema.Name,
					Loc:  SourceLocation{Column: arg.Pos.Column},
					Hint: "Put positional arguments first: name(a, b, key=value)",
				}
			}
			positional = append(positional, arg)
			continue
		}
		key := strings.ToLower(*arg.Name)
		if _, dup := named[key]; dup {
			return nil, NewValidationErrorWithContext(schema.Name, *arg.Name, "a single value", "duplicate argument",
				SourceLocation{Column: arg.Pos.Column})
		}
		named[key] = arg
		namedOrder = append(namedOrder, key)
	}

	result := make([]any, 0, len(schema.Parameters))
	for i, param := range schema.Parameters {
		if param.Variadic {
			for _, arg := range positional[min(i, len(positional)):] {
				result = append(result, arg.Value.Interface())
			}
			positional = positional[:min(i, len(positional))]
			if n, ok := named[strings.ToLower(param.Name)]; ok {
				if list, isList := n.Value.Interface().([]any); isList {
					result = append(result, list...)
				} else {
					result = append(result, n.Value.Interface())
				}
				delete(named, strings.ToLower(param.Name))
			}
			continue
		}

		var arg *Arg
		if i < len(positional) {
			arg = positional[i]
			if _, dup := named[strings.ToLower(param.Name)]; dup {
				return nil, NewValidationErrorWithContext(schema.Name, param.Name, "a single value",
					"both positional and named values", SourceLocation{Column: arg.Pos.Column})
			}
		} else if n, ok := named[strings.ToLower(param.Name)]; ok {
			arg = n
			delete(named, strings.ToLower(param.Name))
		}

		if arg == nil {
			if param.Required {
				return nil, NewValidationErrorWithContext(schema.Name, param.Name, "a value", "nothing",
					SourceLocation{Column: pos.Column})
			}
			result = append(result, param.DefaultValue)
			continue
		}

		value, err := convertParameter(param, arg.Value.Interface())
		if err != nil {
			return nil, NewValidationErrorWithContext(schema.Name, param.Name, param.Type.String(), err.Error(),
				SourceLocation{Column: arg.Pos.Column})
		}
		if param.Validator != nil {
			if err := param.Validator(value); err != nil {
				return nil, NewValidationErrorWithContext(schema.Name, param.Name, param.Description, err.Error(),
					SourceLocation{Column: arg.Pos.Column})
			}
		}
		result = append(result, value)

		if param.Element {
			return p.normalizeElement(schema, result, value.(string), positional[min(i+1, len(positional)):], named, namedOrder, arg.Pos)
		}
	}

	if len(positional) > len(schema.Parameters) {
		extra := positional[len(schema.Parameters)]
		return nil, NewSchemaErrorWithContext(
			fmt.Sprintf("too many arguments for %s: expected at most %d", schema.Name, len(schema.Parameters)),
			schema.Name, SourceLocation{Column: extra.Pos.Column})
	}

	for _, key := range namedOrder {
		if arg, left := named[key]; left {
			if _, _, known := schema.Parameter(key); !known {
				return nil, NewSchemaErrorWithContext(fmt.Sprintf("unknown parameter '%s'", *arg.Name), schema.Name,
					SourceLocation{Column: arg.Pos.Column})
			}
		}
	}

	return result, nil
}

// normalizeElement forwards the remaining arguments to the element loader's schema.
func (p *Parser) normalizeElement(schema DirectiveSchema, head []any, element string, rest []*Arg,
	named map[string]*Arg, namedOrder []string, pos lexer.Position) ([]any, error) {
	elementSchema, err := p.registry.GetSchema(LoaderDirective, element)
	if err != nil {
		return nil, NewValidationErrorWithContext(schema.Name, "loader", "a loader directive name",
			fmt.Sprintf("'%s'", element), SourceLocation{Column: pos.Column})
	}

	forwarded := append([]*Arg(nil), rest...)
	for _, key := range namedOrder {
		if arg, ok := named[key]; ok {
			forwarded = append(forwarded, arg)
		}
	}

	elementArgs, err := p.normalizeArgs(elementSchema, forwarded, pos)
	if err != nil {
		return nil, err
	}

	head[len(head)-1] = elementSchema.Name
	return append(head, elementArgs...), nil
}

func convertParameter(param ParameterSpec, value any) (any, error) {
	switch param.Type {
	case StringType:
		return ConvertToString(value)
	case BoolType:
		return ConvertToBool(value)
	case IntType:
		return ConvertToInt(value)
	case StringSliceType:
		return ConvertToStringSlice(value)
	default:
		return value, nil
	}
}

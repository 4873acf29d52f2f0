package annotations

import (
	"fmt"
	"strings"
)

// Loader directive names
const (
	EntityName      = "entity"
	ServiceName     = "service"
	ConstructorName = "constructor"
	ArrayOfName     = "arrayOf"
	FromEntityName  = "fromEntity"
)

// Built-in directive schemas

// EntitySchema defines the schema for entity(...) loader directives
var EntitySchema = DirectiveSchema{
	Name:        EntityName,
	Kind:        LoaderDirective,
	Description: "Loads an entity from its repository by a single column",
	Parameters: []ParameterSpec{
		{
			Name:        "entity",
			Type:        StringType,
			Required:    true,
			Description: "Entity name the repository is registered under",
			Validator:   notBlank,
		},
		{
			Name:         "by",
			Type:         StringType,
			DefaultValue: "id",
			Description:  "Column the input value is matched against",
			Validator:    notBlank,
		},
	},
	Examples: []string{
		"entity(User)",
		"entity(User, by=username)",
	},
}

// ServiceSchema defines the schema for service(...) loader directives
var ServiceSchema = DirectiveSchema{
	Name:        ServiceName,
	Kind:        LoaderDirective,
	Description: "Calls a method on a container service with the input value as first argument",
	Parameters: []ParameterSpec{
		{
			Name:        "service",
			Type:        StringType,
			Required:    true,
			Description: "Service name in the container",
			Validator:   notBlank,
		},
		{
			Name:        "method",
			Type:        StringType,
			Required:    true,
			Description: "Exported method to call",
			Validator:   notBlank,
		},
		{
			Name:        "args",
			Type:        AnyType,
			Variadic:    true,
			Description: "Extra arguments passed after the input value",
		},
	},
	Examples: []string{
		"service(Multiplier, Double)",
		"service(Multiplier, Multiply, 10)",
	},
}

// ConstructorSchema defines the schema for constructor(...) loader directives
var ConstructorSchema = DirectiveSchema{
	Name:        ConstructorName,
	Kind:        LoaderDirective,
	Description: "Builds a value of a registered type from the input value",
	Parameters: []ParameterSpec{
		{
			Name:        "type",
			Type:        StringType,
			Required:    true,
			Description: "Registered type name or alias, e.g. time.Time",
			Validator:   notBlank,
		},
		{
			Name:         "named",
			Type:         BoolType,
			DefaultValue: false,
			Description:  "Pass a keyed input as named arguments",
		},
	},
	Examples: []string{
		"constructor(time.Time)",
		"constructor(DateTimeImmutable, named=true)",
	},
}

// ArrayOfSchema defines the schema for arrayOf(...) loader directives
var ArrayOfSchema = DirectiveSchema{
	Name:        ArrayOfName,
	Kind:        LoaderDirective,
	Description: "Applies another loader to every element of a list input",
	Parameters: []ParameterSpec{
		{
			Name:        "loader",
			Type:        StringType,
			Required:    true,
			Element:     true,
			Description: "Element loader name: entity, service or constructor",
		},
		{
			Name:        "args",
			Type:        AnyType,
			Variadic:    true,
			Description: "Arguments of the element loader",
		},
	},
	Examples: []string{
		"arrayOf(constructor, time.Time)",
		"arrayOf(entity, User, by=username)",
	},
}

// FromEntitySchema defines the schema for the type-level entity directive
var FromEntitySchema = DirectiveSchema{
	Name:        FromEntityName,
	Aliases:     []string{EntityName},
	Kind:        TypeDirective,
	Description: "Bootstraps the whole struct from an entity found by one input key",
	Parameters: []ParameterSpec{
		{
			Name:        "entity",
			Type:        StringType,
			Required:    true,
			Description: "Entity name the repository is registered under",
			Validator:   notBlank,
		},
		{
			Name:        "from",
			Type:        StringType,
			Required:    true,
			Description: "Input source '<namespace>:<key>' holding the lookup value",
			Validator:   ValidateSource,
		},
		{
			Name:         "by",
			Type:         StringType,
			DefaultValue: "id",
			Description:  "Column the input value is matched against",
			Validator:    notBlank,
		},
		{
			Name:         "exclude",
			Type:         StringSliceType,
			DefaultValue: []string{},
			Description:  "Entity fields that are not copied",
		},
	},
	Examples: []string{
		"fromEntity(User, from=array:id)",
		"entity(User, from=query:name, by=username, exclude=[password])",
	},
}

// BuiltinSchemas lists every schema registered by RegisterBuiltinSchemas
var BuiltinSchemas = []DirectiveSchema{
	EntitySchema,
	ServiceSchema,
	ConstructorSchema,
	ArrayOfSchema,
	FromEntitySchema,
}

// RegisterBuiltinSchemas registers all built-in directive schemas
func RegisterBuiltinSchemas(registry DirectiveRegistry) error {
	for _, schema := range BuiltinSchemas {
		if err := registry.Register(schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Name, err)
		}
	}
	return nil
}

// ValidateSource checks a '<namespace>:<key>' source string
func ValidateSource(v any) error {
	s, _ := v.(string)
	ns, key, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("source %q must be '<namespace>:<key>'", s)
	}
	if ns == "" || key == "" {
		return fmt.Errorf("source %q has an empty namespace or key", s)
	}
	return nil
}

func notBlank(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

package annotations

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DirectiveRegistry defines the interface for managing directive schemas
type DirectiveRegistry interface {
	// Register a new directive with its schema
	Register(schema DirectiveSchema) error

	// GetSchema retrieves the schema for a directive name of the given kind
	GetSchema(kind DirectiveKind, name string) (DirectiveSchema, error)

	// Lookup finds a schema by name regardless of kind
	Lookup(name string) (DirectiveSchema, bool)

	// List returns all registered schemas of a kind, sorted by name
	List(kind DirectiveKind) []DirectiveSchema

	// IsRegistered checks if a directive name is registered for a kind
	IsRegistered(kind DirectiveKind, name string) bool
}

type registryKey struct {
	kind DirectiveKind
	name string
}

// registry is the concrete implementation of DirectiveRegistry
type registry struct {
	mu      sync.RWMutex                      // Protects concurrent access
	schemas map[registryKey]DirectiveSchema   // Schema storage, keyed by lowercased name and alias
	order   map[DirectiveKind][]DirectiveSchema
}

// NewRegistry creates a new, empty directive registry
func NewRegistry() DirectiveRegistry {
	return &registry{
		schemas: make(map[registryKey]DirectiveSchema),
		order:   make(map[DirectiveKind][]DirectiveSchema),
	}
}

var (
	defaultRegistry     DirectiveRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global registry with the builtin schemas registered
func DefaultRegistry() DirectiveRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		if err := RegisterBuiltinSchemas(defaultRegistry); err != nil {
			panic(fmt.Sprintf("failed to register builtin directive schemas: %v", err))
		}
	})
	return defaultRegistry
}

// Register adds a directive schema under its name and aliases
func (r *registry) Register(schema DirectiveSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schema.Name == "" {
		return &RegistrationError{Msg: "directive name cannot be empty", Hint: "Set DirectiveSchema.Name"}
	}

	if err := r.validateSchema(schema); err != nil {
		return &RegistrationError{
			Msg:  fmt.Sprintf("invalid schema for %s: %v", schema.Name, err),
			Hint: "Fix the parameter definitions",
		}
	}

	names := append([]string{schema.Name}, schema.Aliases...)
	for _, name := range names {
		key := registryKey{kind: schema.Kind, name: strings.ToLower(name)}
		if _, exists := r.schemas[key]; exists {
			return &RegistrationError{
				Msg:  fmt.Sprintf("%s directive %s is already registered", schema.Kind, name),
				Hint: "Use a different directive name",
			}
		}
	}

	for _, name := range names {
		r.schemas[registryKey{kind: schema.Kind, name: strings.ToLower(name)}] = schema
	}
	r.order[schema.Kind] = append(r.order[schema.Kind], schema)
	return nil
}

// GetSchema retrieves the schema for a directive name of the given kind
func (r *registry) GetSchema(kind DirectiveKind, name string) (DirectiveSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[registryKey{kind: kind, name: strings.ToLower(name)}]
	if !exists {
		return DirectiveSchema{}, fmt.Errorf("unknown directive %q for %s directives", name, kind)
	}

	return schema, nil
}

// Lookup finds a schema by name, preferring loader directives
func (r *registry) Lookup(name string) (DirectiveSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range []DirectiveKind{LoaderDirective, TypeDirective} {
		if schema, ok := r.schemas[registryKey{kind: kind, name: strings.ToLower(name)}]; ok {
			return schema, true
		}
	}
	return DirectiveSchema{}, false
}

// List returns all registered schemas of a kind
func (r *registry) List(kind DirectiveKind) []DirectiveSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := append([]DirectiveSchema(nil), r.order[kind]...)
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// IsRegistered checks if a directive name is registered for a kind
func (r *registry) IsRegistered(kind DirectiveKind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[registryKey{kind: kind, name: strings.ToLower(name)}]
	return exists
}

// validateSchema performs basic validation on a schema
func (r *registry) validateSchema(schema DirectiveSchema) error {
	seen := make(map[string]bool, len(schema.Parameters))
	for i, paramSpec := range schema.Parameters {
		if paramSpec.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if seen[strings.ToLower(paramSpec.Name)] {
			return fmt.Errorf("duplicate parameter %s", paramSpec.Name)
		}
		seen[strings.ToLower(paramSpec.Name)] = true

		if paramSpec.Type < StringType || paramSpec.Type > AnyType {
			return fmt.Errorf("invalid parameter type for %s: %d", paramSpec.Name, paramSpec.Type)
		}

		if (paramSpec.Variadic || paramSpec.Element) && i != len(schema.Parameters)-1 &&
			!(paramSpec.Element && i == len(schema.Parameters)-2 && schema.Parameters[i+1].Variadic) {
			return fmt.Errorf("parameter %s must be last", paramSpec.Name)
		}

		if paramSpec.DefaultValue != nil {
			if err := r.validateDefaultValue(paramSpec.Name, paramSpec.Type, paramSpec.DefaultValue); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateDefaultValue checks if the default value matches the parameter type
func (r *registry) validateDefaultValue(paramName string, paramType ParameterType, defaultValue any) error {
	switch paramType {
	case StringType:
		if _, ok := defaultValue.(string); !ok {
			return fmt.Errorf("default value for string parameter %s must be string, got %T", paramName, defaultValue)
		}
	case BoolType:
		if _, ok := defaultValue.(bool); !ok {
			return fmt.Errorf("default value for bool parameter %s must be bool, got %T", paramName, defaultValue)
		}
	case IntType:
		if _, ok := defaultValue.(int); !ok {
			return fmt.Errorf("default value for int parameter %s must be int, got %T", paramName, defaultValue)
		}
	case StringSliceType:
		if _, ok := defaultValue.([]string); !ok {
			return fmt.Errorf("default value for []string parameter %s must be []string, got %T", paramName, defaultValue)
		}
	case AnyType:
	default:
		return fmt.Errorf("unknown parameter type for %s: %d", paramName, paramType)
	}

	return nil
}

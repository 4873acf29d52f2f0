package input

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// MappingFile is the YAML document read by YAMLReader:
//
//	types:
//	  example.com/app.UserInput:
//	    entity: entity(User, from=query:id, exclude=[password])
//	    fields:
//	      Name:
//	        from: data:name
//	        load: service(Names, Normalize)
type MappingFile struct {
	Types map[string]TypeMapping `yaml:"types"`
}

// TypeMapping declares the directives of one type
type TypeMapping struct {
	Entity *EntityMapping           `yaml:"entity,omitempty"`
	Fields map[string]FieldMapping `yaml:"fields,omitempty"`
}

// FieldMapping declares the directives of one field
type FieldMapping struct {
	From string `yaml:"from"`
	Load string `yaml:"load,omitempty"`
}

// EntityMapping is either a directive string or a FromEntity mapping
type EntityMapping struct {
	FromEntity
}

// UnmarshalYAML accepts a directive scalar or a mapping node.
func (e *EntityMapping) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var directive string
		if err := node.Decode(&directive); err != nil {
			return err
		}
		parsed, err := ParseFromEntity(directive)
		if err != nil {
			return err
		}
		e.FromEntity = *parsed
		return nil
	case yaml.MappingNode:
		var fe FromEntity
		if err := node.Decode(&fe); err != nil {
			return err
		}
		if fe.Entity == "" || fe.From == "" {
			return fmt.Errorf("line %d: entity mapping needs 'entity' and 'from'", node.Line)
		}
		if _, _, err := (From{Source: fe.From}).Split(); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		e.FromEntity = fe
		return nil
	default:
		return fmt.Errorf("line %d: expected directive string or mapping, got %v", node.Line, node.Kind)
	}
}

// YAMLReader serves directives declared out of band in a MappingFile.
// Types are keyed by TypeIdentity or by their short name (pkg.Type).
type YAMLReader struct {
	file    *MappingFile
	loaders map[string]map[string]Loader
}

// LoadYAMLFile reads and parses a mapping file
func LoadYAMLFile(path string) (*YAMLReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a mapping document. Loader directives are parsed eagerly so that
// errors surface here rather than during mapping.
func ParseYAML(data []byte) (*YAMLReader, error) {
	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, &ConfigurationError{Msg: "failed to parse mapping YAML", Err: err}
	}

	r := &YAMLReader{file: &mf, loaders: make(map[string]map[string]Loader)}
	for typeName, tm := range mf.Types {
		for fieldName, fm := range tm.Fields {
			if fm.Load == "" {
				continue
			}
			loader, err := ParseLoader(fm.Load)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typeName, fieldName, err)
			}
			if r.loaders[typeName] == nil {
				r.loaders[typeName] = make(map[string]Loader)
			}
			r.loaders[typeName][fieldName] = loader
		}
	}
	return r, nil
}

// File returns the parsed document
func (r *YAMLReader) File() *MappingFile {
	return r.file
}

func (r *YAMLReader) typeKey(owner reflect.Type) (string, bool) {
	owner = structType(owner)
	if owner == nil {
		return "", false
	}
	for _, key := range []string{TypeIdentity(owner), owner.String()} {
		if _, ok := r.file.Types[key]; ok {
			return key, true
		}
	}
	return "", false
}

// From implements Reader
func (r *YAMLReader) From(owner reflect.Type, field reflect.StructField) (*From, error) {
	key, ok := r.typeKey(owner)
	if !ok {
		return nil, nil
	}
	fm, ok := r.file.Types[key].Fields[field.Name]
	if !ok || fm.From == "" {
		return nil, nil
	}
	return &From{Source: fm.From}, nil
}

// Loader implements Reader
func (r *YAMLReader) Loader(owner reflect.Type, field reflect.StructField) (Loader, error) {
	key, ok := r.typeKey(owner)
	if !ok {
		return nil, nil
	}
	return r.loaders[key][field.Name], nil
}

// Entity implements Reader
func (r *YAMLReader) Entity(owner reflect.Type) (*FromEntity, error) {
	key, ok := r.typeKey(owner)
	if !ok || r.file.Types[key].Entity == nil {
		return nil, nil
	}
	fe := r.file.Types[key].Entity.FromEntity
	return &fe, nil
}

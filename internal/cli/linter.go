package cli

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"reflect"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/axon-input/pkg/input"
)

// LoadMode specifies what information to load from packages
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Severity of a lint finding
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is a problem with one directive
type Finding struct {
	Severity Severity
	Pos      token.Position
	Type     string
	Field    string
	Message  string
	Hint     string
}

func (f Finding) String() string {
	subject := f.Type
	if f.Field != "" {
		subject += "." + f.Field
	}
	switch {
	case f.Pos.IsValid():
		return fmt.Sprintf("%s: %s: %s", f.Pos, subject, f.Message)
	case f.Pos.Filename != "":
		return fmt.Sprintf("%s: %s: %s", f.Pos.Filename, subject, f.Message)
	default:
		return fmt.Sprintf("%s: %s", subject, f.Message)
	}
}

// FieldDirectives are the directives of one mapped field
type FieldDirectives struct {
	Name   string
	From   string
	Loader input.Loader
}

// TypeDirectives are the directives declared for one struct type
type TypeDirectives struct {
	Identity string
	Entity   *input.FromEntity
	Fields   []FieldDirectives
}

// Report is the outcome of a lint run
type Report struct {
	Packages int
	Types    []TypeDirectives
	Findings []Finding
}

// Errors counts error findings
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings counts warning findings
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

// Fields counts mapped fields across all types
func (r *Report) Fields() int {
	n := 0
	for _, t := range r.Types {
		n += len(t.Fields)
	}
	return n
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Linter statically checks input directives in Go packages and an optional YAML mapping
type Linter struct {
	fromTag, loadTag, entityTag string

	dir         string
	mapping     *input.YAMLReader
	mappingPath string
	registry    *input.TypeRegistry
	extraTypes  map[string]bool
}

// NewLinter creates a linter reading the tag names of tags; nil uses the defaults
func NewLinter(tags *input.TagReader) *Linter {
	if tags == nil {
		tags = input.NewTagReader()
	}
	return &Linter{
		fromTag:    orDefault(tags.FromTag, input.DefaultFromTag),
		loadTag:    orDefault(tags.LoadTag, input.DefaultLoadTag),
		entityTag:  orDefault(tags.EntityTag, input.DefaultEntityTag),
		registry:   input.NewTypeRegistry(),
		extraTypes: make(map[string]bool),
	}
}

// WithDir sets the directory package patterns are resolved from
func (l *Linter) WithDir(dir string) *Linter {
	l.dir = dir
	return l
}

// WithKnownTypes accepts constructor type names registered by the application
func (l *Linter) WithKnownTypes(names ...string) *Linter {
	for _, name := range names {
		l.extraTypes[name] = true
	}
	return l
}

// WithMapping loads a YAML mapping whose directives are checked alongside the struct tags
func (l *Linter) WithMapping(path string) error {
	mapping, err := input.LoadYAMLFile(path)
	if err != nil {
		return err
	}
	l.mapping = mapping
	l.mappingPath = path
	return nil
}

// Lint loads the packages matching patterns and checks every directive
func (l *Linter) Lint(ctx context.Context, patterns ...string) (*Report, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     l.dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	report := &Report{}
	matched := make(map[string]bool)
	for _, pkg := range pkgs {
		report.Packages++
		l.lintPackage(pkg, report, matched)
	}
	l.lintUnmatchedMappings(report, matched)
	return report, nil
}

func (l *Linter) lintPackage(pkg *packages.Package, report *Report, matched map[string]bool) {
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || typeName.IsAlias() {
			continue
		}
		st, ok := typeName.Type().Underlying().(*types.Struct)
		if !ok {
			continue
		}

		identity := pkg.PkgPath + "." + name
		mapping, key := l.typeMapping(identity, pkg.Name+"."+name)
		if key != "" {
			matched[key] = true
		}

		td := l.lintStruct(pkg.Fset, identity, st, mapping, report)
		if td.Entity != nil || len(td.Fields) > 0 {
			report.Types = append(report.Types, td)
		}
	}
}

func (l *Linter) typeMapping(keys ...string) (*input.TypeMapping, string) {
	if l.mapping == nil {
		return nil, ""
	}
	for _, key := range keys {
		if tm, ok := l.mapping.File().Types[key]; ok {
			return &tm, key
		}
	}
	return nil, ""
}

func (l *Linter) lintStruct(fset *token.FileSet, identity string, st *types.Struct, mapping *input.TypeMapping, report *Report) TypeDirectives {
	td := TypeDirectives{Identity: identity}
	at := func(pos token.Position, field string) *site {
		return &site{report: report, pos: pos, typ: identity, field: field}
	}
	mappingPos := token.Position{Filename: l.mappingPath}

	names := make(map[string]bool, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))
		pos := fset.Position(field.Pos())
		names[field.Name()] = true

		if field.Name() == "_" {
			if raw, ok := tag.Lookup(l.entityTag); ok && td.Entity == nil {
				td.Entity = l.lintEntity(at(pos, ""), raw)
			}
			continue
		}

		from, hasFrom := tag.Lookup(l.fromTag)
		load, hasLoad := tag.Lookup(l.loadTag)
		if mapping != nil {
			if fm, ok := mapping.Fields[field.Name()]; ok {
				if fm.From != "" {
					from, hasFrom, pos = fm.From, true, mappingPos
				}
				if fm.Load != "" {
					load, hasLoad, pos = fm.Load, true, mappingPos
				}
			}
		}
		s := at(pos, field.Name())

		if hasFrom && !field.Exported() {
			s.add(SeverityWarning, "unexported fields are never mapped", "export the field or remove the directive")
			continue
		}
		if hasLoad && !hasFrom {
			s.add(SeverityWarning, fmt.Sprintf("%s directive without a %s source is ignored", l.loadTag, l.fromTag), "")
		}
		if !hasFrom {
			continue
		}

		fd := FieldDirectives{Name: field.Name(), From: from}
		if _, _, err := (input.From{Source: from}).Split(); err != nil {
			s.add(SeverityError, err.Error(), "sources are written namespace:key, e.g. query:id or data:user.name")
		}
		if hasLoad {
			loader, err := input.ParseLoader(load)
			if err != nil {
				s.addErr(err)
			} else {
				fd.Loader = loader
				l.lintLoader(s, loader)
			}
		}
		td.Fields = append(td.Fields, fd)
	}

	if mapping != nil {
		if mapping.Entity != nil {
			fe := mapping.Entity.FromEntity
			l.lintEntitySource(at(mappingPos, ""), fe)
			td.Entity = &fe
		}
		unknown := make([]string, 0)
		for name := range mapping.Fields {
			if !names[name] {
				unknown = append(unknown, name)
			}
		}
		sort.Strings(unknown)
		for _, name := range unknown {
			at(mappingPos, name).add(SeverityError, "mapping names a field the struct does not declare", "")
		}
	}
	return td
}

func (l *Linter) lintEntity(s *site, raw string) *input.FromEntity {
	fe, err := input.ParseFromEntity(raw)
	if err != nil {
		s.addErr(err)
		return nil
	}
	l.lintEntitySource(s, *fe)
	return fe
}

func (l *Linter) lintEntitySource(s *site, fe input.FromEntity) {
	if _, _, err := (input.From{Source: fe.From}).Split(); err != nil {
		s.add(SeverityError, "entity directive: "+err.Error(), "set from=namespace:key, e.g. from=query:id")
	}
}

func (l *Linter) lintLoader(s *site, loader input.Loader) {
	switch ld := loader.(type) {
	case input.ConstructorLoader:
		if !l.registry.IsRegistered(ld.Type) && !l.extraTypes[ld.Type] {
			s.add(SeverityWarning,
				fmt.Sprintf("constructor type %q is not a builtin type", ld.Type),
				"register it with input.RegisterParser or input.StructConstructor, then pass -types to the linter")
		}
	case input.ArrayOfLoader:
		if ld.Element == input.KindArrayOf {
			s.add(SeverityError, "arrayOf cannot wrap another arrayOf", "map nested lists with a service loader")
			return
		}
		element, err := input.NewLoader(ld.Element, ld.Args...)
		if err != nil {
			s.addErr(err)
			return
		}
		l.lintLoader(s, element)
	}
}

func (l *Linter) lintUnmatchedMappings(report *Report, matched map[string]bool) {
	if l.mapping == nil {
		return
	}
	keys := make([]string, 0, len(l.mapping.File().Types))
	for key := range l.mapping.File().Types {
		if !matched[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		s := &site{report: report, pos: token.Position{Filename: l.mappingPath}, typ: key}
		s.add(SeverityWarning, "mapping declares a type that is not in the loaded packages", "")
	}
}

// site is where findings for one type or field are recorded
type site struct {
	report *Report
	pos    token.Position
	typ    string
	field  string
}

func (s *site) add(severity Severity, message, hint string) {
	s.report.Findings = append(s.report.Findings, Finding{
		Severity: severity,
		Pos:      s.pos,
		Type:     s.typ,
		Field:    s.field,
		Message:  message,
		Hint:     hint,
	})
}

func (s *site) addErr(err error) {
	var hinted interface{ Suggestion() string }
	hint := ""
	if errors.As(err, &hinted) {
		hint = hinted.Suggestion()
	}
	s.add(SeverityError, err.Error(), hint)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

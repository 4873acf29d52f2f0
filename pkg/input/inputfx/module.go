// Package inputfx provides the input mapping components to an fx application.
//
// Services and repositories are collected from value groups, so any module can
// contribute them:
//
//	fx.New(
//		inputfx.Module,
//		inputfx.AsService("Slugger", NewSlugger),
//		inputfx.AsRepository("User", NewUserRepository),
//	)
package inputfx

import (
	"context"
	"log/slog"
	"reflect"

	"go.uber.org/fx"

	"github.com/toyz/axon-input/pkg/input"
)

const (
	servicesGroup     = `group:"input.services"`
	repositoriesGroup = `group:"input.repositories"`
)

// Module provides *input.Resolver, *input.Dispatcher, *input.Mapper,
// *input.EntityMapper, *input.Binder, *input.Services and *input.RepositoryMap.
var Module = fx.Module("input",
	fx.Provide(New),
)

// Service is a named service for the service loader
type Service struct {
	Name  string
	Value any
}

// Repository is the repository of an entity name
type Repository struct {
	Entity     string
	Repository input.Repository
}

// Params are the dependencies of New. Everything except the groups is optional.
type Params struct {
	fx.In

	Logger       *slog.Logger       `optional:"true"`
	Reader       input.Reader       `optional:"true"`
	Cache        input.Cache        `optional:"true"`
	Constructors input.Constructors `optional:"true"`
	Hydrator     input.Hydrator     `optional:"true"`

	Services     []Service    `group:"input.services"`
	Repositories []Repository `group:"input.repositories"`
}

// Result holds the components built by New
type Result struct {
	fx.Out

	Resolver     *input.Resolver
	Dispatcher   *input.Dispatcher
	Mapper       *input.Mapper
	EntityMapper *input.EntityMapper
	Binder       *input.Binder
	Services     *input.Services
	Repositories *input.RepositoryMap
}

// New wires the mapping components from p
func New(p Params) Result {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reader := p.Reader
	if reader == nil {
		reader = input.NewTagReader()
	}

	services := input.NewServices(nil)
	for _, s := range p.Services {
		services.Set(s.Name, s.Value)
	}
	repositories := input.NewRepositoryMap(nil)
	for _, r := range p.Repositories {
		repositories.Set(r.Entity, r.Repository)
	}

	resolverOpts := []input.ResolverOption{input.WithResolverLogger(logger)}
	if p.Cache != nil {
		resolverOpts = append(resolverOpts, input.WithCache(p.Cache))
	}
	resolver := input.NewResolver(reader, resolverOpts...)

	dispatcherOpts := []input.DispatcherOption{
		input.WithServices(services),
		input.WithRepositories(repositories),
		input.WithDispatcherLogger(logger),
	}
	if p.Constructors != nil {
		dispatcherOpts = append(dispatcherOpts, input.WithConstructors(p.Constructors))
	}
	dispatcher := input.NewDispatcher(dispatcherOpts...)

	mapperOpts := []input.MapperOption{input.WithMapperLogger(logger)}
	entityOpts := []input.EntityMapperOption{input.WithEntityLogger(logger)}
	if p.Hydrator != nil {
		mapperOpts = append(mapperOpts, input.WithHydrator(p.Hydrator))
		entityOpts = append(entityOpts, input.WithEntityHydrator(p.Hydrator), input.WithEntityExtractor(p.Hydrator))
	}
	mapper := input.NewMapper(resolver, dispatcher, mapperOpts...)
	entityMapper := input.NewEntityMapper(reader, repositories, entityOpts...)

	logger.Debug("input mapping configured",
		"services", services.Names(),
		"repositories", len(p.Repositories),
		"cached", p.Cache != nil,
	)

	return Result{
		Resolver:     resolver,
		Dispatcher:   dispatcher,
		Mapper:       mapper,
		EntityMapper: entityMapper,
		Binder:       input.NewBinder(mapper, entityMapper),
		Services:     services,
		Repositories: repositories,
	}
}

// AsService registers the result of constructor as the service name. constructor
// is an fx constructor returning the service and optionally an error.
func AsService(name string, constructor any) fx.Option {
	return fx.Provide(
		fx.Annotate(constructor, fx.As(new(any)), fx.ResultTags(`name:"input.service.`+name+`"`)),
		fx.Annotate(
			func(svc any) Service { return Service{Name: name, Value: svc} },
			fx.ParamTags(`name:"input.service.`+name+`"`),
			fx.ResultTags(servicesGroup),
		),
	)
}

// AsRepository registers the result of constructor as the repository of entity.
// constructor must return a value implementing input.Repository.
func AsRepository(entity string, constructor any) fx.Option {
	return fx.Provide(
		fx.Annotate(constructor, fx.As(new(input.Repository)), fx.ResultTags(`name:"input.repository.`+entity+`"`)),
		fx.Annotate(
			func(repo input.Repository) Repository { return Repository{Entity: entity, Repository: repo} },
			fx.ParamTags(`name:"input.repository.`+entity+`"`),
			fx.ResultTags(repositoriesGroup),
		),
	)
}

// Preload resolves the metadata of each target's type when the application starts,
// failing startup on an invalid directive
func Preload(targets ...any) fx.Option {
	return fx.Invoke(func(lc fx.Lifecycle, resolver *input.Resolver) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				for _, target := range targets {
					if _, err := resolver.Resolve(ctx, reflect.TypeOf(target)); err != nil {
						return err
					}
				}
				return nil
			},
		})
	})
}

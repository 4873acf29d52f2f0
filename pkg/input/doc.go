// Package input maps untyped request input onto typed Go structs.
//
// Fields declare where their value comes from and, optionally, how it is loaded:
//
//	type UserInput struct {
//		_      struct{}    `input:"entity(User, from=query:id, exclude=[password])"`
//		Name   string      `from:"data:name"`
//		Author *User       `from:"data:author" load:"entity(User, by=username)"`
//		Tags   []time.Time `from:"data:dates" load:"arrayOf(constructor, time.Time)"`
//	}
//
// A Resolver reads the directives once per type, a Dispatcher applies loaders, a Mapper
// writes loaded values onto a copy of the target and an EntityMapper bootstraps a target
// from an entity. Binder combines the last two.
package input

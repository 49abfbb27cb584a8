package engine

// builder.go - The protocol every build concern implements

import (
	"context"

	"github.com/rdfpub/generator/internal/resource"
)

// Builder is one concern of a build. The engine calls every builder in list
// order for each event, so a builder may rely on state that earlier builders
// stored on the resource during the same event.
//
// Init and Complete errors abort the build. Errors from the Handle methods
// are recorded and the walk continues. Always is called exactly once, after
// Init was attempted, whatever the outcome.
type Builder interface {
	Name() string
	Init(ctx context.Context) error
	HandleNewResource(ctx context.Context, r *resource.Resource) error
	HandleResourceFile(ctx context.Context, r *resource.Resource, f *resource.File) error
	HandleFinishedResource(ctx context.Context, r *resource.Resource) error
	Complete(ctx context.Context) error
	Always(ctx context.Context)
}

// NopBuilder implements every Builder method as a no-op. Concerns embed it
// and override the events they care about.
type NopBuilder struct{}

func (NopBuilder) Init(context.Context) error { return nil }

func (NopBuilder) HandleNewResource(context.Context, *resource.Resource) error { return nil }

func (NopBuilder) HandleResourceFile(context.Context, *resource.Resource, *resource.File) error {
	return nil
}

func (NopBuilder) HandleFinishedResource(context.Context, *resource.Resource) error { return nil }

func (NopBuilder) Complete(context.Context) error { return nil }

func (NopBuilder) Always(context.Context) {}

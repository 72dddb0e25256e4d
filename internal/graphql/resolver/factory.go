// Package resolver builds the resolve functions of GraphQL resource fields.
//
// Every resolver runs the stages of its kind (see package stage) in a
// trace span, one child span per stage, and reports failures as GraphQL
// errors carrying the HTTP status equivalent of the domain error.
package resolver

import (
	"context"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/graphql/resolver/stage"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/security"
	"github.com/Foxprodev/core/internal/serializer"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracerName names the tracer resolvers use when none is given
const TracerName = "github.com/Foxprodev/core/internal/graphql/resolver"

// Stages are the steps resolvers run
type Stages struct {
	Read                    *stage.ReadStage
	Security                *stage.SecurityStage
	SecurityPostDenormalize *stage.SecurityPostDenormalizeStage
	Serialize               *stage.SerializeStage
	Deserialize             *stage.DeserializeStage
	Validate                *stage.ValidateStage
	Write                   *stage.WriteStage
}

// Config holds the collaborators of a Factory
type Config struct {
	Stages   Stages
	Registry *class.Registry
	// Tracer defaults to the global tracer provider's
	Tracer trace.Tracer
	// Debug exposes the message of internal errors
	Debug  bool
	Logger *zap.Logger
}

// Factory creates resolvers
type Factory struct {
	stages   Stages
	registry *class.Registry
	tracer   trace.Tracer
	debug    bool
	logger   *zap.Logger
}

// NewFactory creates a resolver factory
func NewFactory(cfg Config) *Factory {
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(TracerName)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Factory{
		stages:   cfg.Stages,
		registry: cfg.Registry,
		tracer:   cfg.Tracer,
		debug:    cfg.Debug,
		logger:   cfg.Logger,
	}
}

// Item resolves an item query. Fields already normalized with their parent
// are returned as is.
func (f *Factory) Item(resourceClass, rootClass string, op resource.Operation) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		source, _ := p.Source.(map[string]interface{})
		if v, ok := source[p.Info.FieldName]; ok {
			return v, nil
		}

		rctx := stage.Context{
			Args:       Args(p),
			Source:     source,
			Field:      p.Info.FieldName,
			Attributes: Selection(p.Info),
		}
		return f.resolve(p, "item", resourceClass, op, func(ctx context.Context) (interface{}, error) {
			return f.item(ctx, resourceClass, rootClass, op, rctx)
		})
	}
}

func (f *Factory) item(ctx context.Context, resourceClass, rootClass string, op resource.Operation, rctx stage.Context) (interface{}, error) {
	var item interface{}
	err := f.step(ctx, "read", func(ctx context.Context) (err error) {
		item, err = f.stages.Read.Apply(ctx, resourceClass, rootClass, op, rctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := f.checkClass(item, resourceClass); err != nil {
		return nil, err
	}

	if err := f.security(ctx, resourceClass, op, security.Vars{Object: item}); err != nil {
		return nil, err
	}
	if err := f.securityPostDenormalize(ctx, resourceClass, op, security.Vars{Object: item, PreviousObject: item}); err != nil {
		return nil, err
	}
	return f.serialize(ctx, item, resourceClass, op, rctx)
}

// Collection resolves a collection query, or the collection field of a
// normalized parent through the subresource provider
func (f *Factory) Collection(resourceClass, rootClass string, op resource.Operation) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		source, _ := p.Source.(map[string]interface{})
		if _, nested := source[serializer.ItemResourceClassKey]; nested {
			if _, ok := source[p.Info.FieldName]; !ok {
				return nil, nil
			}
		}

		rctx := stage.Context{
			Args:         Args(p),
			Source:       source,
			Field:        p.Info.FieldName,
			Attributes:   Selection(p.Info),
			IsCollection: true,
		}
		return f.resolve(p, "collection", resourceClass, op, func(ctx context.Context) (interface{}, error) {
			var collection interface{}
			err := f.step(ctx, "read", func(ctx context.Context) (err error) {
				collection, err = f.stages.Read.Apply(ctx, resourceClass, rootClass, op, rctx)
				return err
			})
			if err != nil {
				return nil, err
			}
			if !serializer.IsCollection(collection) {
				return nil, apierr.NewUnexpectedValue("Collection from read stage should be iterable, %s given.", apierr.Describe(collection))
			}

			if err := f.security(ctx, resourceClass, op, security.Vars{Object: collection}); err != nil {
				return nil, err
			}
			if err := f.securityPostDenormalize(ctx, resourceClass, op, security.Vars{Object: collection, PreviousObject: collection}); err != nil {
				return nil, err
			}
			return f.serialize(ctx, collection, resourceClass, op, rctx)
		})
	}
}

// Mutation resolves create, update, delete and custom mutations
func (f *Factory) Mutation(resourceClass string, op resource.Operation) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		source, _ := p.Source.(map[string]interface{})
		rctx := stage.Context{
			Args:       Args(p),
			Source:     source,
			Field:      p.Info.FieldName,
			Attributes: PayloadSelection(p.Info, wrapField(resourceClass, op)),
			IsMutation: true,
		}
		return f.resolve(p, "mutation", resourceClass, op, func(ctx context.Context) (interface{}, error) {
			return f.mutation(ctx, resourceClass, op, rctx)
		})
	}
}

func (f *Factory) mutation(ctx context.Context, resourceClass string, op resource.Operation, rctx stage.Context) (interface{}, error) {
	var item interface{}
	err := f.step(ctx, "read", func(ctx context.Context) (err error) {
		item, err = f.stages.Read.Apply(ctx, resourceClass, resourceClass, op, rctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := f.security(ctx, resourceClass, op, security.Vars{Object: item}); err != nil {
		return nil, err
	}
	previous := serializer.ShallowCopy(item)

	if op.Name() != resource.GraphQLDelete {
		err = f.step(ctx, "deserialize", func(ctx context.Context) (err error) {
			item, err = f.stages.Deserialize.Apply(ctx, item, resourceClass, op, rctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if err := f.securityPostDenormalize(ctx, resourceClass, op, security.Vars{Object: item, PreviousObject: previous}); err != nil {
		return nil, err
	}

	if !serializer.IsNil(item) && op.Name() != resource.GraphQLDelete {
		if err := f.step(ctx, "validate", func(ctx context.Context) error {
			return f.stages.Validate.Apply(ctx, item, op)
		}); err != nil {
			return nil, err
		}
	}

	err = f.step(ctx, "write", func(ctx context.Context) (err error) {
		item, err = f.stages.Write.Apply(ctx, item, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return f.serialize(ctx, item, resourceClass, op, rctx)
}

// Subscription resolves the payload of a subscription: the item its input
// designates, serialized for the subscriber
func (f *Factory) Subscription(resourceClass string, op resource.Operation) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		rctx := stage.Context{
			Args:           Args(p),
			Field:          p.Info.FieldName,
			Attributes:     PayloadSelection(p.Info, wrapField(resourceClass, op)),
			IsSubscription: true,
		}
		return f.resolve(p, "subscription", resourceClass, op, func(ctx context.Context) (interface{}, error) {
			return f.item(ctx, resourceClass, resourceClass, op, rctx)
		})
	}
}

// ItemOperationFunc returns the item query of a resource class
type ItemOperationFunc func(ctx context.Context, resourceClass string) (resource.Operation, error)

// Node resolves the node field: the item behind any IRI, checked and
// serialized with the item query of its own class
func (f *Factory) Node(itemOperation ItemOperationFunc) graphql.FieldResolveFn {
	lookup := resource.Query().WithName(resource.GraphQLItemQuery)
	return func(p graphql.ResolveParams) (interface{}, error) {
		rctx := stage.Context{
			Args:       Args(p),
			Field:      p.Info.FieldName,
			Attributes: Selection(p.Info),
		}
		return f.resolve(p, "node", "", lookup, func(ctx context.Context) (interface{}, error) {
			var item interface{}
			err := f.step(ctx, "read", func(ctx context.Context) (err error) {
				item, err = f.stages.Read.Apply(ctx, "", "", lookup, rctx)
				return err
			})
			if err != nil || serializer.IsNil(item) {
				return nil, err
			}

			resourceClass, ok := f.registry.ClassOf(item)
			if !ok {
				return nil, apierr.NewUnexpectedValue("Item %q is not a resource.", rctx.Identifier())
			}
			op, err := itemOperation(ctx, resourceClass)
			if err != nil {
				return nil, err
			}

			if err := f.security(ctx, resourceClass, op, security.Vars{Object: item}); err != nil {
				return nil, err
			}
			if err := f.securityPostDenormalize(ctx, resourceClass, op, security.Vars{Object: item, PreviousObject: item}); err != nil {
				return nil, err
			}
			return f.serialize(ctx, item, resourceClass, op, rctx)
		})
	}
}

// resolve runs fn in the span of the field resolution and converts its
// error
func (f *Factory) resolve(p graphql.ResolveParams, kind, resourceClass string, op resource.Operation, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ctx := p.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := f.tracer.Start(ctx, "graphql.resolve."+kind, trace.WithAttributes(
		attribute.String("graphql.field", p.Info.FieldName),
		attribute.String("api.resource", resourceClass),
		attribute.String("api.operation", op.Name()),
	))
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		gqlErr := NewError(err, f.debug)
		span.RecordError(err)
		span.SetStatus(codes.Error, gqlErr.Error())
		span.SetAttributes(attribute.Int("http.status_code", gqlErr.Status()))
		if gqlErr.Status() >= 500 {
			f.logger.Error("graphql resolver failed",
				zap.String("field", p.Info.FieldName),
				zap.String("resource", resourceClass),
				zap.String("operation", op.Name()),
				zap.Error(err),
			)
		}
		return nil, gqlErr
	}
	return out, nil
}

// step runs one stage in its own span
func (f *Factory) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := f.tracer.Start(ctx, "graphql.stage."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (f *Factory) security(ctx context.Context, resourceClass string, op resource.Operation, vars security.Vars) error {
	return f.step(ctx, "security", func(ctx context.Context) error {
		return f.stages.Security.Apply(ctx, resourceClass, op, vars)
	})
}

func (f *Factory) securityPostDenormalize(ctx context.Context, resourceClass string, op resource.Operation, vars security.Vars) error {
	return f.step(ctx, "security_post_denormalize", func(ctx context.Context) error {
		return f.stages.SecurityPostDenormalize.Apply(ctx, resourceClass, op, vars)
	})
}

func (f *Factory) serialize(ctx context.Context, data interface{}, resourceClass string, op resource.Operation, rctx stage.Context) (interface{}, error) {
	var out interface{}
	err := f.step(ctx, "serialize", func(ctx context.Context) (err error) {
		out, err = f.stages.Serialize.Apply(ctx, data, resourceClass, op, rctx)
		return err
	})
	return out, err
}

// checkClass rejects items of another class than the resolved one
func (f *Factory) checkClass(item interface{}, resourceClass string) error {
	if serializer.IsNil(item) {
		return nil
	}
	itemClass, ok := f.registry.ClassOf(item)
	if !ok || itemClass != resourceClass {
		return apierr.NewUnexpectedValue("Resolver only handles items of class %s but retrieved item is of class %s.", resourceClass, itemClass)
	}
	return nil
}

// wrapField is the payload field holding the resource of a mutation
func wrapField(resourceClass string, op resource.Operation) string {
	name := op.ShortName()
	if name == "" {
		name = class.ShortName(resourceClass)
	}
	return ustrings.LcFirst(name)
}

package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/serializer"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// DefaultNestingSeparator stands for the dots of property paths in
// argument names, which GraphQL does not allow
const DefaultNestingSeparator = "_"

const listSuffix = "_list"

// ReadConfig holds the collaborators of a ReadStage
type ReadConfig struct {
	Registry     *class.Registry
	Iris         serializer.IriConverter
	Collections  dataprovider.CollectionDataProvider
	Subresources dataprovider.SubresourceDataProvider
	// NestingSeparator replaces dots in filter argument names
	NestingSeparator string
	// DeprecationNotice logs filters given in the deprecated syntax
	DeprecationNotice bool
	Logger            *zap.Logger
}

// ReadStage loads the item or collection a field resolves to
type ReadStage struct {
	registry          *class.Registry
	iris              serializer.IriConverter
	collections       dataprovider.CollectionDataProvider
	subresources      dataprovider.SubresourceDataProvider
	separator         string
	deprecationNotice bool
	logger            *zap.Logger
}

// NewReadStage creates the read stage
func NewReadStage(cfg ReadConfig) *ReadStage {
	if cfg.NestingSeparator == "" {
		cfg.NestingSeparator = DefaultNestingSeparator
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ReadStage{
		registry:          cfg.Registry,
		iris:              cfg.Iris,
		collections:       cfg.Collections,
		subresources:      cfg.Subresources,
		separator:         cfg.NestingSeparator,
		deprecationNotice: cfg.DeprecationNotice,
		logger:            cfg.Logger,
	}
}

// Apply returns the item (possibly nil) or the collection of the field.
// Operations that do not read return nil or an empty collection without
// touching any provider.
func (s *ReadStage) Apply(ctx context.Context, resourceClass, rootClass string, op resource.Operation, rctx Context) (interface{}, error) {
	if !op.CanRead() {
		if rctx.IsCollection {
			return []interface{}{}, nil
		}
		return nil, nil
	}

	dctx := dataprovider.Context{Operation: op, GraphQL: true}
	if !rctx.IsCollection {
		return s.item(ctx, resourceClass, op, rctx, dctx)
	}

	if rootClass == "" {
		return []interface{}{}, nil
	}
	dctx.Filters = s.NormalizeFilters(rctx.Args)

	if rctx.Source != nil {
		if _, ok := rctx.Source[rctx.Field]; ok {
			if ids, ok := rctx.Source[serializer.ItemIdentifiersKey].(*ordered.Map); ok {
				return s.subresource(ctx, resourceClass, rootClass, ids, rctx.Field, dctx)
			}
		}
	}
	return s.collections.GetCollection(ctx, resourceClass, dctx)
}

func (s *ReadStage) item(ctx context.Context, resourceClass string, op resource.Operation, rctx Context, dctx dataprovider.Context) (interface{}, error) {
	identifier := rctx.Identifier()
	if identifier == "" {
		return nil, nil
	}

	item, err := s.iris.GetItemFromIri(ctx, identifier, iri.Options{Context: dctx})
	if errors.Is(err, apierr.ErrNotFound) {
		item, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !rctx.IsMutation && !rctx.IsSubscription {
		return item, nil
	}
	if item == nil {
		return nil, apierr.NotFound("Item %q not found.", identifier)
	}
	if itemClass, ok := s.registry.ClassOf(item); !ok || itemClass != resourceClass {
		return nil, apierr.NewUnexpectedValue("Item %q did not match expected type %q.", identifier, shortName(op, resourceClass))
	}
	return item, nil
}

// subresource reads the collection reached from the parent identified by
// ids through its property field
func (s *ReadStage) subresource(ctx context.Context, resourceClass, rootClass string, ids *ordered.Map, field string, dctx dataprovider.Context) (interface{}, error) {
	keys := ids.Keys()
	if len(keys) == 0 {
		return []interface{}{}, nil
	}
	parameter := keys[0]
	value, _ := ids.Get(parameter)

	dctx.Operation = dctx.Operation.
		WithIdentifiers(resource.Link{Parameter: parameter, Class: rootClass, Property: parameter}).
		WithSubresourceProperty(field)
	result, err := s.subresources.GetSubresource(ctx, resourceClass, ordered.FromPairs(parameter, value), dctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return []interface{}{}, nil
	}
	if !serializer.IsCollection(result) {
		return nil, apierr.NewUnexpectedValue("Expected subresource collection to be iterable, %s given.", apierr.Describe(result))
	}
	return result, nil
}

// NormalizeFilters turns field arguments into the parameters collection
// filters read. Lists of objects are merged into one object in list order,
// so order: [{title: "ASC"}, {id: "DESC"}] sorts by title first. List
// arguments lose their _list suffix, and an argument whose name holds the
// nesting separator is followed by its dotted property path.
func (s *ReadStage) NormalizeFilters(args *ordered.Map) *ordered.Map {
	out := ordered.New()
	args.Range(func(name string, value interface{}) bool {
		if list, ok := value.([]interface{}); ok {
			name = strings.TrimSuffix(name, listSuffix)
			value = s.normalizeList(name, list)
		} else if m, ok := serializer.AsOrderedMap(value); ok {
			value = s.NormalizeFilters(m)
		}

		out.Set(name, value)
		if strings.Index(name, s.separator) > 0 {
			out.Set(strings.ReplaceAll(name, s.separator, "."), value)
		}
		return true
	})
	return out
}

func (s *ReadStage) normalizeList(name string, list []interface{}) interface{} {
	objects := make([]*ordered.Map, 0, len(list))
	for _, v := range list {
		m, ok := serializer.AsOrderedMap(v)
		if !ok {
			return list
		}
		objects = append(objects, m)
	}
	if len(objects) == 0 {
		return list
	}

	if objects[0].Len() > 1 && s.deprecationNotice {
		s.logger.Warn("deprecated filter syntax",
			zap.String("filter", name),
			zap.String("given", legacySyntax(name, objects[0])),
			zap.String("expected", listSyntax(name, objects[0])),
		)
	}

	merged := ordered.New()
	for _, m := range objects {
		m.Range(func(k string, v interface{}) bool {
			merged.Set(k, v)
			return true
		})
	}
	return s.NormalizeFilters(merged)
}

// legacySyntax renders name: [{a: ..., b: ...}]
func legacySyntax(name string, m *ordered.Map) string {
	parts := make([]string, 0, m.Len())
	m.Range(func(k string, v interface{}) bool {
		parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		return true
	})
	return fmt.Sprintf("%s: [{%s}]", name, strings.Join(parts, ", "))
}

// listSyntax renders name: [{a: ...}, {b: ...}]
func listSyntax(name string, m *ordered.Map) string {
	parts := make([]string, 0, m.Len())
	m.Range(func(k string, v interface{}) bool {
		parts = append(parts, fmt.Sprintf("{%s: %v}", k, v))
		return true
	})
	return fmt.Sprintf("%s: [%s]", name, strings.Join(parts, ", "))
}

func shortName(op resource.Operation, resourceClass string) string {
	if op.ShortName() != "" {
		return op.ShortName()
	}
	return class.ShortName(resourceClass)
}

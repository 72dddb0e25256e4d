package schema

import (
	"context"
	"errors"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/filter"
	"github.com/Foxprodev/core/internal/graphql/resolver"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/pagination"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds the nesting of relation fields and nested inputs
const DefaultMaxDepth = 10

// FieldsConfig holds the collaborators of a FieldsBuilder
type FieldsConfig struct {
	Registry   *class.Registry
	Resources  resource.CollectionFactory
	Properties property.Factory
	Names      property.NameFactory
	Filters    *filter.Locator
	Pagination *pagination.Pagination
	Resolvers  *resolver.Factory
	Types      *TypeBuilder
	Converter  *TypeConverter
	// NestingSeparator replaces dots in filter argument names
	NestingSeparator string
	MaxDepth         int
	Logger           *zap.Logger
}

// FieldsBuilder creates the fields of the root types and of resource types
type FieldsBuilder struct {
	registry   *class.Registry
	resources  resource.CollectionFactory
	properties property.Factory
	names      property.NameFactory
	filters    *filter.Locator
	pagination *pagination.Pagination
	resolvers  *resolver.Factory
	types      *TypeBuilder
	converter  *TypeConverter
	separator  string
	maxDepth   int
	logger     *zap.Logger
}

// NewFieldsBuilder creates a fields builder and completes cfg.Types with it
func NewFieldsBuilder(cfg FieldsConfig) *FieldsBuilder {
	if cfg.NestingSeparator == "" {
		cfg.NestingSeparator = "_"
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Converter == nil {
		cfg.Converter = NewTypeConverter()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	b := &FieldsBuilder{
		registry:   cfg.Registry,
		resources:  cfg.Resources,
		properties: cfg.Properties,
		names:      cfg.Names,
		filters:    cfg.Filters,
		pagination: cfg.Pagination,
		resolvers:  cfg.Resolvers,
		types:      cfg.Types,
		converter:  cfg.Converter,
		separator:  cfg.NestingSeparator,
		maxDepth:   cfg.MaxDepth,
		logger:     cfg.Logger,
	}
	cfg.Types.SetFieldsBuilder(b)
	return b
}

// NodeQueryFields returns the node field, which fetches any item by IRI
func (b *FieldsBuilder) NodeQueryFields() graphql.Fields {
	return graphql.Fields{
		"node": &graphql.Field{
			Type: b.types.NodeInterface(),
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: b.resolvers.Node(b.itemOperation),
		},
	}
}

// ItemQueryFields returns the field of an item query, book(id: ID!)
func (b *FieldsBuilder) ItemQueryFields(ctx context.Context, resourceClass, shortName string, op resource.Operation) graphql.Fields {
	name := ustrings.LcFirst(operationPrefix(op) + shortName)
	return graphql.Fields{
		name: &graphql.Field{
			Type:        b.types.ResourceObjectType(ctx, resourceClass, shortName, op, 0),
			Description: op.Description(),
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: b.resolvers.Item(resourceClass, resourceClass, op),
		},
	}
}

// CollectionQueryFields returns the field of a collection query, books,
// with its pagination and filter arguments
func (b *FieldsBuilder) CollectionQueryFields(ctx context.Context, resourceClass, shortName string, op resource.Operation) (graphql.Fields, error) {
	args, err := b.CollectionArgs(resourceClass, shortName, op)
	if err != nil {
		return nil, err
	}
	item := b.types.ResourceObjectType(ctx, resourceClass, shortName, op, 0)
	name := ustrings.Pluralize(ustrings.LcFirst(operationPrefix(op) + shortName))
	return graphql.Fields{
		name: &graphql.Field{
			Type:        b.types.CollectionType(shortName, op, item),
			Description: op.Description(),
			Args:        args,
			Resolve:     b.resolvers.Collection(resourceClass, resourceClass, op),
		},
	}, nil
}

// MutationFields returns the field of a mutation, createBook(input: createBookInput!)
func (b *FieldsBuilder) MutationFields(ctx context.Context, resourceClass, shortName string, op resource.Operation) graphql.Fields {
	name := ustrings.LcFirst(operationPrefix(op) + shortName)
	item := b.types.ResourceObjectType(ctx, resourceClass, shortName, op, 0)
	description := op.Description()
	switch op.Name() {
	case resource.GraphQLCreate, resource.GraphQLUpdate, resource.GraphQLDelete:
		if description == "" {
			description = ustrings.UcFirst(op.Name()) + "s a " + shortName + "."
		}
	}
	return graphql.Fields{
		name: &graphql.Field{
			Type:        b.types.PayloadType(shortName, op, item),
			Description: description,
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(b.types.ResourceInputType(ctx, resourceClass, shortName, op, 0)),
				},
			},
			Resolve: b.resolvers.Mutation(resourceClass, op),
		},
	}
}

// SubscriptionFields returns the field of a subscription,
// updateBookSubscribe(input: updateBookSubscriptionInput!)
func (b *FieldsBuilder) SubscriptionFields(ctx context.Context, resourceClass, shortName string, op resource.Operation) graphql.Fields {
	name := ustrings.LcFirst(operationPrefix(op)+shortName) + "Subscribe"
	item := b.types.ResourceObjectType(ctx, resourceClass, shortName, op, 0)
	return graphql.Fields{
		name: &graphql.Field{
			Type:        b.types.PayloadType(shortName, op, item),
			Description: op.Description(),
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(b.types.ResourceInputType(ctx, resourceClass, shortName, op, 0)),
				},
			},
			Resolve: b.resolvers.Subscription(resourceClass, op),
		},
	}
}

// ObjectFields returns the fields of the output type of a resource: id,
// the IRI, and every readable property. The identifier property named id
// is exposed as _id.
func (b *FieldsBuilder) ObjectFields(ctx context.Context, resourceClass string, op resource.Operation, depth int) (graphql.Fields, error) {
	fields := graphql.Fields{
		"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
	}
	opts := property.Options{SerializerGroups: op.NormalizationContext().Groups, OperationName: op.Name()}
	names, err := b.names.Create(ctx, resourceClass, opts)
	if err != nil {
		return fields, err
	}

	for _, name := range names.Names() {
		md, err := b.properties.Create(ctx, resourceClass, name, opts)
		if err != nil {
			return fields, err
		}
		if !md.IsReadable() || md.Type() == nil {
			continue
		}
		field, err := b.outputField(ctx, resourceClass, md, depth)
		if err != nil {
			return fields, err
		}
		if field == nil {
			continue
		}
		if name == "id" {
			name = "_id"
		}
		fields[name] = field
	}
	return fields, nil
}

func (b *FieldsBuilder) outputField(ctx context.Context, resourceClass string, md property.Metadata, depth int) (*graphql.Field, error) {
	t := *md.Type()
	related := t.ClassName()
	if !b.registry.IsResourceClass(related) {
		out := b.converter.Convert(t, false)
		if out == nil {
			return nil, nil
		}
		return &graphql.Field{Type: out, Description: md.Description()}, nil
	}
	if depth >= b.maxDepth {
		return nil, nil
	}

	shortName, err := b.shortName(ctx, related)
	if err != nil {
		return nil, err
	}
	itemOp, err := b.itemOperation(ctx, related)
	if err != nil {
		return nil, err
	}
	item := b.types.ResourceObjectType(ctx, related, shortName, itemOp, depth+1)

	if !t.IsCollection() {
		return &graphql.Field{
			Type:        item,
			Description: md.Description(),
			Resolve:     b.resolvers.Item(related, resourceClass, itemOp),
		}, nil
	}

	collectionOp, err := b.collectionOperation(ctx, related)
	if err != nil {
		return nil, err
	}
	args, err := b.CollectionArgs(related, shortName, collectionOp)
	if err != nil {
		return nil, err
	}
	return &graphql.Field{
		Type:        b.types.CollectionType(shortName, collectionOp, item),
		Description: md.Description(),
		Args:        args,
		Resolve:     b.resolvers.Collection(related, resourceClass, collectionOp),
	}, nil
}

// InputFields returns the fields of the input type of a mutation or
// subscription. Relations are given as IRIs, or as nested inputs for
// writable links.
func (b *FieldsBuilder) InputFields(ctx context.Context, resourceClass string, op resource.Operation, depth int) (graphql.InputObjectConfigFieldMap, error) {
	fields := graphql.InputObjectConfigFieldMap{}
	if depth == 0 {
		fields["clientMutationId"] = &graphql.InputObjectFieldConfig{Type: graphql.String}
	}

	switch {
	case op.Kind() == resource.KindSubscription, op.Name() == resource.GraphQLDelete:
		fields["id"] = &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)}
		return fields, nil
	case depth > 0:
		fields["id"] = &graphql.InputObjectFieldConfig{Type: graphql.ID}
	case op.Name() != resource.GraphQLCreate:
		fields["id"] = &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)}
	}

	opts := property.Options{SerializerGroups: op.DenormalizationContext().Groups, OperationName: op.Name()}
	names, err := b.names.Create(ctx, resourceClass, opts)
	if err != nil {
		return fields, err
	}
	for _, name := range names.Names() {
		md, err := b.properties.Create(ctx, resourceClass, name, opts)
		if err != nil {
			return fields, err
		}
		if !md.IsWritable() || md.IsIdentifier() || md.Type() == nil || name == "id" {
			continue
		}
		in, err := b.inputType(ctx, md, op, depth)
		if err != nil {
			return fields, err
		}
		if in == nil {
			continue
		}
		if md.IsRequired() && op.Name() == resource.GraphQLCreate && depth == 0 {
			in = graphql.NewNonNull(in)
		}
		fields[name] = &graphql.InputObjectFieldConfig{Type: in, Description: md.Description()}
	}
	return fields, nil
}

func (b *FieldsBuilder) inputType(ctx context.Context, md property.Metadata, op resource.Operation, depth int) (graphql.Input, error) {
	t := *md.Type()
	related := t.ClassName()
	if !b.registry.IsResourceClass(related) {
		in, _ := b.converter.Convert(t, true).(graphql.Input)
		return in, nil
	}

	var in graphql.Input = graphql.String
	if md.IsWritableLink() && depth < b.maxDepth {
		shortName, err := b.shortName(ctx, related)
		if err != nil {
			return nil, err
		}
		in = b.types.ResourceInputType(ctx, related, shortName, op, depth+1)
	}
	if t.IsCollection() {
		return graphql.NewList(in), nil
	}
	return in, nil
}

// CollectionArgs returns the pagination and filter arguments of a
// collection field
func (b *FieldsBuilder) CollectionArgs(resourceClass, shortName string, op resource.Operation) (graphql.FieldConfigArgument, error) {
	args := graphql.FieldConfigArgument{}
	if b.pagination.IsGraphQLEnabled(op) {
		if b.pagination.GraphQLType(op) == pagination.TypePage {
			options := b.pagination.Options()
			args[options.PageParameterName] = &graphql.ArgumentConfig{
				Type:        graphql.Int,
				Description: "Returns the current page.",
			}
			clientItemsPerPage := options.ClientItemsPerPage
			if v := op.PaginationClientItemsPerPage(); v != nil {
				clientItemsPerPage = *v
			}
			if clientItemsPerPage {
				args[options.ItemsPerPageParameterName] = &graphql.ArgumentConfig{
					Type:        graphql.Int,
					Description: "Returns the number of items per page.",
				}
			}
		} else {
			args["first"] = &graphql.ArgumentConfig{Type: graphql.Int, Description: "Returns the first n elements from the list."}
			args["last"] = &graphql.ArgumentConfig{Type: graphql.Int, Description: "Returns the last n elements from the list."}
			args["before"] = &graphql.ArgumentConfig{Type: graphql.String, Description: "Returns the elements in the list that come before the specified cursor."}
			args["after"] = &graphql.ArgumentConfig{Type: graphql.String, Description: "Returns the elements in the list that come after the specified cursor."}
		}
	}

	filterArgs, err := b.FilterArgs(resourceClass, shortName, op)
	if err != nil {
		return nil, err
	}
	for name, arg := range filterArgs {
		args[name] = arg
	}
	return args, nil
}

func (b *FieldsBuilder) shortName(ctx context.Context, resourceClass string) (string, error) {
	c, err := b.resources.Create(ctx, resourceClass)
	if err != nil {
		return "", err
	}
	if name := c.ShortName(); name != "" {
		return name, nil
	}
	return class.ShortName(resourceClass), nil
}

// itemOperation returns the item query of a resource. Resources without
// one are exposed through a default item query.
func (b *FieldsBuilder) itemOperation(ctx context.Context, resourceClass string) (resource.Operation, error) {
	return b.operation(ctx, resourceClass, resource.GraphQLItemQuery, resource.Query())
}

func (b *FieldsBuilder) collectionOperation(ctx context.Context, resourceClass string) (resource.Operation, error) {
	return b.operation(ctx, resourceClass, resource.GraphQLCollectionQuery, resource.QueryCollection())
}

func (b *FieldsBuilder) operation(ctx context.Context, resourceClass, name string, fallback resource.Operation) (resource.Operation, error) {
	c, err := b.resources.Create(ctx, resourceClass)
	if err != nil {
		return resource.Operation{}, err
	}
	op, err := c.Operation(name, fallback.IsCollection(), false)
	if errors.Is(err, apierr.ErrOperationNotFound) {
		shortName := c.ShortName()
		if shortName == "" {
			shortName = class.ShortName(resourceClass)
		}
		return fallback.WithName(name).WithClass(resourceClass).WithShortName(shortName), nil
	}
	return op, err
}

// filterArg is a node of the filter argument tree. Leaves carry a type,
// inner nodes the fields of an input object.
type filterArg struct {
	typ      graphql.Input
	children map[string]*filterArg
	keys     []string
}

func (a *filterArg) child(name string) *filterArg {
	if a.children == nil {
		a.children = map[string]*filterArg{}
	}
	c, ok := a.children[name]
	if !ok {
		c = &filterArg{}
		a.children[name] = c
		a.keys = append(a.keys, name)
	}
	return c
}

// FilterArgs returns the arguments of the filters of op. A key ending in
// [] becomes a list argument suffixed with _list, dots become the nesting
// separator, and bracketed keys such as order[title] become a list of
// input objects named after the resource, BookFilter_order, created once
// per name.
func (b *FieldsBuilder) FilterArgs(resourceClass, shortName string, op resource.Operation) (graphql.FieldConfigArgument, error) {
	args := graphql.FieldConfigArgument{}
	if b.filters == nil || len(op.Filters()) == 0 {
		return args, nil
	}
	filters, err := b.filters.ForOperation(op)
	if err != nil {
		return nil, err
	}

	root := &filterArg{}
	for _, f := range filters {
		for _, param := range f.Description(resourceClass) {
			var t graphql.Input = graphql.String
			if s := b.converter.Builtin(param.Type); s != nil {
				t = s
			}
			if param.Required {
				t = graphql.NewNonNull(t)
			}

			key := param.Key
			if strings.HasSuffix(key, "[]") {
				t = graphql.NewList(t)
				key = strings.TrimSuffix(key, "[]") + "_list"
			}

			node := root
			for _, part := range splitFilterKey(key) {
				node = node.child(part)
			}
			if node.children == nil {
				node.typ = t
			}
		}
	}

	for _, name := range root.keys {
		arg := root.children[name]
		args[strings.ReplaceAll(name, ".", b.separator)] = &graphql.ArgumentConfig{
			Type: b.filterType(shortName+"Filter_"+filterTypeName(name), arg),
		}
	}
	return args, nil
}

func (b *FieldsBuilder) filterType(name string, arg *filterArg) graphql.Input {
	if arg.children == nil {
		return arg.typ
	}
	if t, err := b.types.container.Get(name); err == nil {
		if in, ok := t.(graphql.Input); ok {
			return in
		}
	}

	fields := graphql.InputObjectConfigFieldMap{}
	for _, key := range arg.keys {
		fields[strings.ReplaceAll(key, ".", b.separator)] = &graphql.InputObjectFieldConfig{
			Type: b.filterType(name+"_"+filterTypeName(key), arg.children[key]),
		}
	}
	t := graphql.NewList(graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: fields}))
	b.types.container.Set(name, t)
	return t
}

// splitFilterKey splits order[author.name] into order and author.name
func splitFilterKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i <= 0 {
		return []string{key}
	}
	parts := []string{key[:i]}
	rest := key[i:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts
}

func filterTypeName(key string) string {
	return strings.NewReplacer("[", "_", "]", "", ".", "__").Replace(key)
}

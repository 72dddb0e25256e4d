package schema

import (
	"context"

	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/pagination"
	"github.com/Foxprodev/core/internal/serializer"
	ustrings "github.com/Foxprodev/core/internal/util/strings"
	"github.com/graphql-go/graphql"
)

// TypeBuilder creates the object, input, collection and payload types of
// resources. Every type is created once and kept in the container.
type TypeBuilder struct {
	container  *TypesContainer
	pagination *pagination.Pagination
	fields     *FieldsBuilder
	node       *graphql.Interface
	// classes maps resource classes to their output type for the Node
	// interface
	classes map[string]*graphql.Object
	err     error
}

// NewTypeBuilder creates a type builder. Fields of the types it creates
// come from the FieldsBuilder given to SetFieldsBuilder.
func NewTypeBuilder(container *TypesContainer, p *pagination.Pagination) *TypeBuilder {
	b := &TypeBuilder{
		container:  container,
		pagination: p,
		classes:    map[string]*graphql.Object{},
	}
	b.node = graphql.NewInterface(graphql.InterfaceConfig{
		Name:        "Node",
		Description: "A node, according to the Relay specification.",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The id of this node.",
			},
		},
		ResolveType: b.resolveNode,
	})
	container.Set("Node", b.node)
	return b
}

// SetFieldsBuilder completes the builder
func (b *TypeBuilder) SetFieldsBuilder(fields *FieldsBuilder) {
	b.fields = fields
}

// NodeInterface returns the Node interface every resource type implements
func (b *TypeBuilder) NodeInterface() *graphql.Interface {
	return b.node
}

func (b *TypeBuilder) resolveNode(p graphql.ResolveTypeParams) *graphql.Object {
	source, _ := p.Value.(map[string]interface{})
	resourceClass, _ := source[serializer.ItemResourceClassKey].(string)
	return b.classes[resourceClass]
}

// Err returns the first error met while the lazy fields of the types were
// built
func (b *TypeBuilder) Err() error {
	return b.err
}

func (b *TypeBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ResourceObjectType returns the output type of a resource, named after its
// short name
func (b *TypeBuilder) ResourceObjectType(ctx context.Context, resourceClass, shortName string, op resource.Operation, depth int) *graphql.Object {
	if t, err := b.container.Get(shortName); err == nil {
		if o, ok := t.(*graphql.Object); ok {
			return o
		}
	}

	o := graphql.NewObject(graphql.ObjectConfig{
		Name:        shortName,
		Description: op.Description(),
		Interfaces:  []*graphql.Interface{b.node},
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields, err := b.fields.ObjectFields(ctx, resourceClass, op, depth)
			if err != nil {
				b.fail(err)
			}
			return fields
		}),
	})
	b.container.Set(shortName, o)
	b.classes[resourceClass] = o
	return o
}

// ResourceInputType returns the input type of a mutation. Nested inputs,
// for writable links, are named after the mutation and the related
// resource.
func (b *TypeBuilder) ResourceInputType(ctx context.Context, resourceClass, shortName string, op resource.Operation, depth int) *graphql.InputObject {
	name := operationPrefix(op) + shortName
	switch {
	case op.Kind() == resource.KindSubscription:
		name += "SubscriptionInput"
	case depth > 0:
		name += "NestedInput"
	default:
		name += "Input"
	}
	if t, err := b.container.Get(name); err == nil {
		if in, ok := t.(*graphql.InputObject); ok {
			return in
		}
	}

	in := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			fields, err := b.fields.InputFields(ctx, resourceClass, op, depth)
			if err != nil {
				b.fail(err)
			}
			return fields
		}),
	})
	b.container.Set(name, in)
	return in
}

// PayloadType returns the type a mutation or subscription resolves to: the
// resource under its lower cased short name and the clientMutationId. The
// payload of delete mutations holds the id of the deleted item instead.
func (b *TypeBuilder) PayloadType(shortName string, op resource.Operation, item *graphql.Object) *graphql.Object {
	name := operationPrefix(op) + shortName
	if op.Kind() == resource.KindSubscription {
		name += "Subscription"
	}
	name += "Payload"
	if t, err := b.container.Get(name); err == nil {
		if o, ok := t.(*graphql.Object); ok {
			return o
		}
	}

	fields := graphql.Fields{
		"clientMutationId": &graphql.Field{Type: graphql.String},
	}
	if op.Name() == resource.GraphQLDelete {
		fields["id"] = &graphql.Field{Type: graphql.ID}
	} else {
		fields[ustrings.LcFirst(shortName)] = &graphql.Field{Type: item}
	}
	o := graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
	b.container.Set(name, o)
	return o
}

// CollectionType returns the type of a collection query: a cursor
// connection, a page or a plain list depending on the pagination of op
func (b *TypeBuilder) CollectionType(shortName string, op resource.Operation, item *graphql.Object) graphql.Output {
	if !b.pagination.IsGraphQLEnabled(op) {
		return graphql.NewList(item)
	}
	if b.pagination.GraphQLType(op) == pagination.TypePage {
		return b.pageType(shortName, item)
	}
	return b.connectionType(shortName, item)
}

func (b *TypeBuilder) connectionType(shortName string, item *graphql.Object) graphql.Output {
	name := shortName + "Connection"
	if t, err := b.container.Get(name); err == nil {
		return t.(graphql.Output)
	}

	edge := graphql.NewObject(graphql.ObjectConfig{
		Name:        shortName + "Edge",
		Description: "Edge of " + shortName + ".",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: item},
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	pageInfo := graphql.NewObject(graphql.ObjectConfig{
		Name:        shortName + "PageInfo",
		Description: "Information about the current page.",
		Fields: graphql.Fields{
			"endCursor":       &graphql.Field{Type: graphql.String},
			"startCursor":     &graphql.Field{Type: graphql.String},
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})
	connection := graphql.NewObject(graphql.ObjectConfig{
		Name:        name,
		Description: "Connection for " + shortName + ".",
		Fields: graphql.Fields{
			"edges":      &graphql.Field{Type: graphql.NewList(edge)},
			"pageInfo":   &graphql.Field{Type: graphql.NewNonNull(pageInfo)},
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
	b.container.Set(edge.Name(), edge)
	b.container.Set(pageInfo.Name(), pageInfo)
	b.container.Set(name, connection)
	return connection
}

func (b *TypeBuilder) pageType(shortName string, item *graphql.Object) graphql.Output {
	name := shortName + "PageConnection"
	if t, err := b.container.Get(name); err == nil {
		return t.(graphql.Output)
	}

	info := graphql.NewObject(graphql.ObjectConfig{
		Name:        shortName + "PaginationInfo",
		Description: "Information about the pagination.",
		Fields: graphql.Fields{
			"itemsPerPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"lastPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalCount":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasNextPage":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})
	page := graphql.NewObject(graphql.ObjectConfig{
		Name:        name,
		Description: "Page connection for " + shortName + ".",
		Fields: graphql.Fields{
			"collection":     &graphql.Field{Type: graphql.NewList(item)},
			"paginationInfo": &graphql.Field{Type: graphql.NewNonNull(info)},
		},
	})
	b.container.Set(info.Name(), info)
	b.container.Set(name, page)
	return page
}

// operationPrefix is the part of field and type names that comes from the
// operation name. Default queries have none.
func operationPrefix(op resource.Operation) string {
	switch op.Name() {
	case resource.GraphQLItemQuery, resource.GraphQLCollectionQuery:
		return ""
	case resource.GraphQLSubscription:
		return "update"
	}
	return ustrings.LcFirst(ustrings.ToCamelCase(op.Name()))
}

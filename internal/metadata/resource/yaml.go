package resource

import (
	"context"
	"fmt"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/extractor"
)

// YAMLSource is the part of the YAML extractor used here
type YAMLSource interface {
	Resource(class string) (extractor.ResourceConfig, bool, error)
}

// YAMLFactory appends the declaration found in resource configuration files
type YAMLFactory struct {
	inner  CollectionFactory
	source YAMLSource
}

// NewYAMLFactory decorates inner
func NewYAMLFactory(inner CollectionFactory, source YAMLSource) *YAMLFactory {
	return &YAMLFactory{inner: inner, source: source}
}

func (f *YAMLFactory) Create(ctx context.Context, resourceClass string) (MetadataCollection, error) {
	c, err := f.inner.Create(ctx, resourceClass)
	if err != nil {
		return c, err
	}

	rc, ok, err := f.source.Resource(resourceClass)
	if err != nil || !ok {
		return c, err
	}
	md, err := fromResourceConfig(rc)
	if err != nil {
		return c, err
	}
	c.Metadata = append(append([]Metadata(nil), c.Metadata...), md)
	return c, nil
}

func fromResourceConfig(rc extractor.ResourceConfig) (Metadata, error) {
	defaults, err := fromOperationConfig(rc.Defaults, false)
	if err != nil {
		return Metadata{}, fmt.Errorf("resource %s defaults: %w", rc.Class, err)
	}
	md := New(rc.Class).
		WithShortName(rc.ShortName).
		WithDescription(rc.Description).
		WithDefaults(defaults)

	ops := make([]Operation, 0, len(rc.Operations))
	for i, oc := range rc.Operations {
		op, err := fromOperationConfig(oc, true)
		if err != nil {
			return Metadata{}, fmt.Errorf("resource %s operation #%d: %w", rc.Class, i, err)
		}
		if op.IsGraphQL() {
			return Metadata{}, apierr.Configuration("resource %s operation #%d: %s is a GraphQL operation, declare it under graphQlOperations", rc.Class, i, op.Kind())
		}
		ops = append(ops, op)
	}
	if len(ops) > 0 {
		md = md.WithOperations(ops...)
	}

	gql := make([]Operation, 0, len(rc.GraphQL))
	for i, oc := range rc.GraphQL {
		op, err := fromOperationConfig(oc, true)
		if err != nil {
			return Metadata{}, fmt.Errorf("resource %s GraphQL operation #%d: %w", rc.Class, i, err)
		}
		if !op.IsGraphQL() {
			return Metadata{}, apierr.Configuration("resource %s GraphQL operation #%d: %s is not a GraphQL operation", rc.Class, i, op.Kind())
		}
		gql = append(gql, op)
	}
	if len(gql) > 0 {
		md = md.WithGraphQLOperations(gql...)
	}
	return md, nil
}

func fromOperationConfig(oc extractor.OperationConfig, requireKind bool) (Operation, error) {
	kind := Kind(strings.ToLower(oc.Kind))
	if requireKind && !kind.Valid() {
		return Operation{}, apierr.Configuration("unknown operation kind %q", oc.Kind)
	}

	op := NewOperation(kind).
		WithName(oc.Name).
		WithMethod(strings.ToUpper(oc.Method)).
		WithUriTemplate(oc.UriTemplate).
		WithDescription(oc.Description).
		WithPaginationType(oc.PaginationType).
		WithSecurity(oc.Security).
		WithSecurityMessage(oc.SecurityMessage).
		WithSecurityPostDenormalize(oc.SecurityPostDenormalize).
		WithSecurityPostDenormalizeMessage(oc.SecurityPostDenormalizeMessage).
		WithInput(oc.Input).
		WithOutput(oc.Output).
		WithMessenger(oc.Messenger).
		WithSubresourceProperty(oc.SubresourceProperty)

	setBool := func(b *bool, with func(Operation, bool) Operation) {
		if b != nil {
			op = with(op, *b)
		}
	}
	setBool(oc.PaginationEnabled, Operation.WithPaginationEnabled)
	setBool(oc.PaginationClientEnabled, Operation.WithPaginationClientEnabled)
	setBool(oc.PaginationClientItemsPerPage, Operation.WithPaginationClientItemsPerPage)
	setBool(oc.PaginationPartial, Operation.WithPaginationPartial)
	setBool(oc.PaginationClientPartial, Operation.WithPaginationClientPartial)
	setBool(oc.PaginationFetchJoinCollection, Operation.WithPaginationFetchJoinCollection)
	setBool(oc.Read, Operation.WithRead)
	setBool(oc.Deserialize, Operation.WithDeserialize)
	setBool(oc.Validate, Operation.WithValidate)
	setBool(oc.Write, Operation.WithWrite)
	setBool(oc.Serialize, Operation.WithSerialize)
	setBool(oc.Mercure, Operation.WithMercure)

	if oc.PaginationItemsPerPage != nil {
		op = op.WithPaginationItemsPerPage(*oc.PaginationItemsPerPage)
	}
	if oc.PaginationMaximumItemsPerPage != nil {
		op = op.WithPaginationMaximumItemsPerPage(*oc.PaginationMaximumItemsPerPage)
	}
	if oc.Priority != nil {
		op = op.WithPriority(*oc.Priority)
	}

	if oc.Order != nil {
		clauses := make([]OrderClause, 0, len(oc.Order))
		for _, o := range oc.Order {
			clauses = append(clauses, OrderClause{Field: o.Field, Direction: strings.ToUpper(o.Direction)})
		}
		op = op.WithOrder(clauses...)
	}
	if oc.Filters != nil {
		op = op.WithFilters(oc.Filters...)
	}
	if oc.NormalizationContext != nil {
		op = op.WithNormalizationContext(fromContextConfig(oc.NormalizationContext))
	}
	if oc.DenormalizationContext != nil {
		op = op.WithDenormalizationContext(fromContextConfig(oc.DenormalizationContext))
	}
	if oc.Identifiers != nil {
		links := make([]Link, 0, len(oc.Identifiers))
		for _, l := range oc.Identifiers {
			links = append(links, Link{Parameter: l.Parameter, Class: l.Class, Property: l.Property})
		}
		op = op.WithIdentifiers(links...)
	}
	for k, v := range oc.Extra {
		op = op.WithExtra(k, v)
	}
	return op, nil
}

func fromContextConfig(cc *extractor.ContextConfig) SerializationContext {
	sc := SerializationContext{Groups: cc.Groups}
	if cc.SkipNullValues != nil {
		sc.SkipNullValues = *cc.SkipNullValues
	}
	return sc
}

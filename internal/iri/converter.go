// Package iri converts between items and their IRIs.
//
// An item's IRI is the collection path of its resource followed by its
// identifier: /dummies/1, or /composites/a=1;b=2 for composite identifiers.
package iri

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/identifier"
	"github.com/Foxprodev/core/internal/metadata/identifiers"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"go.uber.org/zap"
)

// Options configure GetItemFromIri
type Options struct {
	// Reference skips the data provider and returns a new item holding
	// only the identifiers
	Reference bool
	// Context is handed to the item data provider
	Context dataprovider.Context
}

// Converter resolves IRIs
type Converter struct {
	registry   *class.Registry
	resources  resource.CollectionFactory
	extractor  *identifiers.Extractor
	identifier *identifier.Converter
	items      dataprovider.ItemDataProvider
	logger     *zap.Logger
}

// NewConverter creates an IRI converter
func NewConverter(registry *class.Registry, resources resource.CollectionFactory, extractor *identifiers.Extractor, converter *identifier.Converter, items dataprovider.ItemDataProvider, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		registry:   registry,
		resources:  resources,
		extractor:  extractor,
		identifier: converter,
		items:      items,
		logger:     logger,
	}
}

// GetIriFromResourceClass returns the collection IRI of resourceClass
func (c *Converter) GetIriFromResourceClass(ctx context.Context, resourceClass string) (string, error) {
	if !c.registry.IsResourceClass(resourceClass) {
		return "", fmt.Errorf("%w: %q", apierr.ErrResourceClassNotFound, resourceClass)
	}
	shortName := class.ShortName(resourceClass)
	if c.resources != nil {
		md, err := c.resources.Create(ctx, resourceClass)
		if err != nil {
			return "", err
		}
		if name := md.ShortName(); name != "" {
			shortName = name
		}
	}
	return resource.DefaultUriTemplate(shortName, true), nil
}

// GetIriFromItem returns the IRI of item
func (c *Converter) GetIriFromItem(ctx context.Context, item interface{}) (string, error) {
	resourceClass, err := c.registry.GetResourceClass(item, "")
	if err != nil {
		return "", err
	}
	base, err := c.GetIriFromResourceClass(ctx, resourceClass)
	if err != nil {
		return "", err
	}
	ids, err := c.extractor.IdentifiersFromItem(ctx, item)
	if err != nil {
		return "", fmt.Errorf("%w: unable to generate an IRI for the item of type %q: %v", apierr.ErrInvalidArgument, resourceClass, err)
	}

	var id string
	if ids.Len() == 1 {
		v, _ := ids.Get(ids.Keys()[0])
		id = identifier.FormatValue(v)
	} else {
		id = identifier.NormalizeCompositeIdentifier(ids)
	}
	return base + "/" + id, nil
}

// GetItemFromIri returns the item an IRI designates. An IRI matching no
// resource is an ErrInvalidIRI; a missing item is an ErrNotFound.
func (c *Converter) GetItemFromIri(ctx context.Context, iri string, opts Options) (interface{}, error) {
	resourceClass, rawID, err := c.match(ctx, iri)
	if err != nil {
		return nil, err
	}

	raw, err := c.rawIdentifiers(ctx, resourceClass, rawID)
	if err != nil {
		return nil, err
	}
	ids, err := c.identifier.Convert(ctx, raw, resourceClass, identifier.Options{})
	if err != nil {
		return nil, err
	}

	if opts.Reference {
		item, err := c.registry.New(resourceClass)
		if err != nil {
			return nil, err
		}
		for _, name := range ids.Keys() {
			v, _ := ids.Get(name)
			if err := class.SetValue(item, name, v); err != nil {
				return nil, err
			}
		}
		return item, nil
	}

	dctx := opts.Context
	if dctx.Operation.Class() == "" {
		dctx.Operation = resource.Get().WithClass(resourceClass)
	}
	item, err := c.items.GetItem(ctx, resourceClass, ids, dctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apierr.NotFound("Item not found for %q.", iri)
	}
	return item, nil
}

// match finds the resource class whose collection path prefixes iri
func (c *Converter) match(ctx context.Context, iri string) (string, string, error) {
	u, err := url.Parse(iri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", apierr.ErrInvalidIRI, iri, err)
	}
	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", fmt.Errorf("%w: No route matches %q.", apierr.ErrInvalidIRI, iri)
	}
	prefix, rawID := path[:idx], path[idx+1:]

	for _, resourceClass := range c.registry.Classes() {
		base, err := c.GetIriFromResourceClass(ctx, resourceClass)
		if err != nil {
			c.logger.Warn("skipping resource while matching an IRI",
				zap.String("resource", resourceClass),
				zap.Error(err),
			)
			continue
		}
		if base == prefix {
			return resourceClass, rawID, nil
		}
	}
	return "", "", fmt.Errorf("%w: No route matches %q.", apierr.ErrInvalidIRI, iri)
}

func (c *Converter) rawIdentifiers(ctx context.Context, resourceClass, rawID string) (map[string]interface{}, error) {
	names, err := c.extractor.Identifiers(ctx, resourceClass)
	if err != nil {
		return nil, err
	}
	if len(names) == 1 {
		return map[string]interface{}{names[0]: rawID}, nil
	}

	parsed, err := identifier.ParseCompositeIdentifier(rawID)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, ok := parsed[name]; !ok {
			return nil, fmt.Errorf("%w: missing identifier %q in %q", apierr.ErrInvalidIdentifier, name, rawID)
		}
	}
	return parsed, nil
}

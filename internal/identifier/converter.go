package identifier

import (
	"context"
	"fmt"
	"sort"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// LinkResolver lists the identifier links of a class
type LinkResolver interface {
	Links(ctx context.Context, op resource.Operation) ([]resource.Link, error)
}

// Options narrow a conversion
type Options struct {
	// Links overrides the identifiers of the class, for composite and
	// cross-resource identifiers
	Links []resource.Link
}

// Converter converts raw identifiers to typed values
type Converter struct {
	links         LinkResolver
	properties    property.Factory
	denormalizers []Denormalizer
}

// NewConverter creates a converter. Denormalizers are tried in order and
// the first one supporting an identifier is the only one to run.
func NewConverter(links LinkResolver, properties property.Factory, denormalizers ...Denormalizer) *Converter {
	if len(denormalizers) == 0 {
		denormalizers = DefaultDenormalizers()
	}
	return &Converter{links: links, properties: properties, denormalizers: denormalizers}
}

// Convert converts identifiers of resourceClass. The result lists the
// known identifiers in declaration order followed by any other input
// value, unconverted.
func (c *Converter) Convert(ctx context.Context, identifiers map[string]interface{}, resourceClass string, opts Options) (*ordered.Map, error) {
	links := opts.Links
	if len(links) == 0 {
		var err error
		links, err = c.links.Links(ctx, resource.NewOperation(resource.KindGet).WithClass(resourceClass))
		if err != nil {
			return nil, err
		}
	}

	out := ordered.New()
	for _, link := range links {
		value, ok := identifiers[link.Parameter]
		if !ok {
			continue
		}
		class := link.Class
		if class == "" {
			class = resourceClass
		}
		md, err := c.properties.Create(ctx, class, link.Property, property.Options{})
		if err != nil {
			return nil, err
		}

		typ := md.Type()
		if typ != nil {
			value, err = c.denormalize(link.Parameter, value, *typ)
			if err != nil {
				return nil, err
			}
		}
		out.Set(link.Parameter, value)
	}

	rest := make([]string, 0, len(identifiers))
	for name := range identifiers {
		if !out.Has(name) && !linked(links, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out.Set(name, identifiers[name])
	}
	return out, nil
}

func (c *Converter) denormalize(name string, value interface{}, typ property.Type) (interface{}, error) {
	for _, d := range c.denormalizers {
		if !d.Supports(value, typ) {
			continue
		}
		converted, err := d.Denormalize(value, typ)
		if err != nil {
			return nil, fmt.Errorf("%w: Identifier %q could not be denormalized: %v", apierr.ErrInvalidIdentifier, name, err)
		}
		return converted, nil
	}
	return value, nil
}

func linked(links []resource.Link, name string) bool {
	for _, l := range links {
		if l.Parameter == name {
			return true
		}
	}
	return false
}

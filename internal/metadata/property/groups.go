package property

import (
	"context"

	"github.com/Foxprodev/core/internal/class"
)

// GroupsFactory derives readability and link embedding from serializer
// groups when the caller asks for specific groups. A property is readable
// and writable in those groups when it declares one of them; a relation is
// embedded when the related class exposes a property in one of them.
type GroupsFactory struct {
	inner    Factory
	names    NameFactory
	registry *class.Registry
}

// NewGroupsFactory decorates inner
func NewGroupsFactory(inner Factory, names NameFactory, registry *class.Registry) *GroupsFactory {
	return &GroupsFactory{inner: inner, names: names, registry: registry}
}

func (f *GroupsFactory) Create(ctx context.Context, resourceClass, property string, opts Options) (Metadata, error) {
	md, err := f.inner.Create(ctx, resourceClass, property, opts)
	if err != nil || len(opts.SerializerGroups) == 0 {
		return md, err
	}

	inGroups := intersects(md.Groups(), opts.SerializerGroups)
	if md.Readable() == nil {
		md = md.WithReadable(inGroups)
	}
	if md.Writable() == nil && !md.IsIdentifier() {
		md = md.WithWritable(inGroups)
	}

	typ := md.Type()
	if typ == nil || f.names == nil {
		return md, nil
	}
	related := typ.ClassName()
	if related == "" || !f.registry.IsResourceClass(related) {
		return md, nil
	}
	if md.ReadableLink() != nil && md.WritableLink() != nil {
		return md, nil
	}

	embed, err := f.exposesGroups(ctx, related, opts)
	if err != nil {
		return md, err
	}
	if md.ReadableLink() == nil {
		md = md.WithReadableLink(embed)
	}
	if md.WritableLink() == nil {
		md = md.WithWritableLink(embed)
	}
	return md, nil
}

func (f *GroupsFactory) exposesGroups(ctx context.Context, class string, opts Options) (bool, error) {
	names, err := f.names.Create(ctx, class, Options{})
	if err != nil {
		return false, err
	}
	for _, name := range names.Names() {
		md, err := f.inner.Create(ctx, class, name, Options{})
		if err != nil {
			return false, err
		}
		if intersects(md.Groups(), opts.SerializerGroups) {
			return true, nil
		}
	}
	return false, nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

package serializer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/dataprovider"
	"github.com/Foxprodev/core/internal/iri"
	"github.com/Foxprodev/core/internal/metadata/identifiers"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/Foxprodev/core/internal/security"
	"github.com/Foxprodev/core/internal/util/ordered"
	"go.uber.org/zap"
)

// IriConverter resolves relations to and from IRIs
type IriConverter interface {
	GetIriFromItem(ctx context.Context, item interface{}) (string, error)
	GetItemFromIri(ctx context.Context, iri string, opts iri.Options) (interface{}, error)
}

// Keys added to GraphQL normalizations so the resolvers of nested fields
// can find the item behind their source
const (
	ItemResourceClassKey = "#itemResourceClass"
	ItemIdentifiersKey   = "#itemIdentifiers"
)

// Normalizer turns an object into its wire representation
type Normalizer interface {
	Normalize(ctx context.Context, object interface{}, format string, sctx *Context) (interface{}, error)
}

// Denormalizer builds an object of resourceClass from decoded data
type Denormalizer interface {
	Denormalize(ctx context.Context, data interface{}, resourceClass, format string, sctx *Context) (interface{}, error)
}

// Attribute is an allowed property with its metadata
type Attribute struct {
	Name     string
	Metadata property.Metadata
}

// Config holds the collaborators of an ItemNormalizer
type Config struct {
	Registry      *class.Registry
	Resources     resource.CollectionFactory
	Names         property.NameFactory
	Properties    property.Factory
	Identifiers   *identifiers.Extractor
	Iris          IriConverter
	Accessor      PropertyAccessor
	NameConverter NameConverter
	// Checker evaluates property security expressions. Nil grants everything.
	Checker      security.ResourceAccessChecker
	Items        dataprovider.ItemDataProvider
	Transformers []DataTransformer
	// AllowPlainIdentifiers accepts bare identifiers for relations
	AllowPlainIdentifiers bool
	Logger                *zap.Logger
}

// ItemNormalizer is the normalize/denormalize engine shared by every
// format. Relations are written as IRIs unless their property is a
// readable link, in which case the related object is embedded.
type ItemNormalizer struct {
	registry              *class.Registry
	resources             resource.CollectionFactory
	names                 property.NameFactory
	properties            property.Factory
	identifiers           *identifiers.Extractor
	iris                  IriConverter
	accessor              PropertyAccessor
	nameConverter         NameConverter
	checker               security.ResourceAccessChecker
	items                 dataprovider.ItemDataProvider
	transformers          []DataTransformer
	allowPlainIdentifiers bool
	logger                *zap.Logger
}

// NewItemNormalizer creates the normalizer
func NewItemNormalizer(cfg Config) *ItemNormalizer {
	if cfg.Accessor == nil {
		cfg.Accessor = ReflectionAccessor{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ItemNormalizer{
		registry:              cfg.Registry,
		resources:             cfg.Resources,
		names:                 cfg.Names,
		properties:            cfg.Properties,
		identifiers:           cfg.Identifiers,
		iris:                  cfg.Iris,
		accessor:              cfg.Accessor,
		nameConverter:         cfg.NameConverter,
		checker:               cfg.Checker,
		items:                 cfg.Items,
		transformers:          cfg.Transformers,
		allowPlainIdentifiers: cfg.AllowPlainIdentifiers,
		logger:                cfg.Logger,
	}
}

// Supports reports whether object is a resource
func (n *ItemNormalizer) Supports(object interface{}) bool {
	name, ok := n.registry.ClassOf(object)
	return ok && n.registry.IsResourceClass(name)
}

// NameConverter returns the configured name converter, possibly nil
func (n *ItemNormalizer) NameConverter() NameConverter {
	return n.nameConverter
}

// Normalize returns the object's properties as an ordered map
func (n *ItemNormalizer) Normalize(ctx context.Context, object interface{}, format string, sctx *Context) (interface{}, error) {
	sctx = sctx.Clone()
	if err := n.Prepare(ctx, object, sctx); err != nil {
		return nil, err
	}
	if out, ok, err := n.transformOutput(ctx, object, format, sctx); ok || err != nil {
		return out, err
	}

	if iri, err := n.Iri(ctx, object, sctx); err == nil {
		sctx.State.Resources[iri] = iri
	}

	attributes, err := n.Attributes(ctx, object, sctx, true)
	if err != nil {
		return nil, err
	}

	out := ordered.New()
	for _, attr := range attributes {
		value, err := n.NormalizeAttribute(ctx, object, attr, format, sctx)
		if err != nil {
			return nil, err
		}
		if value == nil && sctx.SkipNullValues {
			continue
		}
		out.Set(normalizeName(n.nameConverter, attr.Name), value)
	}

	if format == FormatGraphQL {
		if err := n.addGraphQLKeys(ctx, object, sctx, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// addGraphQLKeys exposes the identifier as _id and the IRI as id, and
// records the class and identifiers of object
func (n *ItemNormalizer) addGraphQLKeys(ctx context.Context, object interface{}, sctx *Context, out *ordered.Map) error {
	if id, ok := out.Get("id"); ok {
		iri, err := n.Iri(ctx, object, sctx)
		if err != nil {
			return err
		}
		out.InsertAfter("id", "_id", id)
		out.Set("id", iri)
	}
	if n.identifiers == nil {
		return nil
	}
	ids, err := n.identifiers.IdentifiersFromItem(ctx, object)
	if err != nil {
		return err
	}
	out.Set(ItemResourceClassKey, sctx.ResourceClass)
	out.Set(ItemIdentifiersKey, ids)
	return nil
}

// Prepare resolves the resource class, operation and groups of sctx for
// object
func (n *ItemNormalizer) Prepare(ctx context.Context, object interface{}, sctx *Context) error {
	resourceClass, err := n.registry.GetResourceClass(object, sctx.ResourceClass)
	if err != nil {
		return err
	}
	sctx.ResourceClass = resourceClass
	if err := n.resolveOperation(ctx, sctx); err != nil {
		return err
	}
	if sctx.Groups == nil {
		sctx.Groups = sctx.Operation.NormalizationContext().Groups
	}
	return nil
}

// resolveOperation falls back to the item GET operation of the resource
// when the caller did not name one
func (n *ItemNormalizer) resolveOperation(ctx context.Context, sctx *Context) error {
	if sctx.Operation.Class() != "" || n.resources == nil {
		return nil
	}
	collection, err := n.resources.Create(ctx, sctx.ResourceClass)
	if err != nil {
		return err
	}
	if op, err := collection.Operation("", false, true); err == nil {
		sctx.Operation = op
	}
	return nil
}

// Iri returns the IRI of object, computing it once per context
func (n *ItemNormalizer) Iri(ctx context.Context, object interface{}, sctx *Context) (string, error) {
	if sctx.IRI != "" {
		return sctx.IRI, nil
	}
	if n.iris == nil {
		return "", apierr.Configuration("No IRI converter configured.")
	}
	iri, err := n.iris.GetIriFromItem(ctx, object)
	if err != nil {
		n.logger.Debug("object has no IRI",
			zap.String("resource", sctx.ResourceClass),
			zap.Error(err),
		)
		return "", err
	}
	sctx.IRI = iri
	return iri, nil
}

// ShortName returns the short name of resourceClass as configured in its
// metadata
func (n *ItemNormalizer) ShortName(ctx context.Context, resourceClass string) string {
	if n.resources != nil {
		if md, err := n.resources.Create(ctx, resourceClass); err == nil && md.ShortName() != "" {
			return md.ShortName()
		}
	}
	return class.ShortName(resourceClass)
}

// Value reads attr on object
func (n *ItemNormalizer) Value(object interface{}, attr Attribute) (interface{}, error) {
	return n.accessor.GetValue(object, attr.Name)
}

// Registry returns the class registry
func (n *ItemNormalizer) Registry() *class.Registry {
	return n.registry
}

// Iris returns the IRI converter
func (n *ItemNormalizer) Iris() IriConverter {
	return n.iris
}

func (n *ItemNormalizer) propertyOptions(sctx *Context) property.Options {
	return property.Options{SerializerGroups: sctx.Groups, OperationName: sctx.Operation.Name()}
}

// Attributes lists the properties of object allowed in sctx. Readable
// properties are listed for normalization; writable ones, and initializable
// ones when creating, for denormalization.
func (n *ItemNormalizer) Attributes(ctx context.Context, object interface{}, sctx *Context, normalization bool) ([]Attribute, error) {
	candidates, err := n.candidates(ctx, sctx.ResourceClass, sctx)
	if err != nil {
		return nil, err
	}

	creating := sctx.ObjectToPopulate == nil
	out := make([]Attribute, 0, len(candidates))
	for _, attr := range candidates {
		if !sctx.Attributes.Allows(attr.Name) {
			continue
		}
		md := attr.Metadata
		if normalization && !md.IsReadable() {
			continue
		}
		if !normalization && !md.IsWritable() && !(creating && md.IsInitializable()) {
			continue
		}
		granted, err := n.canAccessAttribute(ctx, object, attr, sctx)
		if err != nil {
			return nil, err
		}
		if granted {
			out = append(out, attr)
		}
	}
	return out, nil
}

// candidates returns every property of resourceClass with its metadata,
// memoized for the duration of the call
func (n *ItemNormalizer) candidates(ctx context.Context, resourceClass string, sctx *Context) ([]Attribute, error) {
	opts := n.propertyOptions(sctx)
	key := "attributes|" + resourceClass + "|" + opts.OperationName + "|" + strings.Join(opts.SerializerGroups, ",")
	if cached, ok := sctx.State.Cache.Get(key); ok {
		return cached.([]Attribute), nil
	}

	names, err := n.names.Create(ctx, resourceClass, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, 0, names.Len())
	for _, name := range names.Names() {
		md, err := n.properties.Create(ctx, resourceClass, name, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, Attribute{Name: name, Metadata: md})
	}
	sctx.State.Cache.Set(key, out)
	return out, nil
}

func (n *ItemNormalizer) canAccessAttribute(ctx context.Context, object interface{}, attr Attribute, sctx *Context) (bool, error) {
	expr := attr.Metadata.Security()
	if expr == "" || n.checker == nil {
		return true, nil
	}
	return n.checker.IsGranted(ctx, sctx.ResourceClass, expr, security.Vars{
		Object:         object,
		PreviousObject: sctx.PreviousObject,
	})
}

// RelationClass returns the resource class a property of type typ points
// to, or "" for other properties
func (n *ItemNormalizer) RelationClass(typ *property.Type) string {
	if typ == nil {
		return ""
	}
	name := typ.ClassName()
	if name != "" && n.registry.IsResourceClass(name) {
		return name
	}
	return ""
}

// NormalizeAttribute reads attr on object and normalizes its value
func (n *ItemNormalizer) NormalizeAttribute(ctx context.Context, object interface{}, attr Attribute, format string, sctx *Context) (interface{}, error) {
	value, err := n.accessor.GetValue(object, attr.Name)
	if err != nil {
		return nil, err
	}

	typ := attr.Metadata.Type()
	if related := n.RelationClass(typ); related != "" {
		if typ.IsCollection() {
			return n.normalizeCollectionOfRelations(ctx, attr, value, related, format, sctx)
		}
		return n.normalizeRelation(ctx, attr, value, related, format, sctx)
	}
	return n.NormalizeValue(ctx, value, format, sctx.Child(attr.Name, ""))
}

func (n *ItemNormalizer) normalizeCollectionOfRelations(ctx context.Context, attr Attribute, value interface{}, related, format string, sctx *Context) (interface{}, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return []interface{}{}, nil
	}
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := n.normalizeRelation(ctx, attr, rv.Index(i).Interface(), related, format, sctx)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// normalizeRelation embeds the related object when its property is a
// readable link or the attribute filter selects nested attributes, and
// writes its IRI otherwise
func (n *ItemNormalizer) normalizeRelation(ctx context.Context, attr Attribute, value interface{}, related, format string, sctx *Context) (interface{}, error) {
	if IsNil(value) {
		return nil, nil
	}

	if !attr.Metadata.IsReadableLink() && !sctx.Attributes.HasChildren(attr.Name) {
		iri, err := n.iris.GetIriFromItem(ctx, value)
		if err != nil {
			return nil, err
		}
		sctx.State.Resources[iri] = iri
		if push, _ := attr.Metadata.Extra("push"); push == true {
			sctx.State.ResourcesToPush[iri] = iri
		}
		return iri, nil
	}

	return n.Normalize(ctx, value, format, sctx.Child(attr.Name, related))
}

// NormalizeValue normalizes a value that is not a relation: scalars,
// dates, identifiers, embedded structs, slices and maps
func (n *ItemNormalizer) NormalizeValue(ctx context.Context, value interface{}, format string, sctx *Context) (interface{}, error) {
	if scalar, ok := normalizeScalar(value); ok {
		return scalar, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return n.NormalizeValue(ctx, rv.Elem().Interface(), format, sctx)

	case reflect.Struct:
		if name, ok := n.registry.ClassOfType(rv.Type()); ok && n.registry.IsResourceClass(name) {
			return n.Normalize(ctx, value, format, sctx.Child("", name))
		}
		out := ordered.New()
		for _, field := range class.Fields(rv.Type()) {
			fv, err := rv.FieldByIndexErr(field.Index)
			if err != nil {
				continue
			}
			v, err := n.NormalizeValue(ctx, fv.Interface(), format, sctx)
			if err != nil {
				return nil, err
			}
			out.Set(normalizeName(n.nameConverter, field.Name), v)
		}
		return out, nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []interface{}{}, nil
		}
		out := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := n.NormalizeValue(ctx, rv.Index(i).Interface(), format, sctx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case reflect.Map:
		out := ordered.New()
		for _, key := range sortedKeys(rv) {
			v, err := n.NormalizeValue(ctx, rv.MapIndex(key).Interface(), format, sctx)
			if err != nil {
				return nil, err
			}
			out.Set(fmt.Sprint(key.Interface()), v)
		}
		return out, nil
	}
	return value, nil
}

// Denormalize builds or updates an object of resourceClass from data
func (n *ItemNormalizer) Denormalize(ctx context.Context, data interface{}, resourceClass, format string, sctx *Context) (interface{}, error) {
	sctx = sctx.Clone()
	fields, ok := AsOrderedMap(data)
	if !ok {
		return nil, apierr.NewUnexpectedValue("Expected an object to denormalize %q, %s given.", resourceClass, apierr.Describe(data))
	}

	sctx.ResourceClass = resourceClass
	if n.registry.IsResourceClass(resourceClass) {
		if err := n.resolveOperation(ctx, sctx); err != nil {
			return nil, err
		}
	}
	if out, ok, err := n.transformInput(ctx, fields, resourceClass, format, sctx); ok || err != nil {
		return out, err
	}

	if sctx.Groups == nil {
		sctx.Groups = sctx.Operation.DenormalizationContext().Groups
	}

	object := sctx.ObjectToPopulate
	creating := object == nil
	if creating {
		var err error
		if object, err = n.registry.New(resourceClass); err != nil {
			return nil, err
		}
	} else if sctx.PreviousObject == nil {
		sctx.PreviousObject = ShallowCopy(object)
	}

	attributes, err := n.Attributes(ctx, object, sctx, false)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]Attribute, len(attributes))
	for _, attr := range attributes {
		allowed[attr.Name] = attr
	}

	written := make([]Attribute, 0, fields.Len())
	for _, key := range fields.Keys() {
		name := denormalizeName(n.nameConverter, key)
		attr, ok := allowed[name]
		if !ok {
			if sctx.DisallowExtraAttributes {
				return nil, apierr.NewUnexpectedValue("Extra attributes are not allowed (%q is unknown).", key)
			}
			continue
		}
		raw, _ := fields.Get(key)
		value, err := n.DenormalizeAttribute(ctx, attr, raw, format, sctx)
		if err != nil {
			return nil, err
		}
		if err := n.accessor.SetValue(object, name, value); err != nil {
			return nil, err
		}
		written = append(written, attr)
	}

	if err := n.rollbackDenied(ctx, object, written, format, sctx); err != nil {
		return nil, err
	}
	return object, nil
}

// rollbackDenied restores every written attribute whose post-denormalize
// security rule rejects the new state: to the previous value on update,
// to the declared default on create
func (n *ItemNormalizer) rollbackDenied(ctx context.Context, object interface{}, written []Attribute, format string, sctx *Context) error {
	if n.checker == nil {
		return nil
	}
	for _, attr := range written {
		expr := attr.Metadata.SecurityPostDenormalize()
		if expr == "" {
			continue
		}
		granted, err := n.checker.IsGranted(ctx, sctx.ResourceClass, expr, security.Vars{
			Object:         object,
			PreviousObject: sctx.PreviousObject,
		})
		if err != nil {
			return err
		}
		if granted {
			continue
		}

		var restored interface{}
		if sctx.PreviousObject != nil {
			if restored, err = n.accessor.GetValue(sctx.PreviousObject, attr.Name); err != nil {
				return err
			}
		} else if def := attr.Metadata.Default(); def != nil {
			if restored, err = n.DenormalizeAttribute(ctx, attr, def, FormatCSV, sctx); err != nil {
				return err
			}
		}
		if err := n.accessor.SetValue(object, attr.Name, restored); err != nil {
			return err
		}
		n.logger.Debug("attribute rolled back by its post-denormalize security rule",
			zap.String("resource", sctx.ResourceClass),
			zap.String("attribute", attr.Name),
		)
	}
	return nil
}

// DenormalizeAttribute converts the raw value of attr to what its property
// holds
func (n *ItemNormalizer) DenormalizeAttribute(ctx context.Context, attr Attribute, value interface{}, format string, sctx *Context) (interface{}, error) {
	typ := attr.Metadata.Type()
	if value == nil {
		if typ != nil && !typ.Nullable && typ.Builtin != "" && !typ.IsCollection() {
			return nil, apierr.NewTypeMismatch(attr.Name, typ.String(), nil)
		}
		return nil, nil
	}
	if typ == nil {
		return plainValue(value), nil
	}

	if related := n.RelationClass(typ); related != "" {
		if typ.IsCollection() {
			items, ok := value.([]interface{})
			if !ok {
				return nil, apierr.NewTypeMismatch(attr.Name, "array", value)
			}
			out := make([]interface{}, 0, len(items))
			for _, item := range items {
				v, err := n.denormalizeRelation(ctx, attr, related, item, format, sctx)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}
		return n.denormalizeRelation(ctx, attr, related, value, format, sctx)
	}

	if typ.IsCollection() {
		if m, ok := AsOrderedMap(value); ok {
			return m.ToMap(), nil
		}
		items, ok := value.([]interface{})
		if !ok {
			return nil, apierr.NewTypeMismatch(attr.Name, "array", value)
		}
		if typ.ValueType == nil {
			return plainValue(items), nil
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			v, err := denormalizeScalar(attr.Name, *typ.ValueType, item, format)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	return denormalizeScalar(attr.Name, *typ, value, format)
}

func (n *ItemNormalizer) denormalizeRelation(ctx context.Context, attr Attribute, related string, value interface{}, format string, sctx *Context) (interface{}, error) {
	if s, ok := value.(string); ok {
		item, err := n.iris.GetItemFromIri(ctx, s, iri.Options{})
		if err == nil {
			return item, nil
		}
		if !n.allowPlainIdentifiers {
			if errors.Is(err, apierr.ErrInvalidIRI) {
				return nil, apierr.NewUnexpectedValue("Invalid IRI %q.", s)
			}
			return nil, err
		}
	}

	if fields, ok := AsOrderedMap(value); ok {
		if !attr.Metadata.IsWritableLink() {
			return nil, apierr.NewUnexpectedValue("Nested documents for attribute %q are not allowed. Use IRIs instead.", attr.Name)
		}
		return n.Denormalize(ctx, fields, related, format, sctx.Child(attr.Name, related))
	}

	if !n.allowPlainIdentifiers {
		return nil, apierr.NewUnexpectedValue("Expected IRI or nested document for attribute %q, %q given.", attr.Name, apierr.Describe(value))
	}
	return n.itemFromPlainIdentifier(ctx, related, value)
}

func (n *ItemNormalizer) itemFromPlainIdentifier(ctx context.Context, related string, value interface{}) (interface{}, error) {
	if n.items == nil || n.identifiers == nil {
		return nil, apierr.Configuration("Plain identifiers need an item data provider.")
	}
	names, err := n.identifiers.Identifiers(ctx, related)
	if err != nil {
		return nil, err
	}
	if len(names) != 1 {
		return nil, apierr.NewUnexpectedValue("Plain identifiers are not supported for %q, which has a composite identifier.", related)
	}

	item, err := n.items.GetItem(ctx, related, ordered.FromPairs(names[0], value), dataprovider.Context{
		Operation: resource.Get().WithClass(related),
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apierr.NotFound("Item not found for %q.", fmt.Sprint(value))
	}
	return item, nil
}

// transformOutput normalizes the output DTO of the operation instead of
// the object when a transformer supports it
func (n *ItemNormalizer) transformOutput(ctx context.Context, object interface{}, format string, sctx *Context) (interface{}, bool, error) {
	output := sctx.Operation.Output()
	if output == "" || sctx.outputTransformed {
		return nil, false, nil
	}
	for _, t := range n.transformers {
		if !t.SupportsTransformation(object, output, sctx) {
			continue
		}
		transformed, err := t.Transform(ctx, object, output, sctx)
		if err != nil {
			return nil, true, err
		}

		child := *sctx
		child.outputTransformed = true
		child.ResourceClass = ""
		if n.Supports(transformed) {
			out, err := n.Normalize(ctx, transformed, format, &child)
			return out, true, err
		}
		out, err := n.NormalizeValue(ctx, transformed, format, &child)
		return out, true, err
	}
	return nil, false, nil
}

// transformInput denormalizes data into the input DTO of the operation and
// transforms it into the resource
func (n *ItemNormalizer) transformInput(ctx context.Context, data *ordered.Map, resourceClass, format string, sctx *Context) (interface{}, bool, error) {
	input := sctx.Operation.Input()
	if input == "" || sctx.inputTransformed {
		return nil, false, nil
	}
	for _, t := range n.transformers {
		if !t.SupportsTransformation(data, resourceClass, sctx) {
			continue
		}

		child := *sctx
		child.inputTransformed = true
		child.PreviousObject = nil
		child.ObjectToPopulate = nil
		if init, ok := t.(DataTransformerInitializer); ok {
			initialized, err := init.Initialize(ctx, input, sctx)
			if err != nil {
				return nil, true, err
			}
			child.ObjectToPopulate = initialized
		}

		dto, err := n.Denormalize(ctx, data, input, format, &child)
		if err != nil {
			return nil, true, err
		}
		out, err := t.Transform(ctx, dto, resourceClass, sctx)
		return out, true, err
	}
	return nil, false, nil
}

// IsNil reports whether value is nil or a nil pointer, map or slice
func IsNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// ShallowCopy returns a shallow copy of a pointer to struct. Other values
// are returned as is.
func ShallowCopy(object interface{}) interface{} {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return object
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface()
}

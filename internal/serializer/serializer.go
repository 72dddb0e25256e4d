// Package serializer converts resources to and from wire formats.
//
// Normalization turns an object into ordered maps, lists and scalars;
// encoding writes that tree as JSON, YAML, XML or CSV. Format packages
// such as jsonapi and hal register their own normalizers for the same
// encoders.
package serializer

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/Foxprodev/core/internal/apierr"
	"go.uber.org/zap"
)

// Format bundles the normalizers and the encoder of one format
type Format struct {
	Item         Normalizer
	Collection   Normalizer
	Denormalizer Denormalizer
	Errors       ErrorNormalizer
	Encoder      Encoder
}

// Serializer dispatches to the registered formats
type Serializer struct {
	mu      sync.RWMutex
	formats map[string]Format
	logger  *zap.Logger
}

// New creates a serializer without formats
func New(logger *zap.Logger) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{formats: make(map[string]Format), logger: logger}
}

// NewDefault registers the json, yaml, xml and csv formats on items
func NewDefault(items *ItemNormalizer, debug bool, logger *zap.Logger) *Serializer {
	s := New(logger)
	collection := NewCollectionNormalizer(items)
	problems := ProblemNormalizer{Debug: debug}
	for name, enc := range map[string]Encoder{
		FormatJSON: JSONEncoder{},
		FormatYAML: YAMLEncoder{},
		FormatXML:  XMLEncoder{},
		FormatCSV:  CSVEncoder{},
	} {
		s.Register(name, Format{
			Item:         items,
			Collection:   collection,
			Denormalizer: items,
			Errors:       problems,
			Encoder:      enc,
		})
	}
	return s
}

// Register adds or replaces a format. A missing collection normalizer
// writes plain lists of items.
func (s *Serializer) Register(name string, f Format) {
	if f.Collection == nil && f.Item != nil {
		f.Collection = NewCollectionNormalizer(f.Item)
	}
	if f.Errors == nil {
		f.Errors = ProblemNormalizer{}
	}
	if f.Encoder == nil {
		f.Encoder = JSONEncoder{}
	}
	s.mu.Lock()
	s.formats[name] = f
	s.mu.Unlock()
}

// Formats lists the registered format names
func (s *Serializer) Formats() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.formats))
	for name := range s.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Serializer) format(name string) (Format, error) {
	s.mu.RLock()
	f, ok := s.formats[name]
	s.mu.RUnlock()
	if !ok {
		return Format{}, apierr.InvalidArgument("Format %q is not supported.", name)
	}
	return f, nil
}

// Normalize normalizes an item, a list or a paginator
func (s *Serializer) Normalize(ctx context.Context, data interface{}, format string, sctx *Context) (interface{}, error) {
	f, err := s.format(format)
	if err != nil {
		return nil, err
	}
	if IsCollection(data) {
		return f.Collection.Normalize(ctx, data, format, sctx)
	}
	if f.Item == nil {
		return nil, apierr.InvalidArgument("Format %q cannot write items.", format)
	}
	return f.Item.Normalize(ctx, data, format, sctx)
}

// Denormalize builds an object of resourceClass from decoded data
func (s *Serializer) Denormalize(ctx context.Context, data interface{}, resourceClass, format string, sctx *Context) (interface{}, error) {
	f, err := s.format(format)
	if err != nil {
		return nil, err
	}
	if f.Denormalizer == nil {
		return nil, apierr.InvalidArgument("Format %q cannot read items.", format)
	}
	return f.Denormalizer.Denormalize(ctx, data, resourceClass, format, sctx)
}

// Serialize normalizes data and encodes it to w
func (s *Serializer) Serialize(ctx context.Context, w io.Writer, data interface{}, format string, sctx *Context) error {
	f, err := s.format(format)
	if err != nil {
		return err
	}
	normalized, err := s.Normalize(ctx, data, format, sctx)
	if err != nil {
		return err
	}
	return f.Encoder.Encode(w, normalized)
}

// Deserialize decodes r and denormalizes it into resourceClass
func (s *Serializer) Deserialize(ctx context.Context, r io.Reader, resourceClass, format string, sctx *Context) (interface{}, error) {
	f, err := s.format(format)
	if err != nil {
		return nil, err
	}
	data, err := f.Encoder.Decode(r)
	if err != nil {
		return nil, err
	}
	return s.Denormalize(ctx, data, resourceClass, format, sctx)
}

// SerializeError writes err in the error document of format and returns
// the HTTP status it maps to. Unknown formats fall back to json.
func (s *Serializer) SerializeError(w io.Writer, err error, format string) (int, error) {
	f, ferr := s.format(format)
	if ferr != nil {
		f = Format{Errors: ProblemNormalizer{}, Encoder: JSONEncoder{}}
	}
	status := apierr.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", zap.String("format", format), zap.Error(err))
	}
	return status, f.Encoder.Encode(w, f.Errors.NormalizeError(err))
}

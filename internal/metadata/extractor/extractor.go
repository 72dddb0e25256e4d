package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Extractor loads resource configuration lazily on first use and merges
// every file it was given. Later files override earlier ones per class.
type Extractor struct {
	sources []source

	once      sync.Once
	resources map[string]ResourceConfig
	order     []string
	err       error
}

type source struct {
	name string
	data []byte
}

// New creates an extractor reading the given files
func New(paths ...string) *Extractor {
	e := &Extractor{}
	for _, p := range paths {
		e.sources = append(e.sources, source{name: p})
	}
	return e
}

// FromBytes creates an extractor over in-memory YAML documents
func FromBytes(docs ...[]byte) *Extractor {
	e := &Extractor{}
	for i, d := range docs {
		e.sources = append(e.sources, source{name: fmt.Sprintf("document #%d", i), data: d})
	}
	return e
}

// Resources returns every configured resource in file order
func (e *Extractor) Resources() ([]ResourceConfig, error) {
	if e == nil {
		return nil, nil
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	out := make([]ResourceConfig, 0, len(e.order))
	for _, class := range e.order {
		out = append(out, e.resources[class])
	}
	return out, nil
}

// Resource returns the configuration of class
func (e *Extractor) Resource(class string) (ResourceConfig, bool, error) {
	if e == nil {
		return ResourceConfig{}, false, nil
	}
	if err := e.load(); err != nil {
		return ResourceConfig{}, false, err
	}
	rc, ok := e.resources[class]
	return rc, ok, nil
}

func (e *Extractor) load() error {
	e.once.Do(func() {
		e.resources = make(map[string]ResourceConfig)
		for _, src := range e.sources {
			data := src.data
			if data == nil {
				var err error
				data, err = os.ReadFile(src.name)
				if err != nil {
					e.err = fmt.Errorf("failed to read resource configuration %s: %w", src.name, err)
					return
				}
			}

			cfg, err := Parse(data)
			if err != nil {
				e.err = fmt.Errorf("invalid resource configuration %s: %w", src.name, err)
				return
			}
			for _, rc := range cfg.Resources {
				if _, seen := e.resources[rc.Class]; !seen {
					e.order = append(e.order, rc.Class)
				}
				e.resources[rc.Class] = rc
			}
		}
	})
	return e.err
}

// Parse decodes one or more YAML documents
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	merged := &Config{}
	for {
		var cfg Config
		err := dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		merged.Resources = append(merged.Resources, cfg.Resources...)
	}
	return merged, nil
}

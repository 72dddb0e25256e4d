// Package extractor reads resource configuration from YAML files.
//
// A file lists resources by class name:
//
//	resources:
//	  Dummy:
//	    shortName: Dummy
//	    description: A dummy
//	    operations:
//	      - kind: get
//	      - kind: get_collection
//	        paginationItemsPerPage: 5
//	        order: {name: DESC}
//	    properties:
//	      name:
//	        description: The dummy name
//	        required: true
package extractor

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the root of a resource configuration file
type Config struct {
	Resources ResourceList `yaml:"resources"`
}

// ResourceConfig configures one resource class
type ResourceConfig struct {
	Class       string            `yaml:"-"`
	ShortName   string            `yaml:"shortName"`
	Description string            `yaml:"description"`
	Defaults    OperationConfig   `yaml:"defaults"`
	Operations  []OperationConfig `yaml:"operations"`
	GraphQL     []OperationConfig `yaml:"graphQlOperations"`
	Properties  PropertyList      `yaml:"properties"`
}

// OperationConfig configures one REST or GraphQL operation. Unset fields
// are left to the other metadata sources.
type OperationConfig struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Method      string `yaml:"method"`
	UriTemplate string `yaml:"uriTemplate"`
	Description string `yaml:"description"`

	PaginationEnabled             *bool  `yaml:"paginationEnabled"`
	PaginationType                string `yaml:"paginationType"`
	PaginationItemsPerPage        *int   `yaml:"paginationItemsPerPage"`
	PaginationMaximumItemsPerPage *int   `yaml:"paginationMaximumItemsPerPage"`
	PaginationClientEnabled       *bool  `yaml:"paginationClientEnabled"`
	PaginationClientItemsPerPage  *bool  `yaml:"paginationClientItemsPerPage"`
	PaginationPartial             *bool  `yaml:"paginationPartial"`
	PaginationClientPartial       *bool  `yaml:"paginationClientPartial"`
	PaginationFetchJoinCollection *bool  `yaml:"paginationFetchJoinCollection"`

	Order                  OrderList      `yaml:"order"`
	NormalizationContext   *ContextConfig `yaml:"normalizationContext"`
	DenormalizationContext *ContextConfig `yaml:"denormalizationContext"`
	Filters                []string       `yaml:"filters"`

	Security                       string `yaml:"security"`
	SecurityMessage                string `yaml:"securityMessage"`
	SecurityPostDenormalize        string `yaml:"securityPostDenormalize"`
	SecurityPostDenormalizeMessage string `yaml:"securityPostDenormalizeMessage"`

	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	Read        *bool  `yaml:"read"`
	Deserialize *bool  `yaml:"deserialize"`
	Validate    *bool  `yaml:"validate"`
	Write       *bool  `yaml:"write"`
	Serialize   *bool  `yaml:"serialize"`
	Mercure     *bool  `yaml:"mercure"`
	Messenger   string `yaml:"messenger"`
	Priority    *int   `yaml:"priority"`

	Identifiers         []LinkConfig           `yaml:"identifiers"`
	SubresourceProperty string                 `yaml:"subresourceProperty"`
	Extra               map[string]interface{} `yaml:"extra"`
}

// ContextConfig configures a (de)normalization context
type ContextConfig struct {
	Groups         []string `yaml:"groups"`
	SkipNullValues *bool    `yaml:"skipNullValues"`
}

// LinkConfig maps an URI variable to the identifier property of a class
type LinkConfig struct {
	Parameter string `yaml:"parameter"`
	Class     string `yaml:"class"`
	Property  string `yaml:"property"`
}

// PropertyConfig configures one property
type PropertyConfig struct {
	Name                    string      `yaml:"-"`
	Type                    string      `yaml:"type"`
	Description             string      `yaml:"description"`
	Readable                *bool       `yaml:"readable"`
	Writable                *bool       `yaml:"writable"`
	ReadableLink            *bool       `yaml:"readableLink"`
	WritableLink            *bool       `yaml:"writableLink"`
	Required                *bool       `yaml:"required"`
	Identifier              *bool       `yaml:"identifier"`
	Initializable           *bool       `yaml:"initializable"`
	Default                 interface{} `yaml:"default"`
	Example                 interface{} `yaml:"example"`
	Security                string      `yaml:"security"`
	SecurityPostDenormalize string      `yaml:"securityPostDenormalize"`
	Groups                  []string    `yaml:"groups"`
	Iris                    []string    `yaml:"iris"`
}

// OrderClause is one entry of a default ordering
type OrderClause struct {
	Field     string
	Direction string
}

// ResourceList keeps resources in file order
type ResourceList []ResourceConfig

// PropertyList keeps properties in file order
type PropertyList []PropertyConfig

// OrderList keeps order clauses in file order
type OrderList []OrderClause

// UnmarshalYAML decodes a class-name keyed mapping preserving key order
func (l *ResourceList) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var rc ResourceConfig
		if value.Kind != yaml.ScalarNode || value.Tag != "!!null" {
			if err := value.Decode(&rc); err != nil {
				return fmt.Errorf("resource %s: %w", key, err)
			}
		}
		rc.Class = key
		*l = append(*l, rc)
		return nil
	})
}

// UnmarshalYAML decodes a property-name keyed mapping preserving key order
func (l *PropertyList) UnmarshalYAML(node *yaml.Node) error {
	return eachPair(node, func(key string, value *yaml.Node) error {
		var pc PropertyConfig
		if value.Kind != yaml.ScalarNode || value.Tag != "!!null" {
			if err := value.Decode(&pc); err != nil {
				return fmt.Errorf("property %s: %w", key, err)
			}
		}
		pc.Name = key
		*l = append(*l, pc)
		return nil
	})
}

// UnmarshalYAML decodes {field: direction} preserving key order
func (l *OrderList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		// a bare list of fields sorts ascending
		for _, item := range node.Content {
			*l = append(*l, OrderClause{Field: item.Value, Direction: "ASC"})
		}
		return nil
	}
	return eachPair(node, func(key string, value *yaml.Node) error {
		*l = append(*l, OrderClause{Field: key, Direction: value.Value})
		return nil
	})
}

func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Property returns the configuration of the named property
func (rc ResourceConfig) Property(name string) (PropertyConfig, bool) {
	for _, p := range rc.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyConfig{}, false
}

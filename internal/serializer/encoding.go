package serializer

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/util/ordered"
	"gopkg.in/yaml.v3"
)

// Encoder writes normalized data in a wire format and reads it back
type Encoder interface {
	Encode(w io.Writer, data interface{}) error
	Decode(r io.Reader) (interface{}, error)
}

// JSONEncoder is shared by the json, jsonapi and jsonhal formats
type JSONEncoder struct {
	Indent string
}

func (e JSONEncoder) Encode(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if e.Indent != "" {
		enc.SetIndent("", e.Indent)
	}
	return enc.Encode(data)
}

func (JSONEncoder) Decode(r io.Reader) (interface{}, error) {
	v, err := ordered.Decode(r)
	if err != nil {
		return nil, apierr.NewUnexpectedValue("Syntax error: %v", err)
	}
	return v, nil
}

// YAMLEncoder keeps the order of ordered maps in both directions
type YAMLEncoder struct{}

func (YAMLEncoder) Encode(w io.Writer, data interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(data)); err != nil {
		return err
	}
	return enc.Close()
}

func (YAMLEncoder) Decode(r io.Reader) (interface{}, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apierr.NewUnexpectedValue("Syntax error: %v", err)
	}
	return fromYAMLNode(&doc)
}

func yamlNode(v interface{}) *yaml.Node {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case *ordered.Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		t.Range(func(k string, val interface{}) bool {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(val),
			)
			return true
		})
		return node
	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	case map[string]interface{}:
		m, _ := AsOrderedMap(t)
		return yamlNode(m)
	}
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
	}
	return node
}

func fromYAMLNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0])
	case yaml.MappingNode:
		m := ordered.New()
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(node.Content[i].Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := fromYAMLNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	}
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	if i, ok := v.(int); ok {
		return int64(i), nil
	}
	return v, nil
}

// XMLEncoder writes a <response> document. Every scalar is read back as
// a string, so denormalization coerces values in this format.
type XMLEncoder struct{}

func (XMLEncoder) Encode(w io.Writer, data interface{}) error {
	enc := xml.NewEncoder(w)
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if err := encodeXMLElement(enc, "response", data); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeXMLElement(enc *xml.Encoder, name string, v interface{}) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	switch v.(type) {
	case nil:
		return nil
	case *ordered.Map, map[string]interface{}, []interface{}:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		return encodeXMLChildren(enc, v, start)
	}
	return enc.EncodeElement(scalarText(v), start)
}

func encodeXMLItem(enc *xml.Encoder, i int, v interface{}) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "item"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "key"}, Value: strconv.Itoa(i)}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	switch v.(type) {
	case *ordered.Map, map[string]interface{}, []interface{}:
		return encodeXMLChildren(enc, v, start)
	case nil:
	default:
		if err := enc.EncodeToken(xml.CharData(scalarText(v))); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// encodeXMLChildren writes the content of v then closes start
func encodeXMLChildren(enc *xml.Encoder, v interface{}, start xml.StartElement) error {
	switch t := v.(type) {
	case map[string]interface{}:
		m, _ := AsOrderedMap(t)
		return encodeXMLChildren(enc, m, start)
	case *ordered.Map:
		var err error
		t.Range(func(k string, val interface{}) bool {
			err = encodeXMLElement(enc, xmlName(k), val)
			return err == nil
		})
		if err != nil {
			return err
		}
	case []interface{}:
		for i, item := range t {
			if err := encodeXMLItem(enc, i, item); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

// xmlName replaces characters that cannot start or appear in an element name
func xmlName(key string) string {
	if key == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range key {
		valid := r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' ||
			i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9')
		if !valid {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func scalarText(v interface{}) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "1"
		}
		return "0"
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func (XMLEncoder) Decode(r io.Reader) (interface{}, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, apierr.NewUnexpectedValue("Syntax error: empty XML document")
			}
			return nil, apierr.NewUnexpectedValue("Syntax error: %v", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			v, err := decodeXMLElement(dec, start)
			if err != nil {
				return nil, apierr.NewUnexpectedValue("Syntax error: %v", err)
			}
			return v, nil
		}
	}
}

// decodeXMLElement returns the text of a leaf element, a list when every
// child is an <item>, and an ordered map otherwise. Repeated children
// collect into a list.
func decodeXMLElement(dec *xml.Decoder, start xml.StartElement) (interface{}, error) {
	var text strings.Builder
	children := ordered.New()
	var items []interface{}
	onlyItems := true
	hasChildren := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			hasChildren = true
			v, err := decodeXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			if t.Name.Local == "item" {
				items = append(items, v)
			} else {
				onlyItems = false
			}
			if prev, ok := children.Get(t.Name.Local); ok {
				if list, isList := prev.([]interface{}); isList {
					children.Set(t.Name.Local, append(list, v))
				} else {
					children.Set(t.Name.Local, []interface{}{prev, v})
				}
			} else {
				children.Set(t.Name.Local, v)
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if !hasChildren {
				return text.String(), nil
			}
			if onlyItems {
				return items, nil
			}
			return children, nil
		}
	}
}

// CSVEncoder writes one row per item with dotted column names for nested
// values. A single item is one row.
type CSVEncoder struct{}

func (CSVEncoder) Encode(w io.Writer, data interface{}) error {
	var rows []interface{}
	if list, ok := data.([]interface{}); ok {
		rows = list
	} else {
		rows = []interface{}{data}
	}

	var header []string
	seen := map[string]bool{}
	flat := make([]map[string]string, len(rows))
	for i, row := range rows {
		flat[i] = map[string]string{}
		flatten("", row, func(key, value string) {
			if !seen[key] {
				seen[key] = true
				header = append(header, key)
			}
			flat[i][key] = value
		})
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range flat {
		record := make([]string, len(header))
		for i, key := range header {
			record[i] = row[key]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func flatten(prefix string, v interface{}, emit func(key, value string)) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch t := v.(type) {
	case *ordered.Map:
		t.Range(func(k string, val interface{}) bool {
			flatten(join(k), val, emit)
			return true
		})
	case map[string]interface{}:
		m, _ := AsOrderedMap(t)
		flatten(prefix, m, emit)
	case []interface{}:
		for i, item := range t {
			flatten(join(strconv.Itoa(i)), item, emit)
		}
	case nil:
		emit(prefix, "")
	default:
		emit(prefix, scalarText(v))
	}
}

// Decode returns a list of rows. Dotted columns become nested maps and
// numeric segments become lists.
func (CSVEncoder) Decode(r io.Reader) (interface{}, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, apierr.NewUnexpectedValue("Syntax error: %v", err)
	}
	if len(records) == 0 {
		return []interface{}{}, nil
	}
	header := records[0]
	out := make([]interface{}, 0, len(records)-1)
	for _, record := range records[1:] {
		row := ordered.New()
		for i, key := range header {
			if i >= len(record) {
				break
			}
			setPath(row, strings.Split(key, "."), record[i])
		}
		out = append(out, listify(row))
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func setPath(m *ordered.Map, path []string, value string) {
	if len(path) == 1 {
		m.Set(path[0], value)
		return
	}
	child, ok := m.Get(path[0])
	next, isMap := child.(*ordered.Map)
	if !ok || !isMap {
		next = ordered.New()
		m.Set(path[0], next)
	}
	setPath(next, path[1:], value)
}

// listify turns maps keyed 0..n-1 into lists
func listify(v interface{}) interface{} {
	m, ok := v.(*ordered.Map)
	if !ok {
		return v
	}
	keys := m.Keys()
	indexed := len(keys) > 0
	for _, k := range keys {
		val, _ := m.Get(k)
		m.Set(k, listify(val))
		if _, err := strconv.Atoi(k); err != nil {
			indexed = false
		}
	}
	if !indexed {
		return m
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		if n, _ := strconv.Atoi(k); n != i {
			return m
		}
		out[i], _ = m.Get(k)
	}
	return out
}

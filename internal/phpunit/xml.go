package phpunit

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/node"
)

// TextKey is the mapping key whose value becomes an element's text.
const TextKey = "#text"

// ErrInvalidName is returned when a mapping key cannot be used as an XML
// element or attribute name.
var ErrInvalidName = errors.New("invalid XML name")

var xmlName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.:-]*$`)

// EncodeXML writes tree as a <phpunit> document. Within a mapping, scalar
// values become attributes in key order, mappings become child elements,
// sequences become one repeated element per item, and TextKey becomes the
// element's text. A scalar sequence item becomes the text of its element.
func EncodeXML(w io.Writer, tree node.Node) error {
	if !tree.IsMapping() {
		return fmt.Errorf("phpunit configuration is a %s, want a mapping: %w", tree.Kind(), config.ErrInvalidConfigShape)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := encodeElement(enc, "phpunit", tree); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("encoding phpunit.xml: %w", err)
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

// Marshal is EncodeXML into a byte slice.
func Marshal(tree node.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeXML(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, name string, n node.Node) error {
	if !xmlName.MatchString(name) {
		return fmt.Errorf("%w: element %q", ErrInvalidName, name)
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch n.Kind() {
	case node.KindScalar:
		return encodeLeaf(enc, start, n)
	case node.KindSequence:
		// A bare sequence under a sequence has no name of its own; its
		// items repeat the enclosing element.
		for _, it := range n.Items() {
			if err := encodeElement(enc, name, it); err != nil {
				return err
			}
		}
		return nil
	}

	var text *node.Node
	var children []string
	for _, k := range n.Keys() {
		v, _ := n.Get(k)
		switch {
		case k == TextKey:
			text = &v
		case v.IsScalar():
			if v.IsNull() {
				continue
			}
			if !xmlName.MatchString(k) {
				return fmt.Errorf("%w: attribute %q on <%s>", ErrInvalidName, k, name)
			}
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k}, Value: v.Text()})
		default:
			children = append(children, k)
		}
	}

	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("encoding <%s>: %w", name, err)
	}
	if text != nil && !text.IsNull() {
		if err := enc.EncodeToken(xml.CharData(text.Text())); err != nil {
			return fmt.Errorf("encoding <%s> text: %w", name, err)
		}
	}
	for _, k := range children {
		v, _ := n.Get(k)
		if err := encodeElement(enc, k, v); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("closing <%s>: %w", name, err)
	}
	return nil
}

func encodeLeaf(enc *xml.Encoder, start xml.StartElement, n node.Node) error {
	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("encoding <%s>: %w", start.Name.Local, err)
	}
	if !n.IsNull() {
		if err := enc.EncodeToken(xml.CharData(n.Text())); err != nil {
			return fmt.Errorf("encoding <%s> text: %w", start.Name.Local, err)
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("closing <%s>: %w", start.Name.Local, err)
	}
	return nil
}

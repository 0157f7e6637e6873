package xmlframe

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// element is a decoded XML element. Text holds the element's own character
// data, excluding that of its children.
type element struct {
	Tag      string
	Attrs    []xml.Attr
	Text     string
	Parent   *element
	Children []*element

	buf strings.Builder
}

// attr returns the value of the attribute with the given local name.
func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// walk visits e and its descendants depth-first in document order. Returning
// false from fn skips the children of that element.
func (e *element) walk(fn func(*element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.walk(fn)
	}
}

// findAll returns every descendant (or e itself) whose tag is tag.
func (e *element) findAll(tag string) []*element {
	var out []*element
	e.walk(func(n *element) bool {
		if n.Tag == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

// decodeTree reads a whole document. The decoder runs in strict mode so an
// unclosed or mismatched tag is a syntax error.
func decodeTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var root, cur *element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &element{Tag: t.Name.Local, Attrs: append([]xml.Attr(nil), t.Attr...), Parent: cur}
			if cur == nil {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				cur.Children = append(cur.Children, n)
			}
			cur = n
		case xml.EndElement:
			cur.Text = cur.buf.String()
			cur = cur.Parent
		case xml.CharData:
			if cur != nil {
				cur.buf.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

// Package xmlnode parses XML payloads into a small navigable node tree.
//
// Remote dictionary services answer with shallow XML documents. The decoders
// only ever walk named children, collect elements by tag name and read
// attribute or text content, so a full DOM is not needed.
package xmlnode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Node is one parsed element. The zero name marks the synthetic document
// root whose children are the top level elements.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node

	text string
}

// ParseError describes a malformed document with its position.
type ParseError struct {
	Msg    string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("XML parse error: %s at %d,%d", e.Msg, e.Line, e.Column)
}

// Parse decodes data into a node tree. Errors are reported as *ParseError.
func Parse(data []byte) (*Node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true

	root := &Node{}
	stack := []*Node{root}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newParseError(err, data, decoder.InputOffset())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top := stack[len(stack)-1]
			top.text += string(t)
		}
	}

	if len(stack) != 1 {
		return nil, newParseError(errors.New("unexpected end of document"), data, decoder.InputOffset())
	}

	return root, nil
}

func newParseError(err error, data []byte, offset int64) *ParseError {
	msg := err.Error()

	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		msg = syntaxErr.Msg
	}

	line, column := position(data, offset)
	return &ParseError{Msg: msg, Line: line, Column: column}
}

// position converts a byte offset into a 1-based line and column pair.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	lastNL := bytes.LastIndexByte(head, '\n')
	return line, int(offset) - lastNL
}

// NamedItem returns the first direct child with the given name, or nil.
// It is safe to call on a nil receiver, which allows chained navigation.
func (n *Node) NamedItem(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ElementsByTagName returns all descendant elements with the given name in
// document order.
func (n *Node) ElementsByTagName(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
		out = append(out, c.ElementsByTagName(name)...)
	}
	return out
}

// Attr returns the value of the named attribute, or the empty string.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Text returns the concatenated character data of the element and all of
// its descendants.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	out := n.text
	for _, c := range n.Children {
		out += c.Text()
	}
	return out
}

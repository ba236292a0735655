// Package htmltest parses rendered HTML for handler tests.
package htmltest

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// Parse parses body as an HTML document or fragment.
func Parse(t testing.TB, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// Attr returns the value of the named attribute.
func Attr(node *html.Node, name string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// Find returns the first element matching match in document order.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if found := Find(child, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every element matching match in document order.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			out = append(out, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ByID matches an element id.
func ByID(id string) func(*html.Node) bool {
	return func(node *html.Node) bool {
		value, ok := Attr(node, "id")
		return ok && value == id
	}
}

// ByTag matches an element tag name.
func ByTag(tag string) func(*html.Node) bool {
	return func(node *html.Node) bool {
		return node.Data == tag
	}
}

// ByAttr matches an element carrying name="value".
func ByAttr(name, value string) func(*html.Node) bool {
	return func(node *html.Node) bool {
		got, ok := Attr(node, name)
		return ok && got == value
	}
}

// Text returns the concatenated, whitespace-collapsed text under node.
func Text(node *html.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return strings.Join(strings.Fields(b.String()), " ")
}

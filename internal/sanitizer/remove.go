package sanitizer

import (
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/net/html"
)

// droppedElements never carry readable content.
var droppedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"form": true, "button": true, "input": true, "select": true, "textarea": true,
	"iframe": true, "object": true, "embed": true, "svg": true, "canvas": true,
}

func childrenOf(node *html.Node) []*html.Node {
	var children []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}
	return children
}

func removeDroppedElements(node *html.Node) {
	for _, child := range childrenOf(node) {
		switch {
		case child.Type == html.CommentNode:
			node.RemoveChild(child)
		case child.Type == html.ElementNode && droppedElements[child.Data]:
			node.RemoveChild(child)
		default:
			removeDroppedElements(child)
		}
	}
}

// isEmptyNode checks if a node is empty (has no children or only whitespace text nodes).
func isEmptyNode(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(child.Data) != "" {
				return false
			}
		}
	}
	return true
}

// removeEmptyNodesBottomUp performs a post-order traversal so nested empty
// containers are cleaned innermost first.
func removeEmptyNodesBottomUp(node *html.Node) {
	if node == nil {
		return
	}
	for _, child := range childrenOf(node) {
		removeEmptyNodesBottomUp(child)
	}
	if node.Type == html.ElementNode && isEmptyNode(node) && shouldRemoveEmptyElement(node.Data) && node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

// shouldRemoveEmptyElement returns true if an empty element of this type should be removed.
// Void elements and table cells are valid even when empty.
func shouldRemoveEmptyElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "hr", "img", "link", "meta", "source", "track", "wbr":
		return false
	case "td", "th", "tr":
		return false
	}
	return true
}

// isDedupCandidate reports whether repeated siblings of this element are
// treated as duplicates. List items and rows repeat legitimately.
func isDedupCandidate(tag string) bool {
	switch tag {
	case "p", "div", "section", "aside", "table", "ul", "ol", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// removeDuplicateNodes removes structurally identical siblings, keeping the
// first occurrence.
func removeDuplicateNodes(node *html.Node) {
	seen := make(map[string]bool)
	for _, child := range childrenOf(node) {
		if child.Type == html.ElementNode && isDedupCandidate(child.Data) {
			sig := nodeSignature(child)
			if seen[sig] {
				node.RemoveChild(child)
				continue
			}
			seen[sig] = true
		}
		removeDuplicateNodes(child)
	}
}

func nodeSignature(node *html.Node) string {
	var sig strings.Builder
	fmt.Fprintf(&sig, "tag:%s|", node.Data)
	for i, attr := range node.Attr {
		if i > 0 {
			sig.WriteString(",")
		}
		fmt.Fprintf(&sig, "%s=%s", attr.Key, attr.Val)
	}
	fmt.Fprintf(&sig, "|content:%d", nodeContentHash(node))
	return sig.String()
}

func nodeContentHash(node *html.Node) uint64 {
	h := fnv.New64a()
	switch node.Type {
	case html.ElementNode:
		h.Write([]byte(node.Data))
		for _, attr := range node.Attr {
			h.Write([]byte(attr.Key))
			h.Write([]byte(attr.Val))
		}
	case html.TextNode:
		h.Write([]byte(strings.TrimSpace(node.Data)))
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		fmt.Fprintf(h, "%d", nodeContentHash(child))
	}
	return h.Sum64()
}

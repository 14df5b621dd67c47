// Package richtext renders CMS rich-text documents and legacy markdown
// bodies as templ components.
package richtext

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/vendsite/contentful"
)

// Node is one node of a rich-text document.
type Node struct {
	NodeType string          `json:"nodeType"`
	Value    string          `json:"value,omitempty"`
	Marks    []Mark          `json:"marks,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Content  []Node          `json:"content,omitempty"`
}

// Mark is a text decoration.
type Mark struct {
	Type string `json:"type"`
}

type nodeData struct {
	URI    string          `json:"uri"`
	Target contentful.Link `json:"target"`
}

func (n Node) data() nodeData {
	var d nodeData
	if len(n.Data) > 0 {
		_ = json.Unmarshal(n.Data, &d)
	}
	return d
}

// Parse decodes a rich-text document. It reports false when body is not one.
func Parse(body []byte) (Node, bool) {
	var doc Node
	if err := json.Unmarshal(body, &doc); err != nil || doc.NodeType != "document" {
		return Node{}, false
	}
	return doc, true
}

// Render returns a component for body. A rich-text document is rendered
// node by node; a JSON string or raw text is treated as markdown.
func Render(body json.RawMessage, r contentful.Resolver) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := RenderTo(&buf, body, r); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderTo writes the HTML for body to buf.
func RenderTo(buf *bytes.Buffer, body json.RawMessage, r contentful.Resolver) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if doc, ok := Parse(body); ok {
		if r == nil {
			r = contentful.NoIncludes
		}
		renderNodes(buf, doc.Content, r)
		return nil
	}
	var md string
	if err := json.Unmarshal(body, &md); err != nil {
		md = string(body)
	}
	return RenderMarkdown(buf, md)
}

// PlainText flattens a document or markdown body to text, for excerpts
// and feeds.
func PlainText(body json.RawMessage) string {
	if doc, ok := Parse(body); ok {
		var b strings.Builder
		collectText(&b, doc.Content)
		return strings.Join(strings.Fields(b.String()), " ")
	}
	var s string
	if json.Unmarshal(body, &s) != nil {
		s = string(body)
	}
	return strings.Join(strings.Fields(s), " ")
}

func collectText(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		if n.NodeType == "text" {
			b.WriteString(n.Value)
		}
		collectText(b, n.Content)
		if strings.HasPrefix(n.NodeType, "heading-") || n.NodeType == "paragraph" {
			b.WriteString(" ")
		}
	}
}

var blockTags = map[string]string{
	"paragraph":         "p",
	"heading-1":         "h1",
	"heading-2":         "h2",
	"heading-3":         "h3",
	"heading-4":         "h4",
	"heading-5":         "h5",
	"heading-6":         "h6",
	"unordered-list":    "ul",
	"ordered-list":      "ol",
	"list-item":         "li",
	"blockquote":        "blockquote",
	"table":             "table",
	"table-row":         "tr",
	"table-cell":        "td",
	"table-header-cell": "th",
}

var markTags = map[string]string{
	"bold":        "strong",
	"italic":      "em",
	"underline":   "u",
	"code":        "code",
	"superscript": "sup",
	"subscript":   "sub",
}

func renderNodes(buf *bytes.Buffer, nodes []Node, r contentful.Resolver) {
	for _, n := range nodes {
		renderNode(buf, n, r)
	}
}

func renderNode(buf *bytes.Buffer, n Node, r contentful.Resolver) {
	if tag, ok := blockTags[n.NodeType]; ok {
		buf.WriteString("<" + tag + ">")
		renderNodes(buf, n.Content, r)
		buf.WriteString("</" + tag + ">")
		return
	}
	switch n.NodeType {
	case "text":
		renderText(buf, n)
	case "hr":
		buf.WriteString("<hr/>")
	case "hyperlink":
		href := safeURL(n.data().URI)
		if href == "" {
			renderNodes(buf, n.Content, r)
			return
		}
		attrs := ""
		if strings.HasPrefix(href, "http") {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		buf.WriteString(`<a href="` + href + `"` + attrs + `>`)
		renderNodes(buf, n.Content, r)
		buf.WriteString("</a>")
	case "entry-hyperlink":
		if e, ok := r.ResolveEntry(n.data().Target); ok {
			if slug := e.String("slug"); slug != "" {
				buf.WriteString(`<a href="` + html.EscapeString(entryPath(e.ContentTypeID(), slug)) + `">`)
				renderNodes(buf, n.Content, r)
				buf.WriteString("</a>")
				return
			}
		}
		renderNodes(buf, n.Content, r)
	case "embedded-asset-block":
		a, ok := r.ResolveAsset(n.data().Target)
		if !ok || a.URL() == "" {
			return
		}
		alt := a.Fields.Description
		if alt == "" {
			alt = a.Fields.Title
		}
		dims := a.Fields.File.Details.Image
		buf.WriteString(`<figure><img loading="lazy" decoding="async" src="` + html.EscapeString(a.URL()) +
			`" alt="` + html.EscapeString(alt) + `"`)
		if dims.Width > 0 && dims.Height > 0 {
			buf.WriteString(` width="` + strconv.Itoa(dims.Width) + `" height="` + strconv.Itoa(dims.Height) + `"`)
		}
		buf.WriteString("/></figure>")
	default:
		// embedded entries and unknown node types render their children only
		renderNodes(buf, n.Content, r)
	}
}

func renderText(buf *bytes.Buffer, n Node) {
	var opening, closing []string
	for _, m := range n.Marks {
		if tag, ok := markTags[m.Type]; ok {
			opening = append(opening, "<"+tag+">")
			closing = append([]string{"</" + tag + ">"}, closing...)
		}
	}
	buf.WriteString(strings.Join(opening, ""))
	buf.WriteString(strings.ReplaceAll(html.EscapeString(n.Value), "\n", "<br/>"))
	buf.WriteString(strings.Join(closing, ""))
}

// entryPath maps a linked entry onto its public page.
func entryPath(contentType, slug string) string {
	prefix := map[string]string{
		"product":      "/products/",
		"machine":      "/machines/",
		"technology":   "/technology/",
		"businessGoal": "/business-goals/",
		"blogPost":     "/blog/",
	}[contentType]
	if prefix == "" {
		return "/" + url.PathEscape(slug) + "/"
	}
	return prefix + url.PathEscape(slug) + "/"
}

func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

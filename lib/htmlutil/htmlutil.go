package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/vcslav-v/pb-admin/lib/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = telemetry.Tracer("pbadmin.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText returns the visible text of every node in the selection joined
// by a space, with runs of whitespace collapsed.
func CleanText(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	for _, n := range sel.Nodes {
		text := removeNonPrintable(GetText(n))
		text = strings.TrimSpace(innerWhitespace.ReplaceAllString(text, " "))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// InputValue returns the value of the first input named `name`, it is
// empty when the input does not exist.
func InputValue(ctx context.Context, doc *goquery.Document, name string) string {
	_, span := tracer.Start(ctx, "InputValue")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))
	value := doc.Find("input[name="+name+"]").AttrOr("value", "")
	if value == "" {
		span.SetStatus(codes.Error, "input not found")
	}
	return value
}

// ParseDocument is goquery.NewDocumentFromReader over a byte slice.
func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

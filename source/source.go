// Package source loads input documents into html.Node trees ready for splitting.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/splittext/dom"
)

// Document is a parsed input file.
type Document struct {
	Name  string     // base name of the source file
	Title string     // <title>, first <h1>, or the file name without extension
	Root  *html.Node // full HTML document node
}

// Parser converts raw input bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// ForFile returns the parser for a filename.
func ForFile(filename string) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupported reports whether filename has a supported extension.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Load opens and parses path.
func Load(path string) (*Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

// Expand resolves glob patterns (doublestar syntax, "**" included) to a sorted,
// de-duplicated list of supported files. A pattern without glob meta characters
// must name an existing file.
func Expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			return nil, fmt.Errorf("input %s: %w", pattern, os.ErrNotExist)
		}
		for _, m := range matches {
			if !IsSupported(m) || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func hasMeta(p string) bool { return strings.ContainsAny(p, "*?[{") }

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return newDocument(doc, filename), nil
}

// MarkdownParser converts Markdown to HTML with goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := goldmark.New().Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse converted markdown: %w", err)
	}
	return newDocument(doc, filename), nil
}

// TextParser turns blank-line separated paragraphs into <p> elements.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><body>")
	for _, para := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	doc, err := html.Parse(strings.NewReader(b.String()))
	if err != nil {
		return nil, fmt.Errorf("parse text: %w", err)
	}
	return newDocument(doc, filename), nil
}

func newDocument(root *html.Node, filename string) *Document {
	d := &Document{
		Name:  filename,
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
		Root:  root,
	}
	if t := findFirst(root, atom.Title); t != "" {
		d.Title = t
	} else if h := findFirst(root, atom.H1); h != "" {
		d.Title = h
	}
	return d
}

func findFirst(n *html.Node, a atom.Atom) string {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return strings.Join(strings.Fields(dom.TextContent(n)), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := findFirst(c, a); s != "" {
			return s
		}
	}
	return ""
}

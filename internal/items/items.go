// Package items loads list items from files. JSON arrays, JSON lines,
// markdown and plain text are supported.
package items

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned for JSON input that does not parse.
var ErrMalformed = errors.New("malformed item data")

// Format is an item file format.
type Format int

const (
	FormatText Format = iota
	FormatMarkdown
	FormatJSON
	FormatJSONL
)

func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	default:
		return "text"
	}
}

// Item is one list entry.
type Item struct {
	// Key identifies the item across reloads. Empty keys fall back to the
	// item's position.
	Key      string
	Title    string
	Body     string
	Markdown bool
}

// Field paths tried in order when reading JSON items.
var (
	keyPaths   = []string{"id", "key", "uuid"}
	titlePaths = []string{"title", "name", "summary", "subject"}
	bodyPaths  = []string{"body", "text", "content", "message", "description"}
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatText
	}
}

// Load reads and parses the file at path.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}
	items, err := Parse(FormatOf(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Parse parses data in format f.
func Parse(f Format, data []byte) ([]Item, error) {
	switch f {
	case FormatJSON:
		return parseJSON(data)
	case FormatJSONL:
		return parseJSONL(data)
	case FormatMarkdown:
		return parseMarkdown(data), nil
	default:
		return parseText(data), nil
	}
}

// Keys returns the keys of items in order.
func Keys(items []Item) []string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}

// parseJSON accepts a top-level array, or an object holding an "items" array.
func parseJSON(data []byte) ([]Item, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("items")
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of items", ErrMalformed)
	}

	var out []Item
	root.ForEach(func(_, value gjson.Result) bool {
		out = append(out, itemOf(value))
		return true
	})
	return out, nil
}

func parseJSONL(data []byte) ([]Item, error) {
	var out []Item
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if !gjson.Valid(raw) {
			return nil, fmt.Errorf("%w: line %d", ErrMalformed, line)
		}
		out = append(out, itemOf(gjson.Parse(raw)))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning items: %w", err)
	}
	return out, nil
}

func itemOf(v gjson.Result) Item {
	if !v.IsObject() {
		return Item{Body: v.String()}
	}

	it := Item{
		Key:   first(v, keyPaths),
		Title: first(v, titlePaths),
		Body:  first(v, bodyPaths),
	}
	it.Markdown = v.Get("markdown").Bool()
	if it.Body == "" && it.Title == "" {
		it.Body = v.Get("@pretty").String()
	}
	return it
}

func first(v gjson.Result, paths []string) string {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

// parseMarkdown starts a new item at every ATX heading. Text before the first
// heading is an item of its own. Keys are heading slugs, suffixed when they
// repeat.
func parseMarkdown(data []byte) []Item {
	var (
		out     []Item
		cur     *Item
		body    strings.Builder
		inFence bool
		seen    = map[string]int{}
	)
	flush := func() {
		if cur == nil {
			if text := strings.TrimSpace(body.String()); text != "" {
				out = append(out, Item{Body: text, Markdown: true})
			}
		} else {
			cur.Body = strings.TrimRight(body.String(), "\n")
			out = append(out, *cur)
		}
		body.Reset()
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if title, ok := heading(line); ok && !inFence {
			flush()
			slug := slugify(title)
			if n := seen[slug]; n > 0 {
				seen[slug] = n + 1
				slug += "-" + strconv.Itoa(n)
			} else {
				seen[slug] = 1
			}
			cur = &Item{Key: slug, Title: title, Markdown: true}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()
	return out
}

func heading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level >= len(line) || line[level] != ' ' {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(line[level:], "# ")), true
}

func slugify(s string) string {
	var (
		b       strings.Builder
		dash    bool
		cluster string
		state   = -1
		rest    = strings.ToLower(s)
	)
	for rest != "" {
		cluster, rest, _, state = uniseg.StepString(rest, state)
		r, _ := utf8.DecodeRuneInString(cluster)
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteString(cluster)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// parseText splits on blank lines. Paragraphs have no key.
func parseText(data []byte) []Item {
	var out []Item
	for _, para := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n\n") {
		if text := strings.Trim(para, "\n"); strings.TrimSpace(text) != "" {
			out = append(out, Item{Body: text})
		}
	}
	return out
}

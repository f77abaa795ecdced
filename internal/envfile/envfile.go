package envfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

var keyLineRe = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z0-9_.\-]+)\s*[=:]`)

// Source is an immutable snapshot of configuration values. Duplicate keys
// resolve last-write-wins; Keys reports first-appearance order.
type Source struct {
	path   string
	keys   []string
	values map[string]string
}

// Entry is a single KEY=VALUE pair.
type Entry struct {
	Key   string
	Value string
}

// Load reads and parses the dotenv file at path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	src, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	src.path = path
	return src, nil
}

// LoadOptional behaves like Load but returns an empty source when the file
// does not exist.
func LoadOptional(path string) (*Source, error) {
	src, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			empty := FromMap(nil)
			empty.path = path
			return empty, nil
		}
		return nil, err
	}
	return src, nil
}

// Parse reads dotenv content from r.
func Parse(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return parseBytes(data)
}

func parseBytes(data []byte) (*Source, error) {
	values, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, err
	}
	for key, raw := range literalValues(data) {
		if _, ok := values[key]; ok {
			values[key] = raw
		}
	}

	return &Source{
		keys:   orderKeys(data, values),
		values: values,
	}, nil
}

// orderKeys recovers first-appearance order from the raw lines; godotenv only
// hands back a map.
func orderKeys(data []byte, values map[string]string) []string {
	keys := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, line := range bytes.Split(data, []byte("\n")) {
		m := keyLineRe.FindSubmatch(line)
		if m == nil {
			continue
		}
		key := string(m[1])
		if _, ok := values[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	var rest []string
	for key := range values {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// literalValues returns the raw value of every line whose value holds a '$'.
// godotenv expands $VAR and ${VAR}; secrets must be kept as written.
// Surrounding quotes are removed, and so is a " #" comment after an
// unquoted value. Only the last line of a key counts.
func literalValues(data []byte) map[string]string {
	out := make(map[string]string)
	for _, line := range bytes.Split(data, []byte("\n")) {
		loc := keyLineRe.FindSubmatchIndex(line)
		if loc == nil {
			continue
		}
		key := string(line[loc[2]:loc[3]])
		raw := strings.TrimSpace(string(line[loc[1]:]))
		if !strings.Contains(raw, "$") {
			delete(out, key)
			continue
		}
		out[key] = unquote(raw)
	}
	return out
}

func unquote(raw string) string {
	if raw != "" && (raw[0] == '"' || raw[0] == '\'') {
		if end := strings.IndexByte(raw[1:], raw[0]); end >= 0 {
			return raw[1 : end+1]
		}
		return raw
	}
	if i := strings.Index(raw, " #"); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	return raw
}

// FromMap builds a source from m with keys in lexical order.
func FromMap(m map[string]string) *Source {
	values := make(map[string]string, len(m))
	keys := make([]string, 0, len(m))
	for k, v := range m {
		values[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Source{keys: keys, values: values}
}

// FromEnviron snapshots a process environment in os.Environ form.
func FromEnviron(environ []string) *Source {
	src := &Source{values: make(map[string]string, len(environ))}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if _, exists := src.values[key]; !exists {
			src.keys = append(src.keys, key)
		}
		src.values[key] = value
	}
	return src
}

// Merge returns a new source holding base's values overridden by overlay's.
// Keys keep base order, followed by keys only present in overlay.
func Merge(base, overlay *Source) *Source {
	out := &Source{values: make(map[string]string)}
	if base != nil {
		out.path = base.path
	}
	for _, s := range []*Source{base, overlay} {
		if s == nil {
			continue
		}
		for _, key := range s.keys {
			if _, exists := out.values[key]; !exists {
				out.keys = append(out.keys, key)
			}
			out.values[key] = s.values[key]
		}
	}
	return out
}

// Lookup returns the value for key and whether the key is present.
func (s *Source) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Get returns the value for key, or "" when absent.
func (s *Source) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// Keys returns a copy of the keys in order.
func (s *Source) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len reports the number of distinct keys.
func (s *Source) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Path is the file the source was loaded from, if any.
func (s *Source) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Render formats entries as KEY=VALUE lines in the given order.
func Render(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Key)
		buf.WriteByte('=')
		buf.WriteString(e.Value)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Write replaces the file at path with entries. Any previous content is lost.
func Write(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, Render(entries), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Package i18n translates display strings for the supported languages.
// Catalogs are embedded JSON files; nested objects flatten to dotted keys.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Language is a user-selectable display language.
type Language string

const (
	English Language = "EN"
	Hindi   Language = "HI"
	Telugu  Language = "TE"
)

var tags = map[Language]language.Tag{
	English: language.English,
	Hindi:   language.Hindi,
	Telugu:  language.Telugu,
}

//go:embed locales/*.json
var localesFS embed.FS

// ParseLanguage accepts a language code in any case.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := tags[l]; !ok {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return l, nil
}

// Languages returns the supported languages in a stable order.
func Languages() []Language {
	out := make([]Language, 0, len(tags))
	for l := range tags {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Translator resolves keys against the active language. T is total: a key
// with no entry in the active catalog is returned as-is.
type Translator struct {
	mu      sync.RWMutex
	lang    Language
	builder *catalog.Builder
}

// New loads the embedded catalogs and activates lang.
func New(lang Language) (*Translator, error) {
	if _, ok := tags[lang]; !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}

	tr := &Translator{builder: catalog.NewBuilder()}
	for l, tag := range tags {
		name := "locales/" + strings.ToLower(string(l)) + ".json"
		data, err := localesFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", name, err)
		}
		flat, err := parseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", name, err)
		}
		for key, msg := range flat {
			if err := tr.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", l, key, err)
			}
		}
	}

	tr.lang = lang
	return tr, nil
}

// Language returns the active language.
func (tr *Translator) Language() Language {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.lang
}

// SetLanguage switches the active language.
func (tr *Translator) SetLanguage(lang Language) error {
	if _, ok := tags[lang]; !ok {
		return fmt.Errorf("unsupported language %q", lang)
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.lang = lang
	return nil
}

// T returns the translation of key in the active language. Messages are
// emitted verbatim; they are never used as format strings.
func (tr *Translator) T(key string) string {
	msg, ok := tr.lookup(tr.Language(), key)
	if !ok {
		return key
	}
	return msg
}

// Has reports whether lang defines key.
func (tr *Translator) Has(lang Language, key string) bool {
	_, ok := tr.lookup(lang, key)
	return ok
}

func (tr *Translator) lookup(lang Language, key string) (string, bool) {
	var r renderer
	if err := tr.builder.Context(tags[lang], &r).Execute(key); err != nil {
		return "", false
	}
	return r.String(), true
}

// renderer collects catalog output without interpreting it.
type renderer struct {
	strings.Builder
}

func (r *renderer) Render(s string) { r.WriteString(s) }

func (r *renderer) Arg(int) interface{} { return nil }

func parseCatalog(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if err := flatten("", raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q: unsupported value type %T", key, v)
		}
	}
	return nil
}

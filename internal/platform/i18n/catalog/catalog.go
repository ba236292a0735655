// Package catalog loads the embedded YAML message catalogs and registers
// them with golang.org/x/text/message.
//
// Files live at locales/<locale>/<namespace>.yaml and every key must be
// prefixed with its namespace, so "auth.login.title" belongs in auth.yaml.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale supplies text for keys a translation has not caught up on.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embedded embed.FS

var defaultBundle = mustRegister(LoadEmbedded())

// Default returns the process-wide embedded bundle, already registered.
func Default() *Bundle { return defaultBundle }

type document struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeMessages struct {
	messages   map[string]string
	namespaces map[string]struct{}
}

// Bundle holds messages for every loaded locale.
type Bundle struct {
	locales map[string]*localeMessages
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embedded)
}

// LoadFromFS loads every locales/*/*.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	files, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no catalog files found")
	}
	slices.Sort(files)

	b := &Bundle{locales: map[string]*localeMessages{}}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", file, err)
		}
		var doc document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", file, err)
		}
		if err := b.merge(file, doc); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", file, err)
		}
	}
	if !b.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s has no catalogs", BaseLocale)
	}
	return b, nil
}

func (b *Bundle) merge(file string, doc document) error {
	dir, name := path.Split(file)
	wantLocale := path.Base(dir)
	wantNamespace := strings.TrimSuffix(name, path.Ext(name))

	locale := strings.TrimSpace(doc.Locale)
	namespace := strings.TrimSpace(doc.Namespace)
	switch {
	case locale == "":
		return errors.New("locale is required")
	case locale != wantLocale:
		return fmt.Errorf("locale %q does not match directory %q", locale, wantLocale)
	case namespace != wantNamespace:
		return fmt.Errorf("namespace %q does not match filename %q", namespace, wantNamespace)
	case len(doc.Messages) == 0:
		return errors.New("messages are required")
	}

	lm := b.locales[locale]
	if lm == nil {
		lm = &localeMessages{messages: map[string]string{}, namespaces: map[string]struct{}{}}
		b.locales[locale] = lm
	}
	for key, text := range doc.Messages {
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, namespace+".") {
			return fmt.Errorf("key %q is outside namespace %q", key, namespace)
		}
		if _, dup := lm.messages[key]; dup {
			return fmt.Errorf("duplicate key %q in %s", key, locale)
		}
		lm.messages[key] = text
	}
	lm.namespaces[namespace] = struct{}{}
	return nil
}

// Register installs every locale into the x/text default catalog, filling
// gaps from BaseLocale.
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale %q: %w", locale, err)
		}
		merged := b.LocaleMessages(BaseLocale)
		maps.Copy(merged, b.locales[locale].messages)
		for key, text := range merged {
			if err := message.SetString(tag, key, text); err != nil {
				return fmt.Errorf("register %s %q: %w", locale, key, err)
			}
		}
	}
	return nil
}

// HasLocale reports whether any catalog was loaded for locale.
func (b *Bundle) HasLocale(locale string) bool {
	return b.lookup(locale) != nil
}

// Locales lists loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.locales))
}

// LocaleMessages returns a copy of the messages loaded for locale.
func (b *Bundle) LocaleMessages(locale string) map[string]string {
	lm := b.lookup(locale)
	if lm == nil {
		return map[string]string{}
	}
	return maps.Clone(lm.messages)
}

// Message returns the text for key in locale, falling back to BaseLocale.
func (b *Bundle) Message(locale, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	for _, candidate := range []string{locale, BaseLocale} {
		if lm := b.lookup(candidate); lm != nil {
			if text, ok := lm.messages[key]; ok {
				return text, true
			}
		}
	}
	return "", false
}

// Namespaces lists the namespaces loaded for locale in sorted order.
func (b *Bundle) Namespaces(locale string) []string {
	lm := b.lookup(locale)
	if lm == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(lm.namespaces))
}

func (b *Bundle) lookup(locale string) *localeMessages {
	if b == nil {
		return nil
	}
	return b.locales[strings.TrimSpace(locale)]
}

func mustRegister(b *Bundle, err error) *Bundle {
	if err != nil {
		panic(err)
	}
	if err := b.Register(); err != nil {
		panic(err)
	}
	return b
}

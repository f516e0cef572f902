// Package file reads translation bundles from a directory tree.
//
// Two layouts are understood, tried in this order:
//
//	<root>/<language>/<namespace>.json|yaml|yml|toml
//	<root>/<namespace>.<language>.toml
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pitabwire/util"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/lingo/localization"
)

type decodeFunc func(data []byte, v any) error

//nolint:gochecknoglobals // extension to decoder table
var decoders = map[string]decodeFunc{
	".json": json.Unmarshal,
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".toml": toml.Unmarshal,
}

//nolint:gochecknoglobals // lookup order of the per language layout
var extensions = []string{".json", ".yaml", ".yml", ".toml"}

// Backend serves bundles from a file system.
type Backend struct {
	fsys fs.FS
}

var _ localization.Backend = (*Backend)(nil)

// New reads bundles below the root folder.
func New(root string) *Backend {
	return NewFS(os.DirFS(root))
}

// NewFS reads bundles from fsys, useful with embed.FS.
func NewFS(fsys fs.FS) *Backend {
	return &Backend{fsys: fsys}
}

func (b *Backend) candidates(language, namespace string) []string {
	paths := make([]string, 0, len(extensions)+1)
	for _, ext := range extensions {
		paths = append(paths, path.Join(language, namespace+ext))
	}
	return append(paths, namespace+"."+language+".toml")
}

// Read decodes the first bundle file found for language and namespace.
func (b *Backend) Read(ctx context.Context, language, namespace string) (localization.Messages, error) {
	if !validSegment(language) || !validSegment(namespace) {
		return nil, fmt.Errorf("%w: %s/%s", localization.ErrBundleNotFound, language, namespace)
	}

	for _, name := range b.candidates(language, namespace) {
		data, err := fs.ReadFile(b.fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		messages, err := Decode(name, data)
		if err != nil {
			return nil, err
		}

		util.Log(ctx).WithField("file", name).WithField("keys", len(messages)).Debug("read translation file")
		return messages, nil
	}

	return nil, fmt.Errorf("%w: %s/%s", localization.ErrBundleNotFound, language, namespace)
}

// Decode parses a bundle document, choosing the format from the extension of name.
func Decode(name string, data []byte) (localization.Messages, error) {
	decode, ok := decoders[strings.ToLower(path.Ext(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported translation file format: %s", name)
	}

	var doc map[string]any
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return localization.Flatten(doc), nil
}

// Bundle is one file discovered by List.
type Bundle struct {
	Language  string
	Namespace string
	Path      string
}

// List walks the file system and reports every bundle file it can read.
func (b *Backend) List() ([]Bundle, error) {
	var bundles []Bundle

	err := fs.WalkDir(b.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(path.Ext(p))
		if _, ok := decoders[ext]; !ok {
			return nil
		}

		base := strings.TrimSuffix(path.Base(p), path.Ext(p))
		dir := path.Dir(p)

		switch {
		case dir != "." && !strings.Contains(dir, "/"):
			bundles = append(bundles, Bundle{Language: dir, Namespace: base, Path: p})
		case dir == "." && ext == ".toml":
			namespace, language, ok := cutLast(base, ".")
			if ok {
				bundles = append(bundles, Bundle{Language: language, Namespace: namespace, Path: p})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(bundles, func(a, b Bundle) int {
		return strings.Compare(a.Path, b.Path)
	})
	return bundles, nil
}

func cutLast(s, sep string) (string, string, bool) {
	idx := strings.LastIndex(s, sep)
	if idx <= 0 || idx == len(s)-1 {
		return "", "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

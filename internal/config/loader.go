package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceKind says where an effective config value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
)

// Source locates a value. Line and Column are zero for TOML files.
type Source struct {
	Kind   SourceKind
	Name   string
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		if s.Line > 0 {
			return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
		}
		return s.File
	case SourceBuiltin:
		return "builtin:" + s.Name
	default:
		return string(s.Kind)
	}
}

// LoadResult is a loaded config together with what `config explain` needs.
type LoadResult struct {
	Config *Config
	// Sources maps a dotted key to the file that set it last.
	Sources map[string]Source
	// PresetBases maps a preset to the builtin preset it inherits from.
	PresetBases map[string]string
	// Files lists every file read, includes before their includer.
	Files []string
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/duoview/config.yaml, or the
// config.toml next to it when only the TOML file exists.
func DefaultConfigPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	base := filepath.Join(dir, "duoview")
	yamlPath := filepath.Join(base, "config.yaml")
	if ok, _ := fileExists(yamlPath); ok {
		return yamlPath, nil
	}
	tomlPath := filepath.Join(base, "config.toml")
	if ok, _ := fileExists(tomlPath); ok {
		return tomlPath, nil
	}
	return yamlPath, nil
}

// Load reads the merged configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the
// defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	merged := newLayer()
	ok, err := fileExists(path)
	if err != nil {
		return nil, err
	}
	if ok {
		w := &includeWalker{loaded: make(map[string]bool)}
		if merged, err = w.walk(path); err != nil {
			return nil, err
		}
	}

	cfg, presetBases, err := BuildEffectiveConfig(merged.raw)
	if err != nil {
		return nil, locate(err, merged.sources)
	}
	if err := cfg.Validate(); err != nil {
		return nil, locate(err, merged.sources)
	}
	return &LoadResult{
		Config:      cfg,
		Sources:     merged.sources,
		PresetBases: presetBases,
		Files:       merged.files,
	}, nil
}

// layer is one config file with its includes folded in underneath it.
type layer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

func newLayer() layer {
	return layer{sources: make(map[string]Source)}
}

// over lays top over l: top's values and sources win.
func (l *layer) over(top layer) {
	l.raw = l.raw.merge(top.raw)
	maps.Copy(l.sources, top.sources)
	l.files = append(l.files, top.files...)
}

// include is one entry of a file's include list.
type include struct {
	path string
	at   Source
}

// configFile is a decoded file whose includes have not been read yet.
type configFile struct {
	raw      RawConfig
	sources  map[string]Source
	includes []include
}

// includeWalker reads a config file and everything it includes, depth
// first. A file reached twice is merged once; reaching a file that is
// still being read is a cycle.
type includeWalker struct {
	loaded map[string]bool
	chain  []string
}

func (w *includeWalker) walk(path string) (layer, error) {
	file, err := realPath(path)
	if err != nil {
		return layer{}, err
	}
	if slices.Contains(w.chain, file) {
		return layer{}, fmt.Errorf("config include cycle: %s -> %s", strings.Join(w.chain, " -> "), file)
	}
	if w.loaded[file] {
		return newLayer(), nil
	}
	w.loaded[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return layer{}, fmt.Errorf("read config: %w", err)
	}
	cf, err := decodeConfigFile(file, data)
	if err != nil {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}

	w.chain = append(w.chain, file)
	defer func() { w.chain = w.chain[:len(w.chain)-1] }()

	out := newLayer()
	for _, inc := range cf.includes {
		targets, err := includeTargets(file, inc.path)
		if err != nil {
			return layer{}, fmt.Errorf("%s: include %q: %w", inc.at, inc.path, err)
		}
		for _, target := range targets {
			sub, err := w.walk(target)
			if err != nil {
				return layer{}, err
			}
			out.over(sub)
		}
	}
	out.over(layer{raw: cf.raw, sources: cf.sources, files: []string{file}})
	return out, nil
}

func decodeConfigFile(path string, data []byte) (configFile, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return parseTOML(path, data)
	}
	return parseYAML(path, data)
}

func parseYAML(path string, data []byte) (configFile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return configFile{}, fmt.Errorf("parse yaml: %w", err)
	}
	var raw RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return configFile{}, err
	}

	cf := configFile{raw: raw, sources: make(map[string]Source)}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	yamlSources(root, path, "", cf.sources)
	cf.includes = yamlIncludes(root, path)
	return cf, nil
}

// yamlSources records the position of every mapping key under prefix.
// Sequences are recorded as a whole.
func yamlSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i].Value, node.Content[i+1]
			if prefix != "" {
				key = prefix + "." + key
			}
			out[key] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
			yamlSources(val, file, key, out)
		}
	case yaml.SequenceNode:
		if prefix != "" {
			out[prefix] = Source{Kind: SourceFile, File: file, Line: node.Line, Column: node.Column}
		}
	}
}

// yamlIncludes reads the top-level include key, a string or a list.
func yamlIncludes(root *yaml.Node, file string) []include {
	if root.Kind != yaml.MappingNode {
		return nil
	}
	at := func(n *yaml.Node) include {
		return include{path: n.Value, at: Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		if val.Kind == yaml.ScalarNode {
			return []include{at(val)}
		}
		var incs []include
		for _, item := range val.Content {
			if item.Kind == yaml.ScalarNode {
				incs = append(incs, at(item))
			}
		}
		return incs
	}
	return nil
}

// includeTargets resolves ref against the including file. A directory
// expands to its .yaml, .yml and .toml files in name order.
func includeTargets(from, ref string) ([]string, error) {
	if ref == "" {
		return nil, fmt.Errorf("path is empty")
	}
	if ref == "~" || strings.HasPrefix(ref, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		ref = filepath.Join(home, strings.TrimPrefix(ref, "~"))
	}
	if !filepath.IsAbs(ref) {
		ref = filepath.Join(filepath.Dir(from), ref)
	}

	info, err := os.Stat(ref)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{ref}, nil
	}
	entries, err := os.ReadDir(ref)
	if err != nil {
		return nil, err
	}
	var targets []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml", ".toml":
			if !ent.IsDir() {
				targets = append(targets, filepath.Join(ref, ent.Name()))
			}
		}
	}
	return targets, nil
}

// realPath is the absolute path with symlinks resolved when possible.
func realPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// locate fills in the file position of a validation error's key.
func locate(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}

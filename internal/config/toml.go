package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// parseTOML decodes a TOML config file. TOML metadata carries no positions,
// so sources point at the file without a line.
func parseTOML(path string, data []byte) (configFile, error) {
	var raw RawConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return configFile{}, fmt.Errorf("parse toml: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return configFile{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	sources := make(map[string]Source)
	for _, key := range md.Keys() {
		sources[key.String()] = Source{Kind: SourceFile, File: path}
	}

	incs := make([]include, 0, len(raw.Include))
	for _, inc := range raw.Include {
		incs = append(incs, include{path: inc, at: Source{Kind: SourceFile, File: path}})
	}

	return configFile{raw: raw, sources: sources, includes: incs}, nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"adx/internal/errors"
	"adx/internal/source"
)

// markersFile mirrors the optional .adx/markers.toml:
//
//	prefix = "adr"
//
//	[statuses]
//	wip = "draft"
//	done = "accepted"
type markersFile struct {
	Prefix   string            `toml:"prefix"`
	Statuses map[string]string `toml:"statuses"`
}

// LoadMarkers reads <repoRoot>/.adx/markers.toml. A missing file yields the
// default markers.
func LoadMarkers(repoRoot string) (source.Markers, error) {
	path := filepath.Join(repoRoot, ".adx", "markers.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return source.DefaultMarkers(), nil
		}
		return source.Markers{}, errors.Wrap(errors.ConfigInvalid, "reading .adx/markers.toml", err)
	}

	var mf markersFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		return source.Markers{}, errors.Wrap(errors.ConfigInvalid, "parsing .adx/markers.toml", err)
	}

	m := source.DefaultMarkers()
	if mf.Prefix != "" {
		if strings.ContainsAny(mf.Prefix, " \t:") {
			return source.Markers{}, errors.New(errors.ConfigInvalid, "marker prefix must not contain spaces or colons")
		}
		m.Prefix = mf.Prefix
	}
	if len(mf.Statuses) > 0 {
		m.StatusAliases = make(map[string]string, len(mf.Statuses))
		for k, v := range mf.Statuses {
			m.StatusAliases[strings.ToLower(k)] = v
		}
	}

	return m, nil
}

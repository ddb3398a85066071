package missionpack

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed seasons/*.yaml
var seasonsFS embed.FS

// SeasonSubmerged is the bundled demo season.
const SeasonSubmerged = "submerged"

// Seasons lists the bundled season names.
func Seasons() []string {
	entries, err := seasonsFS.ReadDir("seasons")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Season returns the raw YAML of a bundled season.
func Season(name string) ([]byte, error) {
	data, err := seasonsFS.ReadFile("seasons/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown bundled season %q: %w", name, err)
	}
	return data, nil
}

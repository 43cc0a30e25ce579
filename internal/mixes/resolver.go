package mixes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// resolveStep is one strategy for locating a mix's JSON sidecar by id or
// name. Steps run in a fixed order; the first hit wins.
type resolveStep func(dir, key string) (string, bool)

// resolverChain is the ordered fallback used when a mix's files are not
// where their id says they should be: exact path, then a case-insensitive
// filename match, then a content scan of every sidecar's id/name fields.
var resolverChain = []resolveStep{
	byExactPath,
	byCaseInsensitiveName,
	byContentScan,
}

// resolveJSON locates the sidecar for a mix id or legacy name.
func resolveJSON(dir, key string) (string, bool) {
	for _, step := range resolverChain {
		if path, ok := step(dir, key); ok {
			return path, true
		}
	}
	return "", false
}

func byExactPath(dir, key string) (string, bool) {
	path := filepath.Join(dir, key+".json")
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	return "", false
}

func byCaseInsensitiveName(dir, key string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	want := strings.ToLower(key + ".json")
	for _, entry := range entries {
		if !entry.IsDir() && strings.ToLower(entry.Name()) == want {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

func byContentScan(dir, key string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var probe struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			continue
		}
		if probe.ID == key || probe.Name == key {
			return path, true
		}
	}
	return "", false
}

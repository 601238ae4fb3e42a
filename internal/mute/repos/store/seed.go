package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/rr-mute/internal/mute/domain"
)

// LoadSeed parses a seed record file (YAML or JSON) into a storage record.
// A seed carries the four rule lists and any subset of the preference
// switches; absent preferences take their documented defaults. Entries are
// stored raw; normalization happens when the rule store loads them.
//
// Seed file shape:
//
//	users: [spammer, "u/Troll"]
//	keywords: [giveaway]
//	subreddits: [r/pics]
//	domains: [tracker.example.com]
//	filter_users: true
//	enable_sync: false
func LoadSeed(path string) (domain.Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return domain.Record{}, fmt.Errorf("unsupported seed file type %q", ext)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return domain.Record{}, fmt.Errorf("failed to load seed file %s: %w", path, err)
	}

	rec := domain.EmptyRecord()
	rec.Users = k.Strings("users")
	rec.Keywords = k.Strings("keywords")
	rec.Subreddits = k.Strings("subreddits")
	rec.Domains = k.Strings("domains")

	prefs := []struct {
		key string
		dst *bool
	}{
		{"logging_enabled", &rec.Prefs.LoggingEnabled},
		{"filter_users", &rec.Prefs.FilterUsers},
		{"filter_keywords", &rec.Prefs.FilterKeywords},
		{"filter_subreddits", &rec.Prefs.FilterSubreddits},
		{"filter_domains", &rec.Prefs.FilterDomains},
		{"enable_sync", &rec.Prefs.EnableSync},
	}
	for _, p := range prefs {
		if k.Exists(p.key) {
			*p.dst = k.Bool(p.key)
		}
	}

	return rec, nil
}

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toyinlola/pkgrisk/pkg/catalog"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

// FileProvider serves snapshots from a YAML or JSON file holding a list of
// snapshots. It also implements interfaces.Searcher.
type FileProvider struct {
	snapshots []*interfaces.MetadataSnapshot
	byName    map[string]*interfaces.MetadataSnapshot
}

// LoadFile reads a snapshot file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func LoadFile(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: reading snapshot file %s: %w", path, err)
	}

	var list []*interfaces.MetadataSnapshot
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &list)
	} else {
		err = yaml.Unmarshal(data, &list)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: parsing snapshot file %s: %w", path, err)
	}
	return NewFileProvider(list)
}

// NewFileProvider indexes snapshots by normalized name. Every snapshot needs a
// name and names must be unique.
func NewFileProvider(list []*interfaces.MetadataSnapshot) (*FileProvider, error) {
	p := &FileProvider{byName: make(map[string]*interfaces.MetadataSnapshot, len(list))}
	for i, s := range list {
		if s == nil || strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("registry: snapshot %d has no name", i)
		}
		key := catalog.NormalizeName(s.Name)
		if _, dup := p.byName[key]; dup {
			return nil, fmt.Errorf("registry: duplicate snapshot for %q", s.Name)
		}
		p.byName[key] = s
		p.snapshots = append(p.snapshots, s)
	}
	return p, nil
}

// Fetch returns a copy of the named snapshot.
func (p *FileProvider) Fetch(_ context.Context, name string) (*interfaces.MetadataSnapshot, error) {
	s, ok := p.byName[catalog.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c := *s
	return &c, nil
}

// Names lists snapshot names in file order.
func (p *FileProvider) Names() []string {
	names := make([]string, 0, len(p.snapshots))
	for _, s := range p.snapshots {
		names = append(names, s.Name)
	}
	return names
}

// Search ranks snapshots by how many terms appear in their keywords or
// summary. Ties keep file order.
func (p *FileProvider) Search(_ context.Context, terms []string, limit int) ([]string, error) {
	type hit struct {
		name  string
		score int
	}
	var hits []hit
	for _, s := range p.snapshots {
		if n := matchCount(s, terms); n > 0 {
			hits = append(hits, hit{name: s.Name, score: n})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return b.score - a.score })

	var out []string
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h.name)
	}
	return out, nil
}

func matchCount(s *interfaces.MetadataSnapshot, terms []string) int {
	summary := strings.ToLower(s.Summary)
	var n int
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.Contains(summary, t) || slices.ContainsFunc(s.Keywords, func(k string) bool {
			return strings.EqualFold(k, t)
		}) {
			n++
		}
	}
	return n
}

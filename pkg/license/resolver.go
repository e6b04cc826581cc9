// Package license resolves free-text license strings to canonical policy
// records with explicit capability and obligation facts.
package license

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/toyinlola/pkgrisk/pkg/interfaces"
)

//go:embed licenses.toml
var embeddedTable []byte

// entry is one [[license]] row of the policy table.
type entry struct {
	ID           string            `toml:"id" validate:"required"`
	Name         string            `toml:"name" validate:"required"`
	Category     string            `toml:"category" validate:"required,oneof=permissive weak-copyleft strong-copyleft network-copyleft proprietary ambiguous"`
	Aliases      []string          `toml:"aliases" validate:"dive,required"`
	Capabilities map[string]string `toml:"capabilities" validate:"required,len=7,dive,keys,oneof=use copy modify distribute sell saas private_use,endkeys,oneof=allowed forbidden needs_review"`
	Obligations  map[string]string `toml:"obligations" validate:"dive,keys,oneof=attribution disclose_source share_alike network_copyleft state_changes,endkeys,oneof=required not_required needs_review"`
}

type table struct {
	Licenses []entry `toml:"license" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Resolver maps raw license text to records. It is read-only after construction
// and safe for concurrent use.
type Resolver struct {
	records map[string]interfaces.LicenseRecord
	aliases map[string]string
	folded  map[string]string
	logger  *slog.Logger
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the resolver backed by the embedded policy table.
// Invalid embedded data is a build defect and panics.
func Default() *Resolver {
	defaultOnce.Do(func() {
		r, err := Parse(embeddedTable)
		if err != nil {
			panic(fmt.Sprintf("license: embedded table is invalid: %v", err))
		}
		defaultResolver = r
	})
	return defaultResolver
}

// LoadFile builds a resolver from a policy table override file.
func LoadFile(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("license: reading %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("license: %s: %w", path, err)
	}
	return r, nil
}

// Load builds a resolver from a TOML policy table.
func Load(rd io.Reader) (*Resolver, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("license: reading: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates TOML policy data.
func Parse(data []byte) (*Resolver, error) {
	var t table
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding license table: %w", err)
	}
	if err := validate.Struct(&t); err != nil {
		return nil, fmt.Errorf("validating license table: %w", err)
	}

	r := &Resolver{
		records: make(map[string]interfaces.LicenseRecord, len(t.Licenses)),
		aliases: make(map[string]string),
		folded:  make(map[string]string),
		logger:  slog.Default(),
	}
	for _, e := range t.Licenses {
		if _, dup := r.records[e.ID]; dup {
			return nil, fmt.Errorf("validating license table: duplicate id %q", e.ID)
		}
		r.records[e.ID] = e.record()
	}
	for id := range r.records {
		r.folded[strings.ToLower(id)] = id
	}
	for _, e := range t.Licenses {
		for _, a := range e.Aliases {
			a = strings.TrimSpace(a)
			if owner, dup := r.aliases[a]; dup && owner != e.ID {
				return nil, fmt.Errorf("validating license table: alias %q claimed by %s and %s", a, owner, e.ID)
			}
			if _, clash := r.records[a]; clash && a != e.ID {
				return nil, fmt.Errorf("validating license table: alias %q shadows canonical id", a)
			}
			r.aliases[a] = e.ID
			if _, taken := r.folded[strings.ToLower(a)]; !taken {
				r.folded[strings.ToLower(a)] = e.ID
			}
		}
	}
	return r, nil
}

func (e entry) record() interfaces.LicenseRecord {
	rec := interfaces.LicenseRecord{
		ID:           e.ID,
		Name:         e.Name,
		Category:     interfaces.LicenseCategory(e.Category),
		Capabilities: make(map[interfaces.Capability]interfaces.TriState, len(e.Capabilities)),
		Obligations:  make(map[interfaces.Obligation]interfaces.TriState, len(interfaces.Obligations)),
	}
	for k, v := range e.Capabilities {
		state, _ := interfaces.ParseTriState(v)
		rec.Capabilities[interfaces.Capability(k)] = state
	}
	for _, o := range interfaces.Obligations {
		rec.Obligations[o] = interfaces.NotRequired
	}
	for k, v := range e.Obligations {
		state, _ := interfaces.ParseTriState(v)
		rec.Obligations[interfaces.Obligation(k)] = state
	}
	return rec
}

// WithLogger returns a copy of the resolver that logs through l.
func (r *Resolver) WithLogger(l *slog.Logger) *Resolver {
	cp := *r
	cp.logger = l
	return &cp
}

// Resolve normalizes raw license text. Lookup order: exact canonical id, exact
// alias, case-insensitive id or alias, then the UNKNOWN record.
func (r *Resolver) Resolve(raw string) interfaces.LicenseRecord {
	s := strings.TrimSpace(raw)
	if rec, ok := r.records[s]; ok {
		return clone(rec)
	}
	if id, ok := r.aliases[s]; ok {
		return clone(r.records[id])
	}
	if id, ok := r.folded[strings.ToLower(s)]; ok {
		return clone(r.records[id])
	}
	r.logger.Debug("license not recognised, using UNKNOWN record", "license", s)
	return Unknown()
}

// Lookup returns the record for a canonical id.
func (r *Resolver) Lookup(id string) (interfaces.LicenseRecord, bool) {
	rec, ok := r.records[id]
	if !ok {
		return interfaces.LicenseRecord{}, false
	}
	return clone(rec), true
}

// Len returns the number of canonical records in the table.
func (r *Resolver) Len() int {
	return len(r.records)
}

// Unknown returns the fallback record: every capability Forbidden and no obligations.
func Unknown() interfaces.LicenseRecord {
	rec := interfaces.LicenseRecord{
		ID:           interfaces.UnknownLicenseID,
		Name:         "Unknown license",
		Category:     interfaces.CategoryUnknown,
		Capabilities: make(map[interfaces.Capability]interfaces.TriState, len(interfaces.Capabilities)),
		Obligations:  make(map[interfaces.Obligation]interfaces.TriState, len(interfaces.Obligations)),
	}
	for _, c := range interfaces.Capabilities {
		rec.Capabilities[c] = interfaces.Forbidden
	}
	for _, o := range interfaces.Obligations {
		rec.Obligations[o] = interfaces.NotRequired
	}
	return rec
}

func clone(rec interfaces.LicenseRecord) interfaces.LicenseRecord {
	rec.Capabilities = maps.Clone(rec.Capabilities)
	rec.Obligations = maps.Clone(rec.Obligations)
	return rec
}

// Package providers contains the metadata provider registry (YAML/JSON) and adapters.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// RoleMetadata providers form the title-bearing fallback chain, tried in order.
	RoleMetadata = "metadata"
	// RoleSupplement providers are independent services queried alongside the chain.
	RoleSupplement = "supplement"
)

// Provider is one configured upstream service.
type Provider struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	Type              string            `json:"type" yaml:"type"`
	Role              string            `json:"role" yaml:"role"`
	Enabled           *bool             `json:"enabled" yaml:"enabled"`
	SourceURL         string            `json:"source_url" yaml:"source_url"`
	TimeoutMs         int               `json:"timeout_ms" yaml:"timeout_ms"`
	RequestsPerSecond float64           `json:"requests_per_second" yaml:"requests_per_second"`
	Headers           map[string]string `json:"headers" yaml:"headers"`
	Config            map[string]any    `json:"config" yaml:"config"`
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// Registry is an ordered, validated provider list. File order is priority order.
type Registry struct {
	providers []Provider
	idx       map[string]Provider
}

// defaultProvidersYAML mirrors configs/providers.yaml without the optional Unpaywall entry.
const defaultProvidersYAML = `
providers:
  - id: crossref
    name: Crossref
    type: crossref
    role: metadata
    source_url: https://api.crossref.org/v1/works
    config:
      mailto: ${CROSSREF_MAILTO}
  - id: datacite
    name: DataCite
    type: datacite
    role: metadata
    source_url: https://api.datacite.org/dois
  - id: opencitations
    name: OpenCitations COCI
    type: opencitations
    role: supplement
    source_url: https://opencitations.net/index/coci/api/v1/citations
    headers:
      authorization: ${OPENCITATIONS_TOKEN}
`

// LoadRegistry loads the provider registry from file. An empty path yields the built-in
// Crossref -> DataCite chain plus OpenCitations.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		reg, err := parseRegistry([]byte(defaultProvidersYAML), ".yaml")
		if err != nil {
			return nil, err
		}
		return NewRegistry(reg.Providers)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(reg.Providers)
}

// NewRegistry sanitizes and validates list, keeping its order.
func NewRegistry(list []Provider) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	reg := &Registry{
		providers: make([]Provider, 0, len(list)),
		idx:       make(map[string]Provider, len(list)),
	}
	for i := range list {
		p := sanitizeProvider(list[i])
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		reg.providers = append(reg.providers, p)
		reg.idx[p.ID] = p
	}
	return reg, nil
}

// All returns a copy of the configured providers in priority order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ByID returns the provider entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	p, ok := r.idx[strings.TrimSpace(id)]
	return p, ok
}

// Enabled returns enabled providers with the given role, in priority order.
func (r *Registry) Enabled(role string) []Provider {
	var out []Provider
	for _, p := range r.All() {
		if p.EnabledValue() && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("providers file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s providers: %w", name, err)
	}
	return reg, nil
}

// defaultRoles assigns a role to well-known adapter types when none is configured.
var defaultRoles = map[string]string{
	TypeCrossref:      RoleMetadata,
	TypeDataCite:      RoleMetadata,
	TypeOpenCitations: RoleSupplement,
	TypeUnpaywall:     RoleSupplement,
}

func sanitizeProvider(p Provider) Provider {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.Role = strings.ToLower(strings.TrimSpace(p.Role))
	p.SourceURL = strings.TrimRight(strings.TrimSpace(p.SourceURL), "/")

	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Role == "" {
		p.Role = defaultRoles[p.Type]
	}
	if p.Enabled == nil {
		def := true
		p.Enabled = &def
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	for k, v := range p.Config {
		if s, ok := v.(string); ok {
			p.Config[k] = strings.TrimSpace(os.ExpandEnv(s))
		}
	}
	p.Headers = expandHeaders(p.Headers)

	return p
}

// expandHeaders resolves ${ENV} references and drops headers that end up empty.
func expandHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(os.ExpandEnv(v))
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Type == "" {
		return fmt.Errorf("type is required for provider %q", p.ID)
	}
	if p.Role != RoleMetadata && p.Role != RoleSupplement {
		return fmt.Errorf("role must be %q or %q for provider %q", RoleMetadata, RoleSupplement, p.ID)
	}
	if p.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	}
	if p.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms must not be negative for provider %q", p.ID)
	}
	return nil
}

// EnabledValue returns the enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// Timeout returns the per-call timeout, or fallback when none is configured.
func (p Provider) Timeout(fallback time.Duration) time.Duration {
	if p.TimeoutMs <= 0 {
		return fallback
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

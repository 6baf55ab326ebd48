package uri

import (
	"strings"
	"sync"
)

// Well-known namespace URIs used across the module.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	TimeNamespace = "http://www.w3.org/2006/time#"

	// DefaultBase is the base URI minted entities live under unless a
	// custom base is registered.
	DefaultBase = "http://example.org/kb/"
)

// Registry holds prefix to base URI mappings.
// Registrations are last-writer-wins: re-registering a prefix silently
// replaces the previous base URI.
type Registry struct {
	mu       sync.RWMutex
	prefixes map[string]string
}

// NewRegistry creates a registry pre-loaded with the rdf, rdfs, xsd and
// time namespaces plus per-entity-kind buckets under base.
// An empty base falls back to DefaultBase.
func NewRegistry(base string) *Registry {
	if base == "" {
		base = DefaultBase
	}
	if !strings.HasSuffix(base, "/") && !strings.HasSuffix(base, "#") {
		base += "/"
	}

	r := &Registry{prefixes: make(map[string]string)}
	r.Register("rdf", RDFNamespace)
	r.Register("rdfs", RDFSNamespace)
	r.Register("xsd", XSDNamespace)
	r.Register("time", TimeNamespace)
	r.Register("base", base)
	for _, bucket := range []string{"entity", "character", "event", "action", "resource"} {
		r.Register(bucket, base+bucket+"/")
	}
	return r
}

// Register maps a prefix to a base URI. Last registration wins.
func (r *Registry) Register(prefix, uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = uri
}

// Resolve returns the base URI for a prefix, or "" if unregistered.
func (r *Registry) Resolve(prefix string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefixes[prefix]
}

// Expand turns a prefixed name like "rdf:type" into a full URI.
// Unregistered prefixes and already-expanded URIs pass through unchanged.
func (r *Registry) Expand(name string) string {
	if strings.Contains(name, "://") {
		return name
	}
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		return name
	}
	base := r.Resolve(prefix)
	if base == "" {
		return name
	}
	return base + local
}

// Prefixes returns a copy of all registered prefix mappings.
func (r *Registry) Prefixes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.prefixes))
	for k, v := range r.prefixes {
		out[k] = v
	}
	return out
}

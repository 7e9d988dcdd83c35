package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rix0rrr/cdk-reflect/core"
)

// distHashWidth is the number of hex characters kept from the sha256 of a
// distribution's canonical form. A collision between distinct distributions
// under this width is a fatal programming error (widen the hash).
const distHashWidth = 12

// Registry is the distribution model: every way to obtain a value of each
// FQN, plus a content-addressed table of value distributions. It is built
// once by extraction and read-only afterwards, except that generators may
// record additional anonymous distributions.
type Registry struct {
	fqnSources    map[string][]FqnSource
	distributions map[DistRef][]ValueSource
	canonical     map[DistRef][]byte
}

// NewRegistry returns an empty distribution registry.
func NewRegistry() *Registry {
	return &Registry{
		fqnSources:    make(map[string][]FqnSource),
		distributions: make(map[DistRef][]ValueSource),
		canonical:     make(map[DistRef][]byte),
	}
}

// AddFqnSource registers another way to obtain a value of fqn.
func (r *Registry) AddFqnSource(fqn string, src FqnSource) {
	r.fqnSources[fqn] = append(r.fqnSources[fqn], src)
}

// RecordDistribution content-addresses sources and stores them under the
// truncated hash of their canonical JSON form. Recording an equal
// distribution twice is idempotent and returns the same ref; a hash
// collision between distinct distributions returns ErrHashCollision.
func (r *Registry) RecordDistribution(sources []ValueSource) (DistRef, error) {
	canon, err := canonicalSources(sources)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	ref := DistRef(hex.EncodeToString(sum[:])[:distHashWidth])
	if existing, ok := r.canonical[ref]; ok {
		if !bytes.Equal(existing, canon) {
			return "", fmt.Errorf("%w: id %s (increase hash width)", core.ErrHashCollision, ref)
		}
		return ref, nil
	}
	r.distributions[ref] = sources
	r.canonical[ref] = canon
	return ref, nil
}

// LookupDist returns the alternatives stored under ref.
func (r *Registry) LookupDist(ref DistRef) ([]ValueSource, error) {
	sources, ok := r.distributions[ref]
	if !ok {
		return nil, fmt.Errorf("distribution %s: %w", ref, core.ErrNoSources)
	}
	return sources, nil
}

// LookupFqn returns every registered source of fqn.
func (r *Registry) LookupFqn(fqn string) ([]FqnSource, error) {
	sources, ok := r.fqnSources[fqn]
	if !ok {
		return nil, fmt.Errorf("%q: %w", fqn, core.ErrModelNotFound)
	}
	return sources, nil
}

// FQNs returns every FQN with at least one source, sorted.
func (r *Registry) FQNs() []string {
	out := make([]string, 0, len(r.fqnSources))
	for fqn := range r.fqnSources {
		out = append(out, fqn)
	}
	sort.Strings(out)
	return out
}

// Resolve inlines FqnRefs by splatting the sources of their FQN, returning
// the ordered alternatives whose indices become DistPtr.SourceIndex.
// Resolution is single-step: splatted FqnSources contain no further
// indirection. An empty resolution is a first-class failure.
func (r *Registry) Resolve(ref DistRef) ([]Source, error) {
	sources, err := r.LookupDist(ref)
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(sources))
	for _, src := range sources {
		if fr, ok := src.(FqnRef); ok {
			splat, err := r.LookupFqn(fr.FQN)
			if err != nil {
				return nil, err
			}
			for _, fs := range splat {
				out = append(out, fs)
			}
			continue
		}
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("distribution %s: %w", ref, core.ErrNoSources)
	}
	return out, nil
}

func canonicalSources(sources []ValueSource) ([]byte, error) {
	enc := make([]*jsonSource, len(sources))
	for i, s := range sources {
		js, err := marshalValueSource(s)
		if err != nil {
			return nil, err
		}
		enc[i] = js
	}
	return json.Marshal(enc)
}

type jsonModel struct {
	FqnSources    map[string][]*jsonSource `json:"fqnSources"`
	Distributions map[DistRef][]*jsonSource `json:"distributions"`
}

// MarshalJSON serializes the model in its persistable shape.
func (r *Registry) MarshalJSON() ([]byte, error) {
	jm := jsonModel{
		FqnSources:    make(map[string][]*jsonSource, len(r.fqnSources)),
		Distributions: make(map[DistRef][]*jsonSource, len(r.distributions)),
	}
	for fqn, sources := range r.fqnSources {
		enc := make([]*jsonSource, len(sources))
		for i, s := range sources {
			js, err := marshalFqnSource(s)
			if err != nil {
				return nil, err
			}
			enc[i] = js
		}
		jm.FqnSources[fqn] = enc
	}
	for ref, sources := range r.distributions {
		enc := make([]*jsonSource, len(sources))
		for i, s := range sources {
			js, err := marshalValueSource(s)
			if err != nil {
				return nil, err
			}
			enc[i] = js
		}
		jm.Distributions[ref] = enc
	}
	return json.Marshal(jm)
}

// UnmarshalJSON restores a persisted model. Canonical forms are rebuilt so
// that recording an already-present distribution stays idempotent.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var jm jsonModel
	if err := json.Unmarshal(data, &jm); err != nil {
		return fmt.Errorf("unmarshal model: %w", err)
	}
	r.fqnSources = make(map[string][]FqnSource, len(jm.FqnSources))
	r.distributions = make(map[DistRef][]ValueSource, len(jm.Distributions))
	r.canonical = make(map[DistRef][]byte, len(jm.Distributions))
	for fqn, enc := range jm.FqnSources {
		sources := make([]FqnSource, len(enc))
		for i, js := range enc {
			s, err := unmarshalFqnSource(js)
			if err != nil {
				return err
			}
			sources[i] = s
		}
		r.fqnSources[fqn] = sources
	}
	for ref, enc := range jm.Distributions {
		sources := make([]ValueSource, len(enc))
		for i, js := range enc {
			s, err := unmarshalValueSource(js)
			if err != nil {
				return err
			}
			sources[i] = s
		}
		canon, err := canonicalSources(sources)
		if err != nil {
			return err
		}
		r.distributions[ref] = sources
		r.canonical[ref] = canon
	}
	return nil
}

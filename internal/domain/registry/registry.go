// Package registry holds the process-wide synonym table for supply item
// names and the numeric thresholds the analysis pipeline relies on. Both are
// immutable after construction: build once at startup, pass by reference.
package registry

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/surgaudit/surgaudit/internal/domain/matching"
)

// Registry maps folded supply-name aliases to one canonical name.
type Registry struct {
	aliases map[string]string
}

// New builds a Registry from a canonical-name -> aliases mapping. The
// canonical name itself always resolves to itself; aliases and canonical
// names are folded before being indexed.
func New(synonyms map[string][]string) *Registry {
	r := &Registry{aliases: make(map[string]string)}
	for canonical, variants := range synonyms {
		key := matching.Fold(canonical)
		if key == "" {
			continue
		}
		r.aliases[key] = key
		for _, v := range variants {
			folded := matching.Fold(v)
			if folded != "" {
				r.aliases[folded] = key
			}
		}
	}
	return r
}

// LoadFile reads a synonym registry from a YAML or JSON file with a top-level
// "synonyms" mapping of canonical name to alias list.
func LoadFile(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read synonyms file %s: %w", path, err)
	}
	synonyms := v.GetStringMapStringSlice("synonyms")
	if len(synonyms) == 0 {
		return nil, fmt.Errorf("synonyms file %s has no synonyms mapping", path)
	}
	return New(synonyms), nil
}

// Resolve returns the canonical name for a raw supply name, or the folded
// input unchanged when no alias is registered. Resolve(Resolve(x)) == Resolve(x).
func (r *Registry) Resolve(name string) string {
	folded := matching.Fold(name)
	if canonical, ok := r.aliases[folded]; ok {
		return canonical
	}
	return folded
}

// Known reports whether a name resolves through a registered alias.
func (r *Registry) Known(name string) bool {
	_, ok := r.aliases[matching.Fold(name)]
	return ok
}

// Canonicals returns the sorted set of canonical names in the registry.
func (r *Registry) Canonicals() []string {
	seen := make(map[string]bool)
	for _, canonical := range r.aliases {
		seen[canonical] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Default returns the registry shipped with the service: the supply synonym
// families observed across internal reports, hospital reports, and surgical
// narratives.
func Default() *Registry {
	return New(map[string][]string{
		"cateter":             {"sonda", "tubo", "cateteres"},
		"gasa":                {"gasas", "compresa", "gasa esteril", "gasa estéril"},
		"sutura":              {"hilo", "punto", "suturas"},
		"bisturi":             {"cuchilla", "escalpelo"},
		"aguja":               {"inyector", "puncion", "agujas"},
		"tornillo encefalico": {"torn encefalico", "tornillo encefálico", "tornillos"},
		"placa curvanerv":     {"placa curvanervios", "placas"},
		"pin smartman":        {"pin", "pines"},
	})
}

package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Registry holds the available profiles by name.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry creates a registry with the given profiles. Later profiles
// replace earlier ones with the same name.
func NewRegistry(ps ...*Profile) *Registry {
	r := &Registry{profiles: make(map[string]*Profile, len(ps))}
	for _, p := range ps {
		r.profiles[p.Name] = p
	}
	return r
}

// Default returns a registry with the fruit, helmet, mask and plate profiles.
func Default() *Registry {
	return NewRegistry(Fruit(), Helmet(), Mask(), Plate())
}

// Get returns the named profile.
func (r *Registry) Get(name string) (*Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// Names returns the profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the profiles sorted by name.
func (r *Registry) All() []*Profile {
	names := r.Names()
	out := make([]*Profile, len(names))
	for i, name := range names {
		out[i] = r.profiles[name]
	}
	return out
}

// LabelOverride replaces a profile's label table.
//
// Names keys are class IDs written as strings, as JSON requires.
type LabelOverride struct {
	Version     string            `json:"version"`
	Names       map[string]string `json:"names"`
	Placeholder string            `json:"placeholder,omitempty"`
	Threshold   float64           `json:"threshold,omitempty"`
}

// LoadOverrides reads a label override file of the form
//
//	{"fruit": {"version": "fruit-v4", "names": {"0": "Banana"}}}
func LoadOverrides(path string) (map[string]LabelOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label overrides: %w", err)
	}
	var overrides map[string]LabelOverride
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse label overrides %s: %w", path, err)
	}
	return overrides, nil
}

// ApplyOverrides replaces the label tables of the named profiles.
//
// It must be called before the registry is shared. Overrides for unknown
// profiles and non-numeric class IDs are errors; nothing is applied unless
// every override is valid.
func (r *Registry) ApplyOverrides(overrides map[string]LabelOverride) error {
	type update struct {
		p  *Profile
		ov LabelOverride
		ns map[int]string
	}
	updates := make([]update, 0, len(overrides))

	for name, ov := range overrides {
		p, ok := r.profiles[name]
		if !ok {
			return fmt.Errorf("label override for unknown profile %q", name)
		}
		names := make(map[int]string, len(ov.Names))
		for key, label := range ov.Names {
			id, err := strconv.Atoi(key)
			if err != nil || id < 0 {
				return fmt.Errorf("profile %s: invalid class id %q", name, key)
			}
			names[id] = label
		}
		if ov.Threshold < 0 || ov.Threshold > MaxThreshold {
			return fmt.Errorf("profile %s: threshold %.2f out of range", name, ov.Threshold)
		}
		updates = append(updates, update{p: p, ov: ov, ns: names})
	}

	for _, u := range updates {
		u.p.Labels.Names = u.ns
		if u.ov.Version != "" {
			u.p.Labels.Version = u.ov.Version
		}
		if u.ov.Placeholder != "" {
			u.p.Labels.Placeholder = u.ov.Placeholder
		}
		if u.ov.Threshold > 0 {
			u.p.Threshold = u.ov.Threshold
		}
	}
	return nil
}

package persona

// Descriptor is a named style/goal profile shaping prompt construction.
// Personas are data, not behavior: every persona shares one respond
// algorithm and differs only by descriptor text.
type Descriptor struct {
	Name  string `json:"name"`
	Style string `json:"style"`
	Goals string `json:"goals"`
}

// Registry is the immutable set of personas, fixed at startup.
type Registry struct {
	personas map[string]Descriptor
	def      Descriptor
}

// NewRegistry builds the statically registered persona set. The "echo"
// persona doubles as the deterministic default for unknown names.
func NewRegistry() *Registry {
	def := Descriptor{
		Name:  "Echo",
		Style: "caring, empathetic",
		Goals: "help user emotionally and give supportive replies",
	}
	personas := map[string]Descriptor{
		"echo": def,
		"sage": {
			Name:  "Sage",
			Style: "calm, reflective, wise",
			Goals: "offer perspective and gentle guidance without judgement",
		},
		"spark": {
			Name:  "Spark",
			Style: "playful, upbeat, encouraging",
			Goals: "lift the user's mood and celebrate small wins",
		},
	}
	return &Registry{personas: personas, def: def}
}

// Resolve maps a persona name to its descriptor. The match is exact and
// case-sensitive; any unmatched name yields the default persona, never an
// error.
func (r *Registry) Resolve(name string) Descriptor {
	if d, ok := r.personas[name]; ok {
		return d
	}
	return r.def
}

// Default returns the default persona descriptor.
func (r *Registry) Default() Descriptor { return r.def }

// Names lists the registered persona keys.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.personas))
	for name := range r.personas {
		names = append(names, name)
	}
	return names
}

package hostlib

import "sort"

// EnvHost exposes a fixed set of variables and arguments. It never reads
// the process environment.
type EnvHost struct {
	env  map[string]string
	args []string
}

func NewEnvHost(env map[string]string, args []string) *EnvHost {
	if env == nil {
		env = make(map[string]string)
	}
	return &EnvHost{env: env, args: args}
}

func (h *EnvHost) Namespace() string {
	return "env"
}

func (h *EnvHost) Get(name string) string {
	return h.env[name]
}

func (h *EnvHost) Has(name string) bool {
	_, ok := h.env[name]
	return ok
}

func (h *EnvHost) Keys() []string {
	keys := make([]string, 0, len(h.env))
	for k := range h.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h *EnvHost) Args() []string {
	if h.args == nil {
		return []string{}
	}
	return h.args
}

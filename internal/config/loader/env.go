package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of every blockstorm environment variable.
const DefaultEnvPrefix = "BLOCKSTORM_"

// EnvLoader maps environment variables onto configuration paths.
//
// Explicitly mapped variables go to their configured path. Any other
// variable carrying the prefix is converted by convention:
// BLOCKSTORM_EDITOR_DEFAULT_TOOL becomes editor.defaultTool.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	environ func() []string
}

// NewEnvLoader creates a loader with the default mapping.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom creates a loader over a fixed environment, for tests.
func NewEnvLoaderFrom(prefix string, env []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = func() []string { return env }
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":    "log.level",
		prefix + "LOG_FORMAT":   "log.format",
		prefix + "ADDR":         "server.addr",
		prefix + "TOOLS_DIR":    "tools.scriptDir",
		prefix + "DEFAULT_TOOL": "editor.defaultTool",
	}
}

// AddMapping maps envVar to a configuration path.
func (l *EnvLoader) AddMapping(envVar, path string) {
	l.mapping[envVar] = path
}

// Load scans the environment.
func (l *EnvLoader) Load() (map[string]any, error) {
	tree := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		Set(tree, path, parseEnvValue(value))
	}
	return tree, nil
}

// envToPath converts PREFIX_SECTION_SOME_NAME to section.someName.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}
	var b strings.Builder
	for i, p := range parts[1:] {
		p = strings.ToLower(p)
		if i > 0 && p != "" {
			p = strings.ToUpper(p[:1]) + p[1:]
		}
		b.WriteString(p)
	}
	return section + "." + b.String()
}

// parseEnvValue converts booleans and integers; everything else, including
// durations, stays a string for the section decoder to interpret.
func parseEnvValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

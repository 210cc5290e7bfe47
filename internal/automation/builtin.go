package automation

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/san-kum/quadsim/internal/dynamo"
)

//go:embed scenarios/*.yaml
var builtinFS embed.FS

// Builtin loads a scenario shipped with the binary.
func Builtin(name string) (*Scenario, error) {
	data, err := builtinFS.ReadFile(path.Join("scenarios", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("automation: scenario %q: %w", name, dynamo.ErrUnknownName)
	}
	return ParseScenario(data)
}

// ListBuiltin returns the shipped scenario names, sorted.
func ListBuiltin() []string {
	entries, _ := builtinFS.ReadDir("scenarios")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Resolve loads a builtin by name, falling back to a file path.
func Resolve(nameOrPath string) (*Scenario, error) {
	if sc, err := Builtin(nameOrPath); err == nil {
		return sc, nil
	}
	return LoadScenario(nameOrPath)
}

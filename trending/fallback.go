package trending

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

var fallbackLists map[Kind][]Item

func init() {
	if err := yaml.Unmarshal(fallbackYAML, &fallbackLists); err != nil {
		panic(fmt.Sprintf("trending: invalid fallback.yaml: %v", err))
	}
}

// fallbackItems returns a copy of the static list for kind.
func fallbackItems(kind Kind) []Item {
	return append([]Item(nil), fallbackLists[kind]...)
}

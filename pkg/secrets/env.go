package secrets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/keyfoldhq/keyfold/pkg/validate"
)

// ParseEnv reads dotenv-style content into a key/value map. Blank lines and
// comments are skipped, an optional "export " prefix and single or double
// quotes around the value are stripped. Keys must be valid env keys.
func ParseEnv(content string) (map[string]string, error) {
	values := map[string]string{}
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("line %d: expected KEY=value", i+1)
		}
		key = strings.TrimSpace(key)
		if !validate.EnvKey(key) {
			return nil, fmt.Errorf("line %d: invalid key %q", i+1, key)
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}
	return values, nil
}

// ToEnv renders a key/value map as dotenv-style lines sorted by key. Values
// containing newlines cannot be represented and are rejected.
func ToEnv(values map[string]string) (string, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		value := values[key]
		if strings.ContainsAny(value, "\r\n") {
			return "", fmt.Errorf("value of %q contains a newline and cannot be rendered as env", key)
		}
		fmt.Fprintf(&b, "%s=%s\n", key, value)
	}
	return b.String(), nil
}

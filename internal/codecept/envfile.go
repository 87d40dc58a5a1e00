package codecept

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/wpdevtools/devtools/internal/config"
	"github.com/wpdevtools/devtools/internal/node"
)

var envKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnvFile renders tree as KEY=value lines in mapping order. Lines are
// produced by godotenv, so values are double-quoted and escaped unless they
// are plain integers. Booleans are written as true/false and null as an
// empty value.
func EnvFile(tree node.Node) ([]byte, error) {
	if !tree.IsMapping() {
		return nil, fmt.Errorf("env configuration is a %s, want a mapping: %w", tree.Kind(), config.ErrInvalidConfigShape)
	}

	var buf bytes.Buffer
	for _, k := range tree.Keys() {
		if !envKey.MatchString(k) {
			return nil, fmt.Errorf("env: invalid variable name %q: %w", k, config.ErrInvalidConfigShape)
		}
		v, _ := tree.Get(k)
		if !v.IsScalar() {
			return nil, fmt.Errorf("env: %s is a %s, want a scalar: %w", k, v.Kind(), config.ErrInvalidConfigShape)
		}
		line, err := envLine(k, v.Text())
		if err != nil {
			return nil, fmt.Errorf("env: %s: %w", k, err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// envLine marshals a single variable. godotenv.Marshal sorts its output, so
// it is called once per key to keep the configured order.
func envLine(key, value string) (string, error) {
	// Marshal rewrites integer-looking values through Atoi, which would
	// turn "007" into 7 and "+1" into 1.
	if d, err := strconv.Atoi(value); err == nil && strconv.Itoa(d) != value {
		return key + `="` + value + `"`, nil
	}
	return godotenv.Marshal(map[string]string{key: value})
}

package params

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

const (
	// PortKey is the reserved key holding the server port.
	PortKey = "port"

	// DefaultPort is used when the document has no port key.
	DefaultPort = 4444

	maxPort = 65535

	// Floats with a decimal exponent outside [minPlainExponent, maxPlainExponent)
	// are rendered in scientific notation.
	minPlainExponent = -4
	maxPlainExponent = 16
)

var (
	// ErrConfigMissing is returned when the parameters file does not exist.
	ErrConfigMissing = errors.New("parameters file not found")
	// ErrConfigMalformed is returned when the parameters file cannot be parsed or holds unsupported values.
	ErrConfigMalformed = errors.New("parameters file is malformed")
)

// Entry is one top-level key of the parameters document.
type Entry struct {
	// Key is the lower-cased key.
	Key string
	// Value is a string, int64, float64 or bool.
	Value any
}

// FlagValue renders the value the way it is passed on the command line: lower-cased.
func (e Entry) FlagValue() string {
	switch v := e.Value.(type) {
	case string:
		return strings.ToLower(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	default:
		return strings.ToLower(fmt.Sprint(v))
	}
}

// Params is the loaded parameters document. It is read-only after Load.
type Params struct {
	entries []Entry
	index   map[string]int
}

// Load reads and parses the parameters document at path.
func Load(path string) (*Params, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigMissing)
		}

		return nil, fmt.Errorf("read parameters: %w", err)
	}

	p, err := Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Parse decodes a TOML parameters document.
func Parse(data []byte) (*Params, error) {
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, column := decodeErr.Position()

			return nil, fmt.Errorf("%w: line %d, column %d: %s", ErrConfigMalformed, row, column, decodeErr.Error())
		}

		return nil, fmt.Errorf("%w: %w", ErrConfigMalformed, err)
	}

	keys, err := topLevelKeys(data)
	if err != nil {
		return nil, err
	}

	p := &Params{
		entries: make([]Entry, 0, len(keys)),
		index:   make(map[string]int, len(keys)),
	}

	for _, key := range keys {
		value, ok := values[key]
		if !ok {
			continue
		}

		if err = p.add(key, value); err != nil {
			return nil, err
		}
	}

	if err = p.validatePort(); err != nil {
		return nil, err
	}

	return p, nil
}

// topLevelKeys returns the first segment of every top-level key in document order.
func topLevelKeys(data []byte) ([]string, error) {
	var (
		parser unstable.Parser
		keys   []string
		seen   = make(map[string]struct{})
	)

	parser.Reset(data)

	for parser.NextExpression() {
		expr := parser.Expression()

		if expr.Kind == unstable.Table || expr.Kind == unstable.ArrayTable {
			// Keys after a header belong to that table.
			key := firstKeySegment(expr)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}

			break
		}

		if expr.Kind != unstable.KeyValue {
			continue
		}

		key := firstKeySegment(expr)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	if err := parser.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigMalformed, err)
	}

	return keys, nil
}

func firstKeySegment(expr *unstable.Node) string {
	it := expr.Key()
	if !it.Next() {
		return ""
	}

	return string(it.Node().Data)
}

func (p *Params) add(key string, value any) error {
	lower := strings.ToLower(key)

	if _, dup := p.index[lower]; dup {
		return fmt.Errorf("%w: key %q is defined more than once ignoring case", ErrConfigMalformed, key)
	}

	switch value.(type) {
	case string, bool, int64, float64:
	default:
		return fmt.Errorf("%w: key %q must be a string, number or boolean, got %T", ErrConfigMalformed, key, value)
	}

	p.index[lower] = len(p.entries)
	p.entries = append(p.entries, Entry{Key: lower, Value: value})

	return nil
}

func (p *Params) validatePort() error {
	value, ok := p.Get(PortKey)
	if !ok {
		return nil
	}

	port, isInt := value.(int64)
	if !isInt || port < 1 || port > maxPort {
		return fmt.Errorf("%w: %s must be an integer between 1 and %d, got %v", ErrConfigMalformed, PortKey, maxPort, value)
	}

	return nil
}

// Entries returns a copy of the entries in document order.
func (p *Params) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Len returns the number of entries.
func (p *Params) Len() int {
	return len(p.entries)
}

// Get returns the value for a key, matched case-insensitively.
func (p *Params) Get(key string) (any, bool) {
	i, ok := p.index[strings.ToLower(key)]
	if !ok {
		return nil, false
	}

	return p.entries[i].Value, true
}

// Port returns the configured port or DefaultPort.
func (p *Params) Port() int {
	value, ok := p.Get(PortKey)
	if !ok {
		return DefaultPort
	}

	// Validated as int64 within range during Parse.
	return int(value.(int64)) //nolint:forcetypeassert // Checked in validatePort.
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	// Shortest round-trip digits; scientific form outside 1e-4 <= |v| < 1e16.
	scientific := strconv.FormatFloat(v, 'e', -1, 64)

	exponent, err := strconv.Atoi(scientific[strings.IndexByte(scientific, 'e')+1:])
	if err == nil && (exponent < minPlainExponent || exponent >= maxPlainExponent) {
		return scientific
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

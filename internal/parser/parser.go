package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/skycoord/fleet/internal/util"
)

// Parser provides pure []string -> core struct conversion of wire
// arguments. It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// sanitize strips wrapping quotes and unescapes doubled quotes in place.
func sanitize(data []string) {
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
}

// trimBrackets strips the wrapping [ ] of a serialized coordinate array.
func trimBrackets(s string) string {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return s
}

// parseFloat parses a float argument with a field name for error context.
func parseFloat(s, field string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to float: %w", field, err)
	}
	return f, nil
}

// parseIntFromFloat parses a string that may be an integer ("3") or
// float ("3.00") into int. Some controllers serialize all numbers as
// floats.
func parseIntFromFloat(s, field string) (int, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %s to int: %w", field, err)
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%s: %q is not a valid integer", field, s)
	}
	return int(f), nil
}

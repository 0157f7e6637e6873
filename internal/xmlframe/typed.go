package xmlframe

import (
	"errors"
	"strconv"
	"strings"

	"github.com/llb-tools/llbreduce/internal/domain"
)

var errNegativeCount = errors.New("negative count")

// integerAttrs are the attribute names that must parse as integers.
var integerAttrs = map[string]bool{"x": true, "y": true, "z": true}

// attrValue types an attribute: x, y and z are integers, everything else is
// a float when lexically valid and otherwise the original string.
func attrValue(frame int, name, raw string) (domain.Value, error) {
	if integerAttrs[name] {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return domain.Value{}, &domain.ValueError{Frame: frame, Field: name, Token: raw, Err: err}
		}
		return domain.IntValue(n), nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return domain.FloatValue(f), nil
	}
	return domain.StringValue(raw), nil
}

// scalarValue types element text: an integer literal, then a float, then the
// trimmed string.
func scalarValue(text string) domain.Value {
	s := strings.TrimSpace(text)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.IntValue(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.FloatValue(f)
	}
	return domain.StringValue(s)
}

// parseGrid splits text on ';' and reshapes the counts into (ny, nx).
// Tokens are validated before the count so a bad token is always a
// ValueError.
func parseGrid(frame int, name, text string, nx, ny int) (*domain.Grid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, &domain.ShapeError{Frame: frame, Field: name,
			Msg: "non-positive dimensions x=" + strconv.Itoa(nx) + " y=" + strconv.Itoa(ny)}
	}
	tokens := strings.Split(strings.TrimSpace(text), ";")
	counts := make([]int64, len(tokens))
	for i, tok := range tokens {
		n, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil {
			return nil, &domain.ValueError{Frame: frame, Field: name, Token: tok, Err: err}
		}
		if n < 0 {
			return nil, &domain.ValueError{Frame: frame, Field: name, Token: tok, Err: errNegativeCount}
		}
		counts[i] = n
	}
	if nx > len(counts)/ny || len(counts) != nx*ny {
		return nil, &domain.ShapeError{Frame: frame, Field: name,
			Msg: strconv.Itoa(len(counts)) + " tokens for shape (" + strconv.Itoa(ny) + ", " + strconv.Itoa(nx) + ")"}
	}
	return &domain.Grid{NX: nx, NY: ny, Counts: counts}, nil
}

package pyramid

import (
	"encoding/json"
	"strconv"
	"strings"
)

var magnitudeUnits = []string{"克", "毫升", "mg", "ml", "kg", "g"}

// ParseMagnitude decodes one JSON value as a gram quantity. Numbers and
// numeric strings with an optional unit are accepted; null, booleans,
// garbage, negatives, NaN and Inf all become 0.
func ParseMagnitude(b []byte) float64 {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return Clamp(f)
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(strings.ToLower(s))
	for _, unit := range magnitudeUnits {
		if strings.HasSuffix(s, unit) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit))
			break
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Clamp(f)
}

// UnmarshalJSON reads a pyramid object leniently: keys are matched
// case-insensitively and each magnitude goes through ParseMagnitude. Only
// a body that is not a JSON object is an error.
func (p *Pyramid) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*p = Pyramid{}
	for key, value := range raw {
		v := ParseMagnitude(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "l1":
			p.L1 = v
		case "l2":
			p.L2 = v
		case "l3":
			p.L3 = v
		case "l4":
			p.L4 = v
		case "oil":
			p.Oil = v
		case "salt":
			p.Salt = v
		}
	}
	return nil
}

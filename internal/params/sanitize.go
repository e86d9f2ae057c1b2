package params

// Sanitize returns a copy of p without the top-level entries whose value is
// nil, the empty string, or the literal string "null". Nested values are
// left alone.
func Sanitize(p Params) Params {
	clean := make(Params, len(p))
	for key, value := range p {
		if isBlank(value) {
			continue
		}
		clean[key] = value
	}
	return clean
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "null"
	}
	return false
}

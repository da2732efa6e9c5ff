package expression

// accessor is one step of an attribute path: either a name or a list index.
type accessor struct {
	name   string
	index  string
	offset int
}

func (a accessor) isIndex() bool { return a.index != "" }

func (a accessor) String() string {
	if a.isIndex() {
		return "[" + a.index + "]"
	}
	return a.name
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '#' || c == '-'
}

// tokenize splits a path such as "a.b[2].c" into accessors. Names are
// separated by dots and indexes are bracketed non-negative integers.
func tokenize(path string) ([]accessor, bool) {
	var tokens []accessor
	i := 0
	for i < len(path) {
		switch {
		case path[i] == '[':
			start := i
			i++
			digits := i
			for i < len(path) && path[i] >= '0' && path[i] <= '9' {
				i++
			}
			if i == digits || i >= len(path) || path[i] != ']' {
				return nil, false
			}
			tokens = append(tokens, accessor{index: path[digits:i], offset: start})
			i++
		case path[i] == '.':
			if len(tokens) == 0 || i+1 >= len(path) || !isNameChar(path[i+1]) {
				return nil, false
			}
			i++
		case isNameChar(path[i]):
			if len(tokens) > 0 && path[i-1] != '.' {
				return nil, false
			}
			start := i
			for i < len(path) && isNameChar(path[i]) {
				i++
			}
			tokens = append(tokens, accessor{name: path[start:i], offset: start})
		default:
			return nil, false
		}
	}
	return tokens, true
}

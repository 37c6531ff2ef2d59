package wrapper

// CodeDepths returns, for every byte of a Java source, the brace nesting depth
// at that byte. Bytes inside comments, string, char and text block literals
// get -1 so callers can ignore them. An opening brace reports the depth
// outside of it and a closing brace the depth it returns to.
func CodeDepths(source string) []int {
	depths := make([]int, len(source))
	depth := 0

	mark := func(from, to int) {
		for k := from; k < to && k < len(source); k++ {
			depths[k] = -1
		}
	}

	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case c == '/' && i+1 < len(source) && source[i+1] == '/':
			end := indexFrom(source, i, "\n")
			mark(i, end)
			i = end
		case c == '/' && i+1 < len(source) && source[i+1] == '*':
			end := indexFrom(source, i+2, "*/")
			if end < len(source) {
				end += 2
			}
			mark(i, end)
			i = end
		case c == '"' && i+2 < len(source) && source[i+1] == '"' && source[i+2] == '"':
			end := indexFrom(source, i+3, `"""`)
			if end < len(source) {
				end += 3
			}
			mark(i, end)
			i = end
		case c == '"' || c == '\'':
			end := skipQuoted(source, i, c)
			mark(i, end)
			i = end
		case c == '{':
			depths[i] = depth
			depth++
			i++
		case c == '}':
			if depth > 0 {
				depth--
			}
			depths[i] = depth
			i++
		default:
			depths[i] = depth
			i++
		}
	}

	return depths
}

func indexFrom(s string, from int, substr string) int {
	for i := from; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return len(s)
}

// skipQuoted returns the offset just past the literal opened at start. An
// unterminated literal ends at the line break.
func skipQuoted(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		}
	}
	return len(s)
}

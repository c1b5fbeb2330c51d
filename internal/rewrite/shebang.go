package rewrite

import "strings"

// SplitShebang separates a leading interpreter directive from the code.
// line excludes the trailing newline.
func SplitShebang(code string) (line, rest string) {
	if !strings.HasPrefix(code, "#!") {
		return "", code
	}
	i := strings.IndexByte(code, '\n')
	if i < 0 {
		return strings.TrimSuffix(code, "\r"), ""
	}
	return strings.TrimSuffix(code[:i], "\r"), code[i+1:]
}

// EnsureShebang makes line the first line of code. Any other directive
// already at the top is replaced.
func EnsureShebang(code, line string) string {
	if line == "" {
		return code
	}
	existing, rest := SplitShebang(code)
	if existing == line {
		return code
	}
	return line + "\n" + rest
}

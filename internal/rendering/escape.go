// Package rendering builds LaTeX resume source from accepted bullets.
package rendering

import "strings"

// latexReplacements maps LaTeX special characters to their escaped form.
var latexReplacements = map[rune]string{
	'\\': `\textbackslash{}`,
	'{':  `\{`,
	'}':  `\}`,
	'$':  `\$`,
	'&':  `\&`,
	'%':  `\%`,
	'#':  `\#`,
	'^':  `\textasciicircum{}`,
	'_':  `\_`,
	'~':  `\textasciitilde{}`,
}

// EscapeLaTeX escapes special LaTeX characters in text.
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)
	for _, r := range text {
		if escaped, ok := latexReplacements[r]; ok {
			result.WriteString(escaped)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

package links

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reference is one Markdown link inside a citation block.
type Reference struct {
	Type  string
	Label string
	URL   string
}

// Group renders refs as one line per type, in first-seen type order:
//
//	Artists: [Frida Kahlo](...), [Claude Monet](...)
//	Movement: [Cubism](...)
//
// The type header is pluralized when the group holds more than one link.
func Group(refs []Reference) string {
	var order []string
	byType := make(map[string][]string)
	for _, r := range refs {
		if _, ok := byType[r.Type]; !ok {
			order = append(order, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], fmt.Sprintf("[%s](%s)", r.Label, r.URL))
	}

	lines := make([]string, 0, len(order))
	for _, typ := range order {
		group := byType[typ]
		header := capitalize(typ)
		if len(group) > 1 {
			header += "s"
		}
		lines = append(lines, header+": "+strings.Join(group, ", "))
	}
	return strings.Join(lines, "\n")
}

// capitalize upper-cases the first letter and lower-cases the rest.
// Letters after hyphens or apostrophes stay lower case.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

package music

import "strings"

// SortName moves a leading article to the end of name, so that
// "The Beatles" sorts as "Beatles, The". Prefixes match case-insensitively
// and only as a whole word.
func SortName(name string, prefixes []string) string {
	for _, prefix := range prefixes {
		n := len(prefix)
		if n == 0 || len(name) <= n+1 {
			continue
		}
		if !strings.EqualFold(name[:n], prefix) || name[n] != ' ' {
			continue
		}
		rest := strings.TrimSpace(name[n+1:])
		if rest == "" {
			continue
		}
		return rest + ", " + name[:n]
	}
	return name
}

// SplitMulti splits a multi-value tag on "|" and ";", trimming each part and
// dropping empties and duplicates while keeping the first-seen order.
func SplitMulti(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == '|' || r == ';' })
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

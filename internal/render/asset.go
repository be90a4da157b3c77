package render

import "strings"

// AssetURL resolves a stored asset reference. References that already carry a
// scheme are used unchanged; anything else is a path under base.
func AssetURL(ref, base string) string {
	if ref == "" {
		return ""
	}
	if HasScheme(ref) || base == "" {
		return ref
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

// HasScheme reports whether ref starts with a URI scheme, e.g. "https://" or "data:".
func HasScheme(ref string) bool {
	i := strings.IndexByte(ref, ':')
	if i < 1 {
		return false
	}

	for j := 0; j < i; j++ {
		c := ref[j]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}

	rest := ref[i+1:]
	if strings.HasPrefix(rest, "//") {
		return true
	}

	// opaque forms without an authority
	switch strings.ToLower(ref[:i]) {
	case "data", "blob", "mailto", "tel":
		return true
	}

	return false
}

// SplitTags splits a comma delimited list, trimming each entry and dropping empty ones.
func SplitTags(s string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that urlStr is an absolute http(s) URL with a host.
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// Ref is a URI reference split into its RFC 3986 components. Nothing is
// decoded or re-escaped, so String returns the original text.
type Ref struct {
	Scheme    string
	Authority string
	Path      string
	Query     string
	Fragment  string

	HasAuthority bool
	HasQuery     bool
	HasFragment  bool
}

// SplitRef splits s into its components. It never fails: text that is not a
// valid URI still splits into a path.
func SplitRef(s string) Ref {
	var r Ref
	if before, frag, ok := strings.Cut(s, "#"); ok {
		s, r.Fragment, r.HasFragment = before, frag, true
	}
	if before, query, ok := strings.Cut(s, "?"); ok {
		s, r.Query, r.HasQuery = before, query, true
	}
	if scheme, rest, ok := cutScheme(s); ok {
		r.Scheme, s = scheme, rest
	}
	if rest, ok := strings.CutPrefix(s, "//"); ok {
		i := strings.IndexByte(rest, '/')
		if i < 0 {
			i = len(rest)
		}
		r.Authority, s, r.HasAuthority = rest[:i], rest[i:], true
	}
	r.Path = s
	return r
}

// String reassembles the reference.
func (r Ref) String() string {
	var b strings.Builder
	if r.Scheme != "" {
		b.WriteString(r.Scheme)
		b.WriteByte(':')
	}
	if r.HasAuthority {
		b.WriteString("//")
		b.WriteString(r.Authority)
	}
	b.WriteString(r.Path)
	if r.HasQuery {
		b.WriteByte('?')
		b.WriteString(r.Query)
	}
	if r.HasFragment {
		b.WriteByte('#')
		b.WriteString(r.Fragment)
	}
	return b.String()
}

// ParseBase splits a resolution base. A base without a scheme (including one
// that is not a URL at all) leaves relative references without a scheme.
func ParseBase(base string) Ref {
	return SplitRef(strings.TrimSpace(base))
}

// Resolve joins href onto base following RFC 3986 section 5.2, working on the
// raw strings so percent-escapes, spaces and non-ASCII text come through
// exactly as written. Absolute references are returned as written. ok is
// false only for an authority with an unterminated IPv6 literal.
func Resolve(base Ref, href string) (resolved string, ok bool) {
	href = sanitizeRef(href)
	ref := SplitRef(href)
	if ref.HasAuthority && strings.Contains(ref.Authority, "[") && !strings.Contains(ref.Authority, "]") {
		return "", false
	}
	if ref.Scheme != "" {
		return href, true
	}

	t := Ref{
		Scheme:       base.Scheme,
		Authority:    base.Authority,
		HasAuthority: base.HasAuthority,
		Fragment:     ref.Fragment,
		HasFragment:  ref.HasFragment,
		Query:        ref.Query,
		HasQuery:     ref.HasQuery,
	}
	switch {
	case ref.HasAuthority:
		t.Authority = ref.Authority
		t.HasAuthority = true
		t.Path = removeDotSegments(ref.Path)
	case ref.Path == "":
		t.Path = base.Path
		if !ref.HasQuery {
			t.Query, t.HasQuery = base.Query, base.HasQuery
		}
	case strings.HasPrefix(ref.Path, "/"):
		t.Path = removeDotSegments(ref.Path)
	default:
		t.Path = removeDotSegments(mergePaths(base, ref.Path))
	}
	return t.String(), true
}

// ResolveURL is Resolve over a string base; rejected hrefs come back unchanged.
func ResolveURL(base, href string) string {
	resolved, ok := Resolve(ParseBase(base), href)
	if !ok {
		return href
	}
	return resolved
}

// HasWebScheme reports whether rawURL starts with an http or https scheme,
// in any letter case.
func HasWebScheme(rawURL string) bool {
	scheme, _, ok := cutScheme(rawURL)
	return ok && (strings.EqualFold(scheme, "http") || strings.EqualFold(scheme, "https"))
}

// FileStem builds a file name stem from a page URL: the host without a
// leading "www." followed by the path with slashes turned into underscores.
//
//	https://www.lemonde.fr/         -> lemonde.fr
//	https://cookielaw.org/demo      -> cookielaw.org_demo
//	https://opt-out.ferank.eu/fr/install/ -> opt-out.ferank.eu_fr_install
func FileStem(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "page"
	}
	stem := strings.TrimPrefix(u.Host, "www.")
	if path := strings.Trim(u.Path, "/"); path != "" {
		stem += "_" + strings.ReplaceAll(path, "/", "_")
	}
	return stem
}

// sanitizeRef applies the WHATWG preprocessing browsers use on href values:
// leading C0 controls and spaces go, as do embedded tabs and newlines.
func sanitizeRef(href string) string {
	href = strings.TrimLeftFunc(href, func(r rune) bool { return r <= ' ' })
	if strings.ContainsAny(href, "\t\r\n") {
		href = strings.NewReplacer("\t", "", "\r", "", "\n", "").Replace(href)
	}
	return href
}

// cutScheme splits off "scheme:" when s starts with one
// (ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )).
func cutScheme(s string) (scheme, rest string, ok bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
			if i == 0 {
				return "", s, false
			}
		case c == ':':
			if i == 0 {
				return "", s, false
			}
			return s[:i], s[i+1:], true
		default:
			return "", s, false
		}
	}
	return "", s, false
}

// mergePaths appends a relative path to everything up to the last "/" of
// the base path.
func mergePaths(base Ref, path string) string {
	if base.HasAuthority && base.Path == "" {
		return "/" + path
	}
	i := strings.LastIndexByte(base.Path, '/')
	return base.Path[:i+1] + path
}

// removeDotSegments interprets "." and ".." segments (RFC 3986 section 5.2.4).
func removeDotSegments(in string) string {
	if !strings.Contains(in, ".") {
		return in
	}
	var out []string
	pop := func() {
		if len(out) > 0 {
			out = out[:len(out)-1]
		}
	}
	for in != "" {
		switch {
		case strings.HasPrefix(in, "../"):
			in = in[3:]
		case strings.HasPrefix(in, "./"):
			in = in[2:]
		case strings.HasPrefix(in, "/./"):
			in = in[2:]
		case in == "/.":
			in = "/"
		case strings.HasPrefix(in, "/../"):
			in = in[3:]
			pop()
		case in == "/..":
			in = "/"
			pop()
		case in == "." || in == "..":
			in = ""
		default:
			i := strings.IndexByte(in[1:], '/')
			if i < 0 {
				out = append(out, in)
				in = ""
			} else {
				out = append(out, in[:i+1])
				in = in[i+1:]
			}
		}
	}
	return strings.Join(out, "")
}

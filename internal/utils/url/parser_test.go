package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///", "example.com", ""}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %q", u)
		}
	}
}

func TestResolve(t *testing.T) {
	base := ParseBase("https://test.com/docs/page")
	cases := []struct {
		href string
		want string
	}{
		{"/path", "https://test.com/path"},
		{"relative", "https://test.com/docs/relative"},
		{"../up", "https://test.com/up"},
		{"//cdn.test.com/x", "https://cdn.test.com/x"},
		{"?q=1", "https://test.com/docs/page?q=1"},
		{"https://other.com/a/../b", "https://other.com/a/../b"},
		{"  /padded", "https://test.com/padded"},
		{"/in\tside", "https://test.com/inside"},
		{"/a b", "https://test.com/a b"},
		{"/a%20b", "https://test.com/a%20b"},
		{"/café", "https://test.com/café"},
		{"/100%", "https://test.com/100%"},
		{"naïve/../x?y=%zz#frag", "https://test.com/docs/x?y=%zz#frag"},
		{"./a/./b/../c", "https://test.com/docs/a/c"},
		{"../../../too/far", "https://test.com/too/far"},
		{"#top", "https://test.com/docs/page#top"},
		{"//cdn.test.com/a/../b", "https://cdn.test.com/b"},
		{"https://x.com/a b", "https://x.com/a b"},
	}
	for _, c := range cases {
		got, ok := Resolve(base, c.href)
		if !ok {
			t.Errorf("Resolve(%q) not ok", c.href)
			continue
		}
		if got != c.want {
			t.Errorf("Resolve(%q) = %q, want %q", c.href, got, c.want)
		}
	}

	if _, ok := Resolve(base, "http://[::1"); ok {
		t.Errorf("expected unparseable href to be rejected")
	}
}

func TestResolve_EmptyBasePath(t *testing.T) {
	base := ParseBase("https://test.com?old=1")
	cases := map[string]string{
		"a":    "https://test.com/a",
		"":     "https://test.com?old=1",
		"?n=2": "https://test.com?n=2",
	}
	for href, want := range cases {
		if got, _ := Resolve(base, href); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", href, got, want)
		}
	}
}

func TestSplitRef_RoundTrip(t *testing.T) {
	for _, raw := range []string{
		"https://user@host:8080/p a/th?q=%zz&x#f",
		"//host",
		"/100%",
		"rel/ative?",
		"mailto:a@b.c",
		"",
	} {
		if got := SplitRef(raw).String(); got != raw {
			t.Errorf("SplitRef(%q).String() = %q", raw, got)
		}
	}

	r := SplitRef("http://h/p?q#f")
	if r.Scheme != "http" || r.Authority != "h" || r.Path != "/p" || r.Query != "q" || r.Fragment != "f" {
		t.Errorf("unexpected split: %+v", r)
	}
	if r := SplitRef("1http://h"); r.Scheme != "" {
		t.Errorf("scheme must start with a letter, got %q", r.Scheme)
	}
}

func TestParseBase_Malformed(t *testing.T) {
	base := ParseBase("://bad base")
	got, ok := Resolve(base, "/x")
	if !ok {
		t.Fatalf("expected relative href to parse")
	}
	if HasWebScheme(got) {
		t.Errorf("relative href against malformed base should not gain a scheme, got %q", got)
	}
}

func TestHasWebScheme(t *testing.T) {
	for _, u := range []string{"http://a.com", "HTTPS://a.com/x", "https://a.com/100%"} {
		if !HasWebScheme(u) {
			t.Errorf("expected %q to have a web scheme", u)
		}
	}
	for _, u := range []string{"ftp://a.com", "data:text/plain,hi", "/relative", "JAVASCRIPT:void(0)"} {
		if HasWebScheme(u) {
			t.Errorf("expected %q to be rejected", u)
		}
	}
}

func TestFileStem(t *testing.T) {
	cases := map[string]string{
		"https://www.lemonde.fr/":               "lemonde.fr",
		"https://cookielaw.org/demo":            "cookielaw.org_demo",
		"https://opt-out.ferank.eu/fr/install/": "opt-out.ferank.eu_fr_install",
		"not a url":                             "page",
	}
	for in, want := range cases {
		if got := FileStem(in); got != want {
			t.Errorf("FileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

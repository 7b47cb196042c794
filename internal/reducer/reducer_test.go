package reducer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/parscrape/internal/reducer"
	urlutil "github.com/law-makers/parscrape/internal/utils/url"
)

func TestReduce_BasicDocument(t *testing.T) {
	t.Parallel()

	got := reducer.Reduce(`<a href="/path">Link</a><p>Text</p>`, "https://example.com")

	assert.Equal(t, []string{"https://example.com/path"}, got.Links)
	assert.Equal(t, "Link\nText", got.Text)
}

func TestReduce_SkipsNonNavigableHrefs(t *testing.T) {
	t.Parallel()

	doc := `
		<a href="#section">Anchor</a>
		<a href="javascript:void(0)">JS</a>
		<a href="mailto:test@example.com">Email</a>
		<a href="tel:+123456">Call</a>
		<a href="">Empty</a>
		<a href="https://valid.com">Valid</a>`

	got := reducer.Reduce(doc, "https://test.com")

	assert.Equal(t, []string{"https://valid.com"}, got.Links)
}

func TestReduce_DeduplicatesInOrder(t *testing.T) {
	t.Parallel()

	doc := `
		<a href="https://example.com/page1">One</a>
		<a href="https://example.com/page2">Two</a>
		<a href="https://example.com/page1">One again</a>`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, []string{"https://example.com/page1", "https://example.com/page2"}, got.Links)
}

func TestReduce_DeduplicatesAfterResolution(t *testing.T) {
	t.Parallel()

	doc := `<a href="/a">rel</a><a href="https://test.com/a">abs</a><a href="b">b</a>`

	got := reducer.Reduce(doc, "https://test.com/")

	assert.Equal(t, []string{"https://test.com/a", "https://test.com/b"}, got.Links)
}

func TestReduce_EmptyDocument(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "<html><body></body></html>"} {
		got := reducer.Reduce(doc, "https://example.com")

		require.NotNil(t, got.Links, "links must be an empty list, not nil")
		assert.Empty(t, got.Links)
		assert.Equal(t, "", got.Text)
	}
}

func TestReduce_DropsScriptAndStyle(t *testing.T) {
	t.Parallel()

	doc := `<html><head><style>body { color: red; }</style><script>var x = 1;</script></head>
		<body><p>Visible</p><script>alert("hidden")</script></body></html>`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, "Visible", got.Text)
}

func TestReduce_CollapsesBlankLines(t *testing.T) {
	t.Parallel()

	doc := "<p>Line 1</p>\n\n\n   \n<p>Line 2</p>"

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, "Line 1\nLine 2", got.Text)
	assert.Len(t, strings.Split(got.Text, "\n"), 2)
}

func TestReduce_TrimsLinesInsidePreformattedText(t *testing.T) {
	t.Parallel()

	got := reducer.Reduce("<pre>  first\n\n\t second  \n</pre>", "https://example.com")

	assert.Equal(t, "first\nsecond", got.Text)
}

func TestReduce_SchemeFilterAfterResolution(t *testing.T) {
	t.Parallel()

	doc := `
		<a href="ftp://files.example.com/x">FTP</a>
		<a href="data:text/html,hi">Data</a>
		<a href="JAVASCRIPT:alert(1)">Upper JS</a>
		<a href="HTTP://Loud.example.com/">Loud</a>
		<a href="//cdn.example.com/lib">CDN</a>`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, []string{"HTTP://Loud.example.com/", "https://cdn.example.com/lib"}, got.Links)
}

func TestReduce_IgnoresNonAnchorElements(t *testing.T) {
	t.Parallel()

	doc := `<img src="/img.png"><link href="/style.css"><a>no href</a><area href="/map">`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Empty(t, got.Links)
	assert.Equal(t, "no href", got.Text)
}

func TestReduce_LinksInsideScriptAreIgnored(t *testing.T) {
	t.Parallel()

	doc := `<script>document.write('<a href="/hidden">x</a>')</script><a href="/shown">y</a>`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, []string{"https://example.com/shown"}, got.Links)
}

func TestReduce_MalformedBase(t *testing.T) {
	t.Parallel()

	doc := `<a href="/relative">r</a><a href="https://ok.example.com/">a</a>`

	got := reducer.Reduce(doc, "://not a base")

	assert.Equal(t, []string{"https://ok.example.com/"}, got.Links)
}

func TestReduce_UnparseableHrefSkipped(t *testing.T) {
	t.Parallel()

	doc := `<a href="http://[::1">bad</a><a href="/good">good</a>`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, []string{"https://example.com/good"}, got.Links)
}

func TestReduce_KeepsHrefsAsWritten(t *testing.T) {
	t.Parallel()

	doc := `
		<a href="/a b">space</a>
		<a href="/a%20b">encoded</a>
		<a href="/café">accent</a>
		<a href="/100%">percent</a>
		<a href="https://x.com/a b">absolute</a>
		<a href="/a b">space again</a>`

	got := reducer.Reduce(doc, "https://example.com/dir/page")

	assert.Equal(t, []string{
		"https://example.com/a b",
		"https://example.com/a%20b",
		"https://example.com/café",
		"https://example.com/100%",
		"https://x.com/a b",
	}, got.Links)
}

func TestReduce_ExcludesCommentsKeepsNoscript(t *testing.T) {
	t.Parallel()

	doc := `<body><!-- hidden note --><noscript><p>Enable JavaScript</p></noscript><p>Body</p></body>`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, "Enable JavaScript\nBody", got.Text)
}

func TestReduce_ToleratesMalformedMarkup(t *testing.T) {
	t.Parallel()

	doc := `<div><p>Unclosed <b>bold <a href="/x">link</div></span><p>after`

	got := reducer.Reduce(doc, "https://example.com")

	assert.Equal(t, []string{"https://example.com/x"}, got.Links)
	assert.Contains(t, got.Text, "Unclosed")
	assert.Contains(t, got.Text, "after")
}

func TestReduce_Invariants(t *testing.T) {
	t.Parallel()

	doc := `<html><head><title>T</title><style>.a{}</style></head><body>
		<nav><a href="/">Home</a> | <a href="/about">About</a> | <a href="/">Home</a></nav>
		<script>var secret = "do-not-leak";</script>
		<main>
			<h1>  Heading  </h1>

			<p>Paragraph with <a href="https://other.org/x?y=1#z">a link</a>.</p>
			<a href="mailto:a@b.c">mail</a><a href="ftp://x.org">ftp</a>
		</main>
		<style>#hidden { display: none; }</style>
	</body></html>`
	base := "https://site.example/sub/page.html"

	first := reducer.Reduce(doc, base)
	second := reducer.Reduce(doc, base)

	assert.Equal(t, first, second, "reduce must be deterministic")

	seen := map[string]bool{}
	for _, link := range first.Links {
		assert.False(t, seen[link], "duplicate link %q", link)
		seen[link] = true
		assert.True(t, urlutil.HasWebScheme(link), "link %q has a non-web scheme", link)
	}
	assert.Equal(t, []string{
		"https://site.example/",
		"https://site.example/about",
		"https://other.org/x?y=1#z",
	}, first.Links)

	assert.NotContains(t, first.Text, "do-not-leak")
	assert.NotContains(t, first.Text, "display: none")
	for _, line := range strings.Split(first.Text, "\n") {
		assert.NotEmpty(t, line)
		assert.Equal(t, strings.TrimSpace(line), line)
	}
	assert.True(t, strings.HasPrefix(first.Text, "T\nHome"), "unexpected text start: %q", first.Text)
	assert.Contains(t, first.Text, "Heading")
}

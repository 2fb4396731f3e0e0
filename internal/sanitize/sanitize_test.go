package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTML_StripsExecutableContent(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		absent  []string
		present []string
	}{
		{`<script>alert(1)</script><p>ok</p>`, []string{"script", "alert"}, []string{"<p>ok</p>"}},
		{`<p onclick="steal()">hi</p>`, []string{"onclick", "steal"}, []string{"<p>hi</p>"}},
		{`<img src="x" onerror="boom()">`, []string{"img", "onerror"}, nil},
		{`<a href="javascript:alert(1)">x</a>`, []string{"javascript"}, []string{"x"}},
		{`<a href="data:text/html;base64,PHNjcmlwdD4=">x</a>`, []string{"data:"}, nil},
		{`<a href="ftp://files.example.com">x</a>`, []string{"ftp:"}, nil},
		{`<p data-track="1" style="color:red">t</p>`, []string{"data-track", "style"}, []string{"<p>t</p>"}},
		{`<iframe src="https://evil.example"></iframe><p>a</p>`, []string{"iframe", "evil"}, []string{"<p>a</p>"}},
		{`<h1>Big</h1><h2>Sub</h2>`, []string{"<h1>"}, []string{"Big", "<h2>Sub</h2>"}},
	}
	for _, c := range cases {
		got := HTML(c.in)
		for _, s := range c.absent {
			require.NotContains(t, got, s, c.in)
		}
		for _, s := range c.present {
			require.Contains(t, got, s, c.in)
		}
	}
}

func TestHTML_KeepsAllowedLinks(t *testing.T) {
	t.Parallel()
	got := HTML(`<a href="https://example.com/a" target="_blank" rel="noopener">web</a>`)
	require.Contains(t, got, `href="https://example.com/a"`)
	require.Contains(t, got, `target="_blank"`)
	require.Contains(t, got, `rel="noopener"`)

	require.Contains(t, HTML(`<a href="mailto:me@example.com">mail</a>`), `href="mailto:me@example.com"`)
	require.Contains(t, HTML(`<a href="#section">jump</a>`), `href="#section"`)
	require.NotContains(t, HTML(`<a href="/admin" target="evil">x</a>`), `target=`)
}

func TestHTML_KeepsFormatting(t *testing.T) {
	t.Parallel()
	in := `<p><strong>b</strong> <em>i</em> <u>u</u><br></p><ul><li>one</li></ul><ol><li>two</li></ol>`
	got := HTML(in)
	for _, tag := range []string{"<strong>", "<em>", "<u>", "<br", "<ul>", "<ol>", "<li>"} {
		require.Contains(t, got, tag)
	}
}

func TestHTML_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		`<p>plain &amp; simple "quoted" text</p>`,
		`<script>x</script><p onclick="y">z</p>`,
		`<a href="https://example.com/?q=1&b=2" rel="noopener noreferrer" target="_blank">link</a>`,
		`<h3>Title</h3><div><span>nested</span></div>`,
		`unclosed <b>bold <i>both`,
		`<a href="#top">top</a> 5 < 6 > 4`,
		``,
	}
	for _, in := range inputs {
		once := HTML(in)
		require.Equal(t, once, HTML(once), in)
	}
}

func TestPreview_ExternalLinksOpenSafely(t *testing.T) {
	t.Parallel()
	got := Preview(`<p><a href="https://example.com">ext</a> <a href="#local">in</a></p>`)
	require.Contains(t, got, `target="_blank"`)
	require.Contains(t, got, "noopener")
	require.Contains(t, got, "noreferrer")
	require.Contains(t, got, `href="#local"`)

	require.NotContains(t, Preview(`<script>x</script>`), "script")
	require.Equal(t, "", Preview(""))
}

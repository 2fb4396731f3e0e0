package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/model"
)

func TestSlugify(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"  Caffè è Buono! ":       "caffe-e-buono",
		"Perché   Go --  rocks":   "perche-go-rocks",
		"---":                     "",
		"Ünïcödé Ñandú 2026":      "unicode-nandu-2026",
		"already-a-slug":          "already-a-slug",
		"tabs\tand\nnewlines":     "tabs-and-newlines",
		"emoji 🚀 launch":          "emoji-launch",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), in)
	}
	require.Len(t, Slugify(strings.Repeat("a", 300)), MaxSlugLen)
}

func TestValidateSlug(t *testing.T) {
	t.Parallel()
	got, err := ValidateSlug("  My-Post-1 ")
	require.NoError(t, err)
	require.Equal(t, "my-post-1", got)

	for _, bad := range []string{"", "  ", "a--b", "-a", "a b", "è", strings.Repeat("a", 256)} {
		_, err := ValidateSlug(bad)
		require.Error(t, err, bad)
	}
}

func TestValidateLocale(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{"EN": "en", " it ": "it", "pt-BR": "pt-br", "zh-hant": "zh-hant"} {
		got, err := ValidateLocale(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	for _, bad := range []string{"", "e", "eng", "en_US", "en-a", "en-abcde", "12"} {
		_, err := ValidateLocale(bad)
		require.Error(t, err, bad)
	}
}

func TestTrimAndDuplicates(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Title", TrimTitle("  Title \n"))
	require.Equal(t, MaxTitleLen, len([]rune(TrimTitle(strings.Repeat("è", 500)))))
	require.Len(t, TrimContent(strings.Repeat("x", MaxContentLen+10)), MaxContentLen)

	require.Nil(t, DuplicateLocales([]string{"it", "en", ""}))
	require.Equal(t, []string{"it", "en"}, DuplicateLocales([]string{"it", "EN", " it", "en", "it", " "}))
}

func TestEditor_NewPostPayload(t *testing.T) {
	t.Parallel()
	e := NewEditor()
	require.False(t, e.Valid())
	require.False(t, e.Dirty())

	e.SetTitle(0, "Ciao Mondo")
	e.SetContent(0, `<p onclick="steal()">ciao</p><script>bad()</script>`)
	require.True(t, e.Dirty())

	row := e.Rows()[0]
	require.Equal(t, "ciao-mondo", row.Slug)
	require.NotContains(t, row.Content, "onclick")
	require.NotContains(t, row.Content, "script")
	require.Contains(t, row.Content, "<p>ciao</p>")

	i := e.Add()
	require.Equal(t, 1, e.Active())
	e.SetLocale(i, " EN ")
	e.SetSlug(i, "hello-world")
	e.SetTitle(i, "Hello world")
	require.Equal(t, "hello-world", e.Rows()[1].Slug)

	p, err := e.Payload()
	require.NoError(t, err)
	require.Equal(t, "ciao-mondo", p.Slug)
	require.Equal(t, model.StatusDraft, p.Status)
	require.Len(t, p.Translations, 2)
	require.Equal(t, "en", p.Translations[1].Locale)
	require.Empty(t, p.Translations[0].ID)
}

func TestEditor_Problems(t *testing.T) {
	t.Parallel()
	e := NewEditor()
	e.SetTitle(0, "Uno")
	i := e.Add()
	e.SetLocale(i, "IT")
	e.SetTitle(i, "Due")
	e.SetSlug(i, "Bad Slug")

	probs := e.Problems()
	require.Contains(t, probs, "Lingue duplicate: it")
	require.Contains(t, strings.Join(probs, "\n"), "Slug (IT)")

	_, err := e.Payload()
	require.ErrorIs(t, err, errs.ErrValidation)

	require.True(t, e.Remove(i))
	require.False(t, e.Remove(0))
	require.Equal(t, 0, e.Active())
	require.True(t, e.Valid())
}

func TestEditor_EditExisting(t *testing.T) {
	t.Parallel()
	d := model.PostDetail{
		ID: "p1", Slug: "post", Status: model.StatusPublished,
		Translations: []model.TranslationItem{
			{ID: "t1", Locale: "it", Title: "Titolo", Content: `<p>ok</p><img src=x onerror=alert(1)>`},
			{ID: "t2", Locale: "en", Slug: "post-en", Title: "Title", Content: "<p>ok</p>"},
		},
	}
	e := EditorFor(d)
	require.Equal(t, "post", e.Rows()[0].Slug)
	require.NotContains(t, e.Rows()[0].Content, "onerror")

	e.Select(9)
	require.Equal(t, 1, e.Active())

	p, err := e.Payload()
	require.NoError(t, err)
	require.Equal(t, model.StatusPublished, p.Status)
	require.Equal(t, "t1", p.Translations[0].ID)
	require.Equal(t, "t2", p.Translations[1].ID)

	require.False(t, e.Dirty())
	e.SetTitle(1, "New")
	require.True(t, e.Dirty())
	e.MarkSaved()
	require.False(t, e.Dirty())
	require.False(t, e.SetTitle(5, "x"))
}

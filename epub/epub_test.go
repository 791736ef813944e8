package epub

import (
	"archive/zip"
	"encoding/xml"
	"html"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Luismorlan/bskybook/model"
	Logger "github.com/Luismorlan/bskybook/utils/log"
)

var testArticles = []model.Article{
	{
		URL:         "https://example.com/first",
		Title:       "First Article",
		ContentHTML: "<p>first body</p>",
		Author:      "Alice",
		Date:        "2024-05-01",
	},
	{
		URL:         "https://example.com/second",
		Title:       "Second Article",
		ContentHTML: "<p>second body</p>",
	},
}

// Parse-side shapes. Unmarshal matches by local element name, so the dc:
// prefixes on the wire are transparent here.
type parsedPackage struct {
	Identifier string   `xml:"metadata>identifier"`
	Title      string   `xml:"metadata>title"`
	Creator    string   `xml:"metadata>creator"`
	Language   string   `xml:"metadata>language"`
	Items      []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Itemrefs []struct {
		Idref string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

type parsedNcx struct {
	Points []struct {
		ID        string `xml:"id,attr"`
		PlayOrder string `xml:"playOrder,attr"`
		Label     string `xml:"navLabel>text"`
		Content   struct {
			Src string `xml:"src,attr"`
		} `xml:"content"`
	} `xml:"navMap>navPoint"`
}

func buildTestEpub(t *testing.T, articles []model.Article, cover []byte) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, NewGenerator(Logger.NewNop()).CreateEpub(articles, "Test Book", "@tester", cover, out))
	return out
}

func readEntry(t *testing.T, r *zip.ReadCloser, name string) []byte {
	t.Helper()
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return data
		}
	}
	t.Fatalf("entry %s not found", name)
	return nil
}

func TestCreateEpubLayout(t *testing.T) {
	out := buildTestEpub(t, testArticles, []byte("fake-jpeg-bytes"))

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	// mimetype must be the first entry, stored without compression,
	// verbatim.
	first := r.File[0]
	require.Equal(t, "mimetype", first.Name)
	require.Equal(t, zip.Store, first.Method)
	require.Equal(t, "application/epub+zip", string(readEntry(t, r, "mimetype")))

	names := []string{}
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{
		"mimetype",
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/toc.ncx",
		"OEBPS/cover.jpg",
		"OEBPS/cover.html",
		"OEBPS/article0.html",
		"OEBPS/article1.html",
	}, names)

	require.Contains(t, string(readEntry(t, r, "META-INF/container.xml")), `full-path="OEBPS/content.opf"`)
	require.Equal(t, "fake-jpeg-bytes", string(readEntry(t, r, "OEBPS/cover.jpg")))
	require.Contains(t, string(readEntry(t, r, "OEBPS/cover.html")), `<img src="cover.jpg"`)
}

func TestCreateEpubReadingOrder(t *testing.T) {
	out := buildTestEpub(t, testArticles, []byte("cover"))

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	var pkg parsedPackage
	require.NoError(t, xml.Unmarshal(readEntry(t, r, "OEBPS/content.opf"), &pkg))

	require.Equal(t, "Test Book", pkg.Title)
	require.Equal(t, "@tester", pkg.Creator)
	require.Equal(t, "en", pkg.Language)
	require.True(t, strings.HasPrefix(pkg.Identifier, "urn:uuid:"))

	ids := []string{}
	for _, item := range pkg.Items {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []string{"ncx", "cover-image", "cover", "article0", "article1"}, ids)

	spine := []string{}
	for _, ref := range pkg.Itemrefs {
		spine = append(spine, ref.Idref)
	}
	require.Equal(t, []string{"cover", "article0", "article1"}, spine)

	var ncx parsedNcx
	require.NoError(t, xml.Unmarshal(readEntry(t, r, "OEBPS/toc.ncx"), &ncx))
	require.Len(t, ncx.Points, 3)
	require.Equal(t, "1", ncx.Points[0].PlayOrder)
	require.Equal(t, "Cover", ncx.Points[0].Label)
	require.Equal(t, "2", ncx.Points[1].PlayOrder)
	require.Equal(t, "First Article", ncx.Points[1].Label)
	require.Equal(t, "article1.html", ncx.Points[2].Content.Src)
}

func TestCreateEpubWithoutCover(t *testing.T) {
	out := buildTestEpub(t, testArticles, nil)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	for _, f := range r.File {
		require.NotContains(t, f.Name, "cover")
	}

	var pkg parsedPackage
	require.NoError(t, xml.Unmarshal(readEntry(t, r, "OEBPS/content.opf"), &pkg))
	spine := []string{}
	for _, ref := range pkg.Itemrefs {
		spine = append(spine, ref.Idref)
	}
	require.Equal(t, []string{"article0", "article1"}, spine)

	var ncx parsedNcx
	require.NoError(t, xml.Unmarshal(readEntry(t, r, "OEBPS/toc.ncx"), &ncx))
	require.Equal(t, "1", ncx.Points[0].PlayOrder)
	require.Equal(t, "First Article", ncx.Points[0].Label)
}

func TestBuildContentOpfDeterministic(t *testing.T) {
	a := BuildContentOpf(testArticles, "T", "A", true, "fixed-id", "2024-05-01")
	b := BuildContentOpf(testArticles, "T", "A", true, "fixed-id", "2024-05-01")
	require.Equal(t, a, b)

	// Only the identifier and date vary between builds.
	c := string(BuildContentOpf(testArticles, "T", "A", true, "other-id", "2024-05-02"))
	normalize := func(s string) string {
		s = strings.ReplaceAll(s, "fixed-id", "ID")
		s = strings.ReplaceAll(s, "other-id", "ID")
		s = strings.ReplaceAll(s, "2024-05-01", "D")
		s = strings.ReplaceAll(s, "2024-05-02", "D")
		return s
	}
	require.Equal(t, normalize(string(a)), normalize(c))
}

func TestEscapeXML(t *testing.T) {
	require.Equal(t, "&amp;&lt;&gt;&quot;&apos;", EscapeXML(`&<>"'`))
	require.Equal(t, "plain", EscapeXML("plain"))
	// Recoverable by standard unescaping.
	require.Equal(t, `&<>"'`, html.UnescapeString(EscapeXML(`&<>"'`)))
}

func TestArticleXHTMLEscaping(t *testing.T) {
	article := &model.Article{
		URL:         "https://example.com/a?x=1&y=2",
		Title:       `Tom & Jerry's <"quoted"> title`,
		ContentHTML: "<p>body stays raw</p>",
		Author:      "A & B",
		Date:        "2024-05-01",
	}
	page := ArticleXHTML(article)

	require.Contains(t, page, "Tom &amp; Jerry&apos;s &lt;&quot;quoted&quot;&gt; title")
	require.NotContains(t, page, `Tom & Jerry's`)
	require.Contains(t, page, "<p>By A &amp; B</p>")
	require.Contains(t, page, `href="https://example.com/a?x=1&amp;y=2"`)
	// Extracted body HTML is embedded unescaped.
	require.Contains(t, page, "<p>body stays raw</p>")
}

func TestArticleXHTMLOptionalFields(t *testing.T) {
	page := ArticleXHTML(&model.Article{
		URL:         "https://example.com/bare",
		Title:       "Bare",
		ContentHTML: "<p>x</p>",
	})
	require.NotContains(t, page, "<p>By ")
	require.Contains(t, page, `<a href="https://example.com/bare">Source</a>`)
}

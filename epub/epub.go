// Package epub writes EPUB 2 books. The layout is fixed: mimetype first and
// stored uncompressed, OEBPS/ package document, NCX navigation, optional
// cover page + image, one XHTML page per article in input order.
package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Luismorlan/bskybook/model"
)

const (
	mimetypeContent = "application/epub+zip"

	containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
    <rootfiles>
        <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
    </rootfiles>
</container>`

	coverPageXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
    <title>Cover</title>
    <style type="text/css">
        body { margin: 0; padding: 0; text-align: center; }
        img { max-width: 100%; max-height: 100%; }
    </style>
</head>
<body>
    <div>
        <img src="cover.jpg" alt="Cover" />
    </div>
</body>
</html>`

	ncxDoctype = `<!DOCTYPE ncx PUBLIC "-//NISO//DTD ncx 2005-1//EN" "http://www.daisy.org/z3986/2005/ncx-2005-1.dtd">`
)

// escaper covers the 5 reserved markup characters. Replacement happens in a
// single pass, so already-escaped input is escaped again rather than
// corrupted.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the 5 reserved markup characters in user-supplied text.
func EscapeXML(text string) string {
	return escaper.Replace(text)
}

// Generator writes EPUB 2 ebooks. A book is write-once: CreateEpub builds
// the whole archive in one pass and never mutates it afterwards.
type Generator struct {
	log *logrus.Entry
}

func NewGenerator(log *logrus.Entry) *Generator {
	return &Generator{log: log}
}

// CreateEpub writes the book to outputPath. coverData may be nil, in which
// case the book has no cover page and the first article opens the spine.
func (g *Generator) CreateEpub(articles []model.Article, title, author string, coverData []byte, outputPath string) error {
	g.log.Infof("creating EPUB with %d articles", len(articles))

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "fail to create directory for %s", outputPath)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrapf(err, "fail to create %s", outputPath)
	}
	defer f.Close()

	w := zip.NewWriter(f)

	// The mimetype entry must be first and stored verbatim without
	// compression, readers sniff it at a fixed offset.
	mimetype, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return errors.Wrap(err, "fail to add mimetype")
	}
	if _, err := mimetype.Write([]byte(mimetypeContent)); err != nil {
		return errors.Wrap(err, "fail to write mimetype")
	}

	hasCover := len(coverData) > 0
	bookID := uuid.New().String()
	date := time.Now().Format("2006-01-02")

	type archiveEntry struct {
		name string
		data []byte
	}
	entries := []archiveEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", BuildContentOpf(articles, title, author, hasCover, bookID, date)},
		{"OEBPS/toc.ncx", BuildTocNcx(articles, title, hasCover, bookID)},
	}
	if hasCover {
		entries = append(entries,
			archiveEntry{"OEBPS/cover.jpg", coverData},
			archiveEntry{"OEBPS/cover.html", []byte(coverPageXHTML)})
	}
	for idx, article := range articles {
		article := article
		entries = append(entries,
			archiveEntry{fmt.Sprintf("OEBPS/article%d.html", idx), []byte(ArticleXHTML(&article))})
	}

	for _, entry := range entries {
		out, err := w.Create(entry.name)
		if err != nil {
			return errors.Wrapf(err, "fail to add %s", entry.name)
		}
		if _, err := out.Write(entry.data); err != nil {
			return errors.Wrapf(err, "fail to write %s", entry.name)
		}
	}

	if err := w.Close(); err != nil {
		return errors.Wrap(err, "fail to finalize epub")
	}

	g.log.Infof("EPUB created successfully: %s", outputPath)
	return nil
}

// OPF package document.

type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Xmlns            string      `xml:"xmlns,attr"`
	XmlnsDc          string      `xml:"xmlns:dc,attr"`
	XmlnsOpf         string      `xml:"xmlns:opf,attr"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Title      string        `xml:"dc:title"`
	Creator    opfCreator    `xml:"dc:creator"`
	Language   string        `xml:"dc:language"`
	Date       string        `xml:"dc:date"`
	Identifier opfIdentifier `xml:"dc:identifier"`
	Meta       []opfMeta     `xml:"meta,omitempty"`
}

type opfCreator struct {
	Role string `xml:"opf:role,attr"`
	Name string `xml:",chardata"`
}

type opfIdentifier struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	Itemrefs []opfItemref `xml:"itemref"`
}

type opfItemref struct {
	Idref string `xml:"idref,attr"`
}

// BuildContentOpf renders OEBPS/content.opf. Manifest ids and hrefs are
// index-based so repeated builds from the same input are structurally
// identical apart from bookID and date.
func BuildContentOpf(articles []model.Article, title, author string, hasCover bool, bookID, date string) []byte {
	pkg := opfPackage{
		Xmlns:            "http://www.idpf.org/2007/opf",
		XmlnsDc:          "http://purl.org/dc/elements/1.1/",
		XmlnsOpf:         "http://www.idpf.org/2007/opf",
		Version:          "2.0",
		UniqueIdentifier: "bookid",
		Metadata: opfMetadata{
			Title:      title,
			Creator:    opfCreator{Role: "aut", Name: author},
			Language:   "en",
			Date:       date,
			Identifier: opfIdentifier{ID: "bookid", Value: "urn:uuid:" + bookID},
		},
	}

	if hasCover {
		pkg.Metadata.Meta = []opfMeta{{Name: "cover", Content: "cover-image"}}
	}

	pkg.Manifest.Items = append(pkg.Manifest.Items,
		opfItem{ID: "ncx", Href: "toc.ncx", MediaType: "application/x-dtbncx+xml"})
	if hasCover {
		pkg.Manifest.Items = append(pkg.Manifest.Items,
			opfItem{ID: "cover-image", Href: "cover.jpg", MediaType: "image/jpeg"},
			opfItem{ID: "cover", Href: "cover.html", MediaType: "application/xhtml+xml"})
	}
	for idx := range articles {
		pkg.Manifest.Items = append(pkg.Manifest.Items, opfItem{
			ID:        fmt.Sprintf("article%d", idx),
			Href:      fmt.Sprintf("article%d.html", idx),
			MediaType: "application/xhtml+xml",
		})
	}

	pkg.Spine.Toc = "ncx"
	if hasCover {
		pkg.Spine.Itemrefs = append(pkg.Spine.Itemrefs, opfItemref{Idref: "cover"})
	}
	for idx := range articles {
		pkg.Spine.Itemrefs = append(pkg.Spine.Itemrefs, opfItemref{Idref: fmt.Sprintf("article%d", idx)})
	}

	return marshalXML(pkg, "")
}

// NCX navigation document.

type ncxRoot struct {
	XMLName  xml.Name   `xml:"ncx"`
	Xmlns    string     `xml:"xmlns,attr"`
	Version  string     `xml:"version,attr"`
	Lang     string     `xml:"xml:lang,attr"`
	Metas    []opfMeta  `xml:"head>meta"`
	DocTitle ncxText    `xml:"docTitle"`
	Points   []ncxPoint `xml:"navMap>navPoint"`
}

type ncxText struct {
	Text string `xml:"text"`
}

type ncxPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder string     `xml:"playOrder,attr"`
	NavLabel  ncxText    `xml:"navLabel"`
	Content   ncxContent `xml:"content"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// BuildTocNcx renders OEBPS/toc.ncx: the linear reading order with 1-based
// play orders, cover counted as order 1 when present, labelled with the
// article titles.
func BuildTocNcx(articles []model.Article, title string, hasCover bool, bookID string) []byte {
	ncx := ncxRoot{
		Xmlns:   "http://www.daisy.org/z3986/2005/ncx/",
		Version: "2005-1",
		Lang:    "en",
		Metas: []opfMeta{
			{Name: "dtb:uid", Content: "urn:uuid:" + bookID},
			{Name: "dtb:depth", Content: "1"},
		},
		DocTitle: ncxText{Text: title},
	}

	if hasCover {
		ncx.Points = append(ncx.Points, ncxPoint{
			ID:        "cover",
			PlayOrder: "1",
			NavLabel:  ncxText{Text: "Cover"},
			Content:   ncxContent{Src: "cover.html"},
		})
	}
	for idx, article := range articles {
		playOrder := idx + 1
		if hasCover {
			playOrder = idx + 2
		}
		ncx.Points = append(ncx.Points, ncxPoint{
			ID:        fmt.Sprintf("article%d", idx),
			PlayOrder: strconv.Itoa(playOrder),
			NavLabel:  ncxText{Text: article.Title},
			Content:   ncxContent{Src: fmt.Sprintf("article%d.html", idx)},
		})
	}

	return marshalXML(ncx, ncxDoctype)
}

func marshalXML(v interface{}, doctype string) []byte {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		// Marshaling fixed struct shapes cannot fail at runtime.
		panic(err)
	}
	out := xml.Header
	if doctype != "" {
		out += doctype + "\n"
	}
	return []byte(out + string(body) + "\n")
}

// ArticleXHTML renders one article page. All user-supplied text fields are
// escaped; the extracted body HTML is embedded as-is.
func ArticleXHTML(article *model.Article) string {
	meta := ""
	if article.Author != "" {
		meta += fmt.Sprintf("        <p>By %s</p>\n", EscapeXML(article.Author))
	}
	if article.Date != "" {
		meta += fmt.Sprintf("        <p>%s</p>\n", EscapeXML(article.Date))
	}
	meta += fmt.Sprintf(`        <p><a href="%s">Source</a></p>`, EscapeXML(article.URL))

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
    <title>%s</title>
    <style type="text/css">
        body { font-family: Georgia, serif; line-height: 1.6; margin: 1em; }
        h1 { font-size: 1.8em; margin-bottom: 0.5em; }
        h2 { font-size: 1.4em; margin-top: 1em; }
        p { margin: 1em 0; text-align: justify; }
        a { color: #0066cc; text-decoration: none; }
        .meta { color: #666; font-size: 0.9em; margin-bottom: 1em; }
    </style>
</head>
<body>
    <h1>%s</h1>
    <div class="meta">
%s
    </div>
    <div class="content">
        %s
    </div>
</body>
</html>`, EscapeXML(article.Title), EscapeXML(article.Title), meta, article.ContentHTML)
}

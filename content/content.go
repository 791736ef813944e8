package content

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Luismorlan/bskybook/clients"
	"github.com/Luismorlan/bskybook/model"
)

// Extractor turns URLs into normalized articles. Every failure is
// per-item: a URL that cannot be fetched or parsed is logged and skipped,
// it never aborts the batch.
type Extractor struct {
	client *clients.HttpClient

	log *logrus.Entry
}

func NewExtractor(log *logrus.Entry) *Extractor {
	return &Extractor{
		client: clients.NewHttpClient(clients.BrowserUserAgent, log),
		log:    log,
	}
}

func (e *Extractor) Close() {
	e.client.Close()
}

// ExtractArticle fetches the page at rawURL and extracts its readable
// content. Returns nil when the page cannot be fetched or yields no
// readable content.
func (e *Extractor) ExtractArticle(rawURL string) *model.Article {
	e.log.Infof("extracting content from %s", rawURL)

	res, err := e.client.Get(rawURL)
	if err != nil {
		e.log.Errorf("fail to fetch %s: %v", rawURL, err)
		return nil
	}
	defer res.Body.Close()

	html, err := io.ReadAll(res.Body)
	if err != nil {
		e.log.Errorf("fail to read %s: %v", rawURL, err)
		return nil
	}

	article, err := ParseArticle(html, rawURL)
	if err != nil {
		e.log.Errorf("fail to extract content from %s: %v", rawURL, err)
		return nil
	}

	e.log.Infof("successfully extracted: %s", article.Title)
	return article
}

// ExtractAll extracts every URL in turn, preserving input order. URLs that
// fail produce no article.
func (e *Extractor) ExtractAll(urls []string) []model.Article {
	articles := []model.Article{}
	for _, u := range urls {
		if article := e.ExtractArticle(u); article != nil {
			articles = append(articles, *article)
		}
	}
	e.log.Infof("successfully extracted %d out of %d articles", len(articles), len(urls))
	return articles
}

// ParseArticle extracts the readable content of an already-fetched page.
// The polymorphic metadata of the underlying extractor is normalized into
// the single Article shape right here, callers never see it.
func ParseArticle(html []byte, rawURL string) (*model.Article, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid article url %s", rawURL)
	}

	doc, err := readability.FromReader(bytes.NewReader(html), pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "readability extraction failed")
	}
	if strings.TrimSpace(doc.TextContent) == "" {
		return nil, errors.New("no content extracted")
	}

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = model.DefaultArticleTitle
	}

	// goquery pass over the raw page for the metadata readability does not
	// surface uniformly.
	var page *goquery.Document
	if parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(html)); err == nil {
		page = parsed
	}

	date := ""
	if doc.PublishedTime != nil {
		date = doc.PublishedTime.Format("2006-01-02")
	} else if page != nil {
		date = extractDate(page)
	}

	thumbnail := doc.Image
	if thumbnail == "" && page != nil {
		thumbnail = ExtractThumbnail(page)
	}

	return &model.Article{
		URL:          rawURL,
		Title:        title,
		ContentHTML:  doc.Content,
		ContentText:  doc.TextContent,
		Author:       strings.TrimSpace(doc.Byline),
		Date:         date,
		ThumbnailURL: thumbnail,
	}, nil
}

// ExtractThumbnail picks the page's lead image: og:image first, then
// twitter:image, then the first <img> in the document.
func ExtractThumbnail(page *goquery.Document) string {
	if og, ok := page.Find(`meta[property="og:image"]`).First().Attr("content"); ok && og != "" {
		return og
	}
	if tw, ok := page.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && tw != "" {
		return tw
	}
	if src, ok := page.Find("img").First().Attr("src"); ok && src != "" {
		return src
	}
	return ""
}

// extractDate reads the publication date from the usual meta tags and
// normalizes it to YYYY-MM-DD when parseable, falling back to the raw
// string the page reported.
func extractDate(page *goquery.Document) string {
	raw := ""
	for _, selector := range []string{
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
	} {
		if v, ok := page.Find(selector).First().Attr("content"); ok && v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		return ""
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t.Format("2006-01-02")
	}
	return raw
}

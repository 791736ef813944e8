package model

// DefaultArticleTitle is used when extraction could not determine a title.
const DefaultArticleTitle = "Untitled"

// Article is the normalized result of extracting readable content from one
// URL. A URL that fails extraction produces no Article at all, never an
// empty one.
type Article struct {
	// URL is the source the article was extracted from.
	URL string

	// Title of the article, DefaultArticleTitle when unknown.
	Title string

	// ContentHTML is the readable body as semantic HTML.
	ContentHTML string

	// ContentText is the readable body as plain text.
	ContentText string

	// Author is the byline, empty when unknown.
	Author string

	// Date is the publication date, normalized to YYYY-MM-DD when it could
	// be parsed, otherwise the raw string the page reported. Empty when
	// unknown.
	Date string

	// ThumbnailURL is the lead image (og:image and friends), empty when the
	// page has none.
	ThumbnailURL string
}

package model

// Post represents a single feed post that carries at least one outbound
// link. Posts without links are dropped by the feed clients and never reach
// the rest of the pipeline.
type Post struct {
	// URI is the canonical identifier of the post, e.g. an AT-URI like
	// at://did:plc:abc/app.bsky.feed.post/xyz, or a feed item GUID.
	URI string

	// Text is the post body.
	Text string

	// Links are the outbound URLs of the post: text-scan order first, then
	// the embedded external link if it was not already present.
	Links []string

	// CreatedAt is the creation timestamp as reported by the feed source.
	CreatedAt string

	// Author is the handle the feed was fetched for.
	Author string
}

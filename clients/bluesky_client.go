package clients

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Luismorlan/bskybook/model"
	"github.com/Luismorlan/bskybook/utils"
)

const GetAuthorFeedUri = "https://public.api.bsky.app/xrpc/app.bsky.feed.getAuthorFeed"

// BlueskyClient talks to the public, unauthenticated Bluesky XRPC API.
type BlueskyClient struct {
	client *HttpClient

	log *logrus.Entry
}

func NewBlueskyClient(log *logrus.Entry) *BlueskyClient {
	return &BlueskyClient{
		client: NewHttpClient(ApiUserAgent, log),
		log:    log,
	}
}

func (c *BlueskyClient) Close() {
	c.client.Close()
}

// Wire types for app.bsky.feed.getAuthorFeed. Only the fields this tool
// reads are declared.
type AuthorFeedResponse struct {
	Feed []AuthorFeedItem `json:"feed"`
}

type AuthorFeedItem struct {
	Post AuthorFeedPost `json:"post"`
}

type AuthorFeedPost struct {
	Uri    string           `json:"uri"`
	Record AuthorFeedRecord `json:"record"`
}

type AuthorFeedRecord struct {
	Text      string           `json:"text"`
	CreatedAt string           `json:"createdAt"`
	Embed     *AuthorFeedEmbed `json:"embed"`
}

type AuthorFeedEmbed struct {
	External *AuthorFeedExternal `json:"external"`
}

type AuthorFeedExternal struct {
	Uri string `json:"uri"`
}

// GetAuthorFeed fetches up to limit posts from the author's feed and keeps
// only the ones that carry at least one outbound link. A network or HTTP
// failure here is fatal for the whole run and surfaces to the caller.
func (c *BlueskyClient) GetAuthorFeed(handle string, limit int) ([]model.Post, error) {
	c.log.Infof("fetching %d posts from @%s", limit, handle)

	res, err := c.client.GetWithQueryParams(GetAuthorFeedUri, map[string]string{
		"actor": handle,
		"limit": strconv.Itoa(limit),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fail to fetch author feed for @%s", handle)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "fail to read author feed response")
	}

	posts, err := ParseAuthorFeedResponse(body, handle, c.log)
	if err != nil {
		return nil, err
	}

	c.log.Infof("found %d posts with links", len(posts))
	return posts, nil
}

// ParseAuthorFeedResponse converts the raw getAuthorFeed payload into posts.
// Link order per post: text-scan order first, then the embedded external
// link appended last if it is not already present. Posts without any link
// are dropped.
func ParseAuthorFeedResponse(body []byte, handle string, log *logrus.Entry) ([]model.Post, error) {
	res := &AuthorFeedResponse{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, errors.Wrap(err, "fail to decode author feed response")
	}

	log.Debugf("retrieved %d posts from API", len(res.Feed))

	posts := []model.Post{}
	for _, item := range res.Feed {
		record := item.Post.Record
		links := utils.ExtractLinks(record.Text)

		if record.Embed != nil && record.Embed.External != nil {
			external := record.Embed.External.Uri
			if external != "" && !utils.ContainsString(links, external) {
				links = append(links, external)
			}
		}

		if len(links) == 0 {
			log.Debugf("skipping post without links: %s", utils.TruncateText(record.Text, 50))
			continue
		}

		posts = append(posts, model.Post{
			URI:       item.Post.Uri,
			Text:      record.Text,
			Links:     links,
			CreatedAt: record.CreatedAt,
			Author:    handle,
		})
	}
	return posts, nil
}

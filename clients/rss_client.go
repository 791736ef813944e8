package clients

import (
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Luismorlan/bskybook/model"
	"github.com/Luismorlan/bskybook/utils"
)

// RSSClient turns any RSS or Atom feed into the same post shape the Bluesky
// client produces, so the rest of the pipeline does not care where the feed
// came from.
type RSSClient struct {
	parser *gofeed.Parser
	client *http.Client

	log *logrus.Entry
}

func NewRSSClient(log *logrus.Entry) *RSSClient {
	client := &http.Client{Timeout: time.Duration(TimeoutSeconds()) * time.Second}
	parser := gofeed.NewParser()
	parser.UserAgent = ApiUserAgent
	parser.Client = client
	return &RSSClient{parser: parser, client: client, log: log}
}

func (c *RSSClient) Close() {
	c.client.CloseIdleConnections()
}

// GetFeed fetches up to limit items from the feed at feedURL and keeps only
// the ones that carry at least one outbound link. Fetch or parse failure is
// fatal for the whole run.
func (c *RSSClient) GetFeed(feedURL string, limit int) ([]model.Post, error) {
	c.log.Infof("fetching %d items from feed %s", limit, feedURL)

	feed, err := c.parser.ParseURL(feedURL)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to fetch feed %s", feedURL)
	}

	posts := FeedToPosts(feed, limit, c.log)
	c.log.Infof("found %d items with links", len(posts))
	return posts, nil
}

// FeedToPosts maps feed items onto posts. Link order mirrors the Bluesky
// client: links scanned from the item text first, then the item's own link
// appended last if novel.
func FeedToPosts(feed *gofeed.Feed, limit int, log *logrus.Entry) []model.Post {
	posts := []model.Post{}
	for _, item := range feed.Items {
		if len(posts) >= limit {
			break
		}

		text := item.Title
		if item.Description != "" {
			text = text + "\n\n" + item.Description
		}

		links := utils.ExtractLinks(text)
		if item.Link != "" && !utils.ContainsString(links, item.Link) {
			links = append(links, item.Link)
		}
		if len(links) == 0 {
			log.Debugf("skipping feed item without links: %s", utils.TruncateText(text, 50))
			continue
		}

		createdAt := item.Published
		if item.PublishedParsed != nil {
			createdAt = item.PublishedParsed.Format(time.RFC3339)
		}

		posts = append(posts, model.Post{
			URI:       item.GUID,
			Text:      text,
			Links:     links,
			CreatedAt: createdAt,
			Author:    feed.Title,
		})
	}
	return posts
}

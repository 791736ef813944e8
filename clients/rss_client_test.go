package clients

import (
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	Logger "github.com/Luismorlan/bskybook/utils/log"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <item>
      <guid>post-1</guid>
      <title>First article</title>
      <description>An article about https://example.com/extra things</description>
      <link>https://example.com/first</link>
      <pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <guid>post-2</guid>
      <title>Second article</title>
      <link>https://example.com/second</link>
    </item>
    <item>
      <guid>post-3</guid>
      <title>Third article</title>
      <link>https://example.com/third</link>
    </item>
  </channel>
</rss>`

func TestFeedToPosts(t *testing.T) {
	feed, err := gofeed.NewParser().Parse(strings.NewReader(rssFixture))
	require.NoError(t, err)

	posts := FeedToPosts(feed, 20, Logger.NewNop())
	require.Len(t, posts, 3)

	// Text-scanned link first, item link appended last.
	require.Equal(t,
		[]string{"https://example.com/extra", "https://example.com/first"},
		posts[0].Links)
	require.Equal(t, "Example Blog", posts[0].Author)
	require.Equal(t, "post-1", posts[0].URI)
	require.Equal(t, "2024-05-01T10:00:00Z", posts[0].CreatedAt)

	require.Equal(t, []string{"https://example.com/second"}, posts[1].Links)
}

func TestFeedToPostsHonorsLimit(t *testing.T) {
	feed, err := gofeed.NewParser().Parse(strings.NewReader(rssFixture))
	require.NoError(t, err)

	posts := FeedToPosts(feed, 2, Logger.NewNop())
	require.Len(t, posts, 2)
}

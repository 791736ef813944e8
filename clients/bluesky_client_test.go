package clients

import (
	"testing"

	"github.com/stretchr/testify/require"

	Logger "github.com/Luismorlan/bskybook/utils/log"
)

const authorFeedFixture = `{
  "feed": [
    {
      "post": {
        "uri": "at://did:plc:abc/app.bsky.feed.post/1",
        "record": {
          "text": "read this https://example.com/one today",
          "createdAt": "2024-05-01T10:00:00Z"
        }
      }
    },
    {
      "post": {
        "uri": "at://did:plc:abc/app.bsky.feed.post/2",
        "record": {
          "text": "no links in this one",
          "createdAt": "2024-05-01T11:00:00Z"
        }
      }
    },
    {
      "post": {
        "uri": "at://did:plc:abc/app.bsky.feed.post/3",
        "record": {
          "text": "card only post",
          "createdAt": "2024-05-01T12:00:00Z",
          "embed": {
            "external": {"uri": "https://example.com/two"}
          }
        }
      }
    },
    {
      "post": {
        "uri": "at://did:plc:abc/app.bsky.feed.post/4",
        "record": {
          "text": "both https://example.com/three here",
          "createdAt": "2024-05-01T13:00:00Z",
          "embed": {
            "external": {"uri": "https://example.com/three"}
          }
        }
      }
    }
  ]
}`

func TestParseAuthorFeedResponse(t *testing.T) {
	posts, err := ParseAuthorFeedResponse([]byte(authorFeedFixture), "republik.ch", Logger.NewNop())
	require.NoError(t, err)

	// The link-less post is dropped.
	require.Len(t, posts, 3)

	require.Equal(t, "at://did:plc:abc/app.bsky.feed.post/1", posts[0].URI)
	require.Equal(t, []string{"https://example.com/one"}, posts[0].Links)
	require.Equal(t, "republik.ch", posts[0].Author)
	require.Equal(t, "2024-05-01T10:00:00Z", posts[0].CreatedAt)

	// Embed-only post picks up the external link.
	require.Equal(t, []string{"https://example.com/two"}, posts[1].Links)

	// Embed link already present in text is not duplicated.
	require.Equal(t, []string{"https://example.com/three"}, posts[2].Links)
}

func TestParseAuthorFeedResponseEmbedAppendedLast(t *testing.T) {
	body := `{"feed":[{"post":{"uri":"at://p/5","record":{
	  "text":"first https://a.com/1 then https://a.com/2",
	  "createdAt":"2024-05-01T14:00:00Z",
	  "embed":{"external":{"uri":"https://a.com/3"}}}}}]}`

	posts, err := ParseAuthorFeedResponse([]byte(body), "h", Logger.NewNop())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t,
		[]string{"https://a.com/1", "https://a.com/2", "https://a.com/3"},
		posts[0].Links)
}

func TestParseAuthorFeedResponseInvalidJson(t *testing.T) {
	_, err := ParseAuthorFeedResponse([]byte("not json"), "h", Logger.NewNop())
	require.Error(t, err)
}

func TestParseAuthorFeedResponseEmptyFeed(t *testing.T) {
	posts, err := ParseAuthorFeedResponse([]byte(`{"feed":[]}`), "h", Logger.NewNop())
	require.NoError(t, err)
	require.Empty(t, posts)
}

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/Luismorlan/bskybook/clients"
	"github.com/Luismorlan/bskybook/content"
	"github.com/Luismorlan/bskybook/cover"
	"github.com/Luismorlan/bskybook/epub"
	"github.com/Luismorlan/bskybook/model"
	"github.com/Luismorlan/bskybook/utils"
	"github.com/Luismorlan/bskybook/utils/dotenv"
	Logger "github.com/Luismorlan/bskybook/utils/log"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: bskybook [flags] PROFILE

Create an EPUB ebook from a Bluesky feed.

PROFILE is a Bluesky handle (e.g. 'republik.ch') or a full profile URL
(e.g. 'https://bsky.app/profile/republik.ch'). With -rss, PROFILE is an
RSS/Atom feed URL instead.

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	count := flag.Int("count", 20, "number of posts to fetch")
	output := flag.String("output", "", "output EPUB file path (default <handle>.epub)")
	coverPath := flag.String("cover", "", "also save the cover image to this path")
	rss := flag.Bool("rss", false, "treat PROFILE as an RSS/Atom feed URL")
	verbose := flag.Bool("v", false, "enable verbose output")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	// The logger is built once here and handed to every stage explicitly.
	log := Logger.New(*verbose)
	if err := dotenv.LoadDotEnvs(); err != nil {
		log.Warnf("fail to load .env files: %v", err)
	}

	// Coarse cancellation: an interrupt aborts the whole run immediately.
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	go func() {
		<-interrupted
		fmt.Fprintln(os.Stderr, "\nInterrupted by user")
		os.Exit(1)
	}()

	if err := run(flag.Arg(0), *count, *output, *coverPath, *rss, log); err != nil {
		log.Errorf("run failed: %+v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(profile string, count int, output, coverPath string, rss bool, log *logrus.Entry) error {
	var posts []model.Post
	var name string
	var err error

	if rss {
		fmt.Printf("Fetching %d items from %s...\n", count, profile)
		client := clients.NewRSSClient(log)
		posts, err = client.GetFeed(profile, count)
		client.Close()
		if err != nil {
			return err
		}
		name = feedName(posts)
	} else {
		name = utils.ExtractHandleFromURL(profile)
		fmt.Printf("Fetching %d posts from @%s...\n", count, name)
		client := clients.NewBlueskyClient(log)
		posts, err = client.GetAuthorFeed(name, count)
		client.Close()
		if err != nil {
			return err
		}
	}

	// Zero posts with links is a clean terminal state, not an error.
	if len(posts) == 0 {
		fmt.Fprintln(os.Stderr, "No posts with links found.")
		return nil
	}
	fmt.Printf("Found %d posts with links\n", len(posts))

	// De-duplicate links across the whole batch, first occurrence wins, so
	// the same URL is fetched once even when shared between posts.
	allLinks := []string{}
	for _, post := range posts {
		allLinks = append(allLinks, post.Links...)
	}
	uniqueLinks := utils.DedupStrings(allLinks)
	fmt.Printf("Extracting content from %d unique links...\n", len(uniqueLinks))

	extractor := content.NewExtractor(log)
	articles := extractor.ExtractAll(uniqueLinks)
	extractor.Close()
	if len(articles) == 0 {
		fmt.Fprintln(os.Stderr, "No articles could be extracted.")
		return nil
	}
	fmt.Printf("Successfully extracted %d articles\n", len(articles))

	title := fmt.Sprintf("%s - BlueSky Book", name)
	author := "@" + name
	if rss {
		title = fmt.Sprintf("%s - Feed Book", name)
		author = name
	}

	fmt.Println("Generating cover image...")
	generator := cover.NewGenerator(cover.DefaultOptions(), log)
	coverData, err := generator.GenerateCover(articles, title, coverPath)
	generator.Close()
	if err != nil {
		return err
	}

	if output == "" {
		output = utils.SanitizeFilename(name) + ".epub"
	}
	fmt.Printf("Creating EPUB file: %s\n", output)
	if err := epub.NewGenerator(log).CreateEpub(articles, title, author, coverData, output); err != nil {
		return err
	}

	fmt.Printf("Successfully created: %s\n", output)
	fmt.Printf("  Articles: %d\n", len(articles))
	if fi, err := os.Stat(output); err == nil {
		fmt.Printf("  Size: %.1f KB\n", float64(fi.Size())/1024)
	}
	return nil
}

// feedName derives a book name for RSS mode from the feed title the client
// attached to every post.
func feedName(posts []model.Post) string {
	for _, p := range posts {
		if p.Author != "" {
			return p.Author
		}
	}
	return "feed"
}

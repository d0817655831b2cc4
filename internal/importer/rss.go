package importer

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/validation"
)

const (
	feedUserAgent = "newsdesk/1.0 (news importer)"
	feedTimeout   = 30 * time.Second
	maxTitleRunes = 150
)

var feedExtensions = []string{".xml", ".rss", ".atom"}

// RSSSource imports the items of an RSS or Atom feed, remote or on disk.
type RSSSource struct {
	client *http.Client
	urls   *validation.URLValidator
	paths  *validation.PathValidator
	parser *gofeed.Parser
	policy *bluemonday.Policy
}

// NewRSSSource uses client for remote feeds; nil gets a client with a 30s
// timeout. urls decides which feed hosts are allowed; nil allows only
// public hosts.
func NewRSSSource(client *http.Client, urls *validation.URLValidator) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: feedTimeout}
	}
	if urls == nil {
		urls = validation.NewFeedURLValidator()
	}
	return &RSSSource{
		client: client,
		urls:   urls,
		paths:  validation.NewPathValidator(),
		parser: gofeed.NewParser(),
		policy: bluemonday.StrictPolicy(),
	}
}

func (s *RSSSource) Name() string {
	return "rss"
}

func (s *RSSSource) CanHandle(location string) bool {
	if isRemote(location) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(location))
	for _, e := range feedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (s *RSSSource) Priority() int {
	return 10
}

func (s *RSSSource) Load(ctx context.Context, location string, opts Options) ([]catalog.News, error) {
	feed, err := s.parse(ctx, location)
	if err != nil {
		return nil, err
	}

	debuglog.WithFields(map[string]any{"feed": feed.Title, "items": len(feed.Items)}).
		Infof("parsed feed %s", location)

	news := make([]catalog.News, 0, len(feed.Items))
	for _, item := range feed.Items {
		news = append(news, s.toNews(feed, item, opts))
	}
	return news, nil
}

func (s *RSSSource) parse(ctx context.Context, location string) (*gofeed.Feed, error) {
	if !isRemote(location) {
		path, err := s.paths.ExistingFile(location)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening feed: %w", err)
		}
		defer f.Close()
		return s.decode(f)
	}

	feedURL, err := s.urls.ValidateAndNormalize(location)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", feedUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	return s.decode(resp.Body)
}

func (s *RSSSource) decode(r io.Reader) (*gofeed.Feed, error) {
	feed, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return feed, nil
}

func (s *RSSSource) toNews(feed *gofeed.Feed, item *gofeed.Item, opts Options) catalog.News {
	released := opts.Now()
	switch {
	case item.PublishedParsed != nil:
		released = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		released = *item.UpdatedParsed
	}

	n := catalog.News{
		Title:               cleanTitle(item.Title),
		Body:                s.plainText(itemContent(item)),
		Author:              itemAuthor(item, opts.Author, feed.Title),
		ReleaseDate:         released.Format(time.DateOnly),
		ArchiveDate:         released.Add(opts.ArchiveAfter).Format(time.DateOnly),
		MainCategory:        opts.MainCategory,
		OtherCategoriesList: append([]string{}, opts.OtherCategories...),
		SubcategoriesList:   []catalog.Subcategory{},
	}
	for _, name := range item.Categories {
		if name = strings.TrimSpace(name); name != "" {
			n.SubcategoriesList = append(n.SubcategoriesList, catalog.Subcategory{Subcategory: name})
		}
	}
	return n
}

func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func itemAuthor(item *gofeed.Item, fallback, feedTitle string) string {
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	if fallback != "" {
		return fallback
	}
	return strings.TrimSpace(feedTitle)
}

// plainText strips every tag and decodes the entities the policy leaves
// escaped.
func (s *RSSSource) plainText(content string) string {
	text := html.UnescapeString(s.policy.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// cleanTitle removes digits, which news titles may not contain, and caps
// the length.
func cleanTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, title)
	title = strings.Join(strings.Fields(title), " ")
	title = strings.TrimFunc(title, func(r rune) bool {
		return unicode.IsPunct(r) && r != '"' && r != '\''
	})
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return title
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// SunoSource enumerates a user's songs by attaching to their already
// authenticated browser over the Chrome remote-debug protocol, and fetches
// song payloads directly from the CDN.
type SunoSource struct {
	config *domain.SourceConfig
	client *http.Client
	logger *zap.Logger
}

// NewSunoSource creates a new source adapter.
func NewSunoSource(config *domain.SourceConfig, logger *zap.Logger) *SunoSource {
	return &SunoSource{
		config: config,
		client: &http.Client{},
		logger: logger,
	}
}

type songLink struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// collectSongLinksJS extracts song links with the first text line of the
// surrounding element as the display title.
const collectSongLinksJS = `Array.from(document.querySelectorAll('a[href*="/song/"]')).map(a => {
	const text = ((a.parentElement ? a.parentElement.innerText : a.innerText) || '').trim();
	return {href: a.href, title: text.split('\n')[0]};
})`

// Enumerate attaches to the user's browser, scroll-loads the profile page
// until targetCount songs are visible or loading stalls, and returns the
// deduplicated song list in first-seen order.
func (s *SunoSource) Enumerate(ctx context.Context, creds domain.SourceCredentials, targetCount int) ([]domain.Song, error) {
	debugURL := s.config.DebugURL
	if u, ok := creds.Data["debug_url"]; ok && u != "" {
		debugURL = u
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, debugURL)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	s.logger.Info("Connecting to browser", zap.String("debug_url", debugURL))

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(s.config.ProfileURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.config.PageLoadWait),
	); err != nil {
		return nil, fmt.Errorf("failed to attach to browser: %w", err)
	}

	links, err := s.scrollAndCollect(browserCtx, targetCount)
	if err != nil {
		return nil, err
	}

	songs := make([]domain.Song, 0, len(links))
	for _, link := range links {
		song, err := domain.NewSong(link.Href, link.Title, s.config.CDNBaseURL)
		if err != nil {
			// Links without an extractable song id are not songs.
			continue
		}
		songs = append(songs, song)
	}

	songs = domain.DedupeSongs(songs)
	if len(songs) > targetCount {
		songs = songs[:targetCount]
	}

	s.logger.Info("Song enumeration finished", zap.Int("songs", len(songs)))
	return songs, nil
}

// scrollAndCollect keeps scrolling until enough unique songs are visible or
// the page stops yielding new ones.
func (s *SunoSource) scrollAndCollect(ctx context.Context, targetCount int) ([]songLink, error) {
	var links []songLink
	lastCount := 0
	stalls := 0

	for scroll := 0; scroll < s.config.MaxScrolls; scroll++ {
		if err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(s.config.ScrollPause),
			chromedp.Evaluate(collectSongLinksJS, &links),
		); err != nil {
			return nil, fmt.Errorf("failed to load song list: %w", err)
		}

		count := uniqueSongCount(links)
		s.logger.Debug("Scrolled profile page",
			zap.Int("scroll", scroll+1),
			zap.Int("songs_visible", count))

		if count >= targetCount {
			break
		}

		if count == lastCount {
			stalls++
			if stalls >= s.config.StallLimit {
				s.logger.Info("No new songs after repeated scrolls", zap.Int("songs_visible", count))
				break
			}
		} else {
			stalls = 0
		}
		lastCount = count
	}

	return links, nil
}

func uniqueSongCount(links []songLink) int {
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		id, err := domain.ExtractSongID(link.Href)
		if err != nil {
			continue
		}
		seen[id] = struct{}{}
	}
	return len(seen)
}

// Fetch downloads one song's bytes from the CDN. The caller bounds the call
// with a timeout context.
func (s *SunoSource) Fetch(ctx context.Context, song domain.Song) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, song.CDNURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Song represents one unit of content to fetch.
type Song struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	CDNURL string `json:"cdn_url"`
}

const maxTitleLen = 50

var titleCleaner = regexp.MustCompile(`[^\w\s-]`)

// ExtractSongID extracts the song id from a canonical song URL. Query
// parameters are stripped; an error is returned when no id can be found.
func ExtractSongID(rawURL string) (string, error) {
	base, _, _ := strings.Cut(rawURL, "?")
	_, id, found := strings.Cut(base, "/song/")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("no song id in url: %s", rawURL)
	}
	return id, nil
}

// CleanTitle sanitizes a display title to a filesystem-safe, length-bounded
// string. Returns the empty string when nothing survives sanitizing.
func CleanTitle(title string) string {
	title = titleCleaner.ReplaceAllString(title, "")
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	return strings.TrimSpace(title)
}

// SyntheticTitle derives a fallback title from a song id.
func SyntheticTitle(id string) string {
	return "Song_" + shortID(id)
}

// NewSong builds a Song from a raw link and display title. The title falls
// back to a synthetic one when sanitizing leaves it empty.
func NewSong(rawURL, title, cdnBaseURL string) (Song, error) {
	id, err := ExtractSongID(rawURL)
	if err != nil {
		return Song{}, err
	}

	cleaned := CleanTitle(title)
	if cleaned == "" {
		cleaned = SyntheticTitle(id)
	}

	base, _, _ := strings.Cut(rawURL, "?")
	return Song{
		ID:     id,
		Title:  cleaned,
		URL:    base,
		CDNURL: fmt.Sprintf("%s/%s.mp3", strings.TrimSuffix(cdnBaseURL, "/"), id),
	}, nil
}

// DedupeSongs removes songs with duplicate ids, keeping the first occurrence
// and preserving insertion order.
func DedupeSongs(songs []Song) []Song {
	seen := make(map[string]struct{}, len(songs))
	out := make([]Song, 0, len(songs))
	for _, s := range songs {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ArchiveFileName returns the deterministic file name for a song at the given
// 1-based position: a fixed-width sequence number, the sanitized title and a
// short id fragment. Identical item lists always produce identical names.
func ArchiveFileName(index int, song Song) string {
	return fmt.Sprintf("%03d_%s_%s.mp3", index, song.Title, shortID(song.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Ravenshaw3/watch-media-server/internal/catalog"
)

// Descriptor is the result of classifying one file path.
type Descriptor struct {
	Type    catalog.MediaType
	Title   string
	Year    *int
	Season  *int
	Episode *int
}

// TV episode patterns, tried in order against the file name.
var tvPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(.*?)[.\s_-]*\bS(\d{1,2})[.\s_-]*E(\d{1,3})\b`), // Show.S01E02
	regexp.MustCompile(`(?i)(.+?)[.\s_-]+(\d{1,2})x(\d{1,3})\b`),            // Show.1x02
}

// episodeOnlyPattern picks up "E02" / "Episode 2" file names inside a
// "Season N" directory.
var episodeOnlyPattern = regexp.MustCompile(`(?i)\b(?:e|ep|episode[.\s_-]*)(\d{1,3})\b`)

// seasonDirPattern matches "Season N" directory names.
var seasonDirPattern = regexp.MustCompile(`(?i)^season[.\s_-]*(\d{1,2})$`)

// Year markers, tried in order against the file stem and parent directory.
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\d{4})\)`),           // Movie Title (2020)
	regexp.MustCompile(`\[(\d{4})\]`),           // Movie Title [2020]
	regexp.MustCompile(`[.\s_-](\d{4})(?:[.\s_-]|$)`), // Movie.Title.2020.1080p
}

// trailingYearPattern strips "(2008)" / "[2008]" from the end of a show name.
var trailingYearPattern = regexp.MustCompile(`\s*[\(\[]\d{4}[\)\]]\s*$`)

var (
	bracketPattern      = regexp.MustCompile(`\[.*?\]`)
	trailingDashPattern = regexp.MustCompile(`\s*-\s*$`)
	multiSpacePattern   = regexp.MustCompile(`\s+`)
)

// DefaultReleaseTags are the release junk tokens stripped from titles:
// resolution markers, codec names, source and group tags.
var DefaultReleaseTags = []string{
	"1080p", "720p", "480p", "2160p", "4k", "uhd",
	"bluray", "blu-ray", "brrip", "bdrip", "dvdrip", "webrip", "web-dl", "webdl", "hdtv", "hdrip",
	"x264", "x265", "h264", "h265", "hevc", "av1",
	"aac", "ac3", "dts", "atmos", "ddp5", "truehd",
	"remux", "proper", "repack", "extended", "unrated", "limited", "internal", "multi", "subbed",
}

// Classifier parses file paths into media descriptors by running an ordered
// list of matchers: TV episode first (a season/episode marker is a stronger
// signal than a parenthesized number), then movie, then the unknown fallback.
type Classifier struct {
	releaseTags *regexp.Regexp
	matchers    []func(dir, stem string) (Descriptor, bool)
}

func NewClassifier(releaseTags []string) *Classifier {
	c := &Classifier{releaseTags: buildTagPattern(releaseTags)}
	c.matchers = []func(dir, stem string) (Descriptor, bool){
		c.matchTVEpisode,
		c.matchMovie,
	}
	return c
}

// buildTagPattern compiles the tag token list into a single word-boundary
// alternation. Tokens are quoted, so compilation cannot fail on user input;
// an empty list yields a pattern that matches nothing.
func buildTagPattern(tags []string) *regexp.Regexp {
	if len(tags) == 0 {
		tags = []string{}
	}
	quoted := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	if len(quoted) == 0 {
		return regexp.MustCompile(`\bzzz_no_release_tags\b`)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Classify parses a path into a typed descriptor. It never fails: paths that
// match no pattern come back as unknown with a normalized title.
func (c *Classifier) Classify(path string) Descriptor {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(path)

	for _, match := range c.matchers {
		if desc, ok := match(dir, stem); ok {
			return desc
		}
	}

	return Descriptor{
		Type:  catalog.MediaTypeUnknown,
		Title: c.cleanTitle(stem),
	}
}

func (c *Classifier) matchTVEpisode(dir, stem string) (Descriptor, bool) {
	for _, pattern := range tvPatterns {
		m := pattern.FindStringSubmatch(stem)
		if len(m) < 4 {
			continue
		}
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])

		show := c.cleanShowName(m[1])
		if show == "" {
			show = c.showNameFromDir(dir)
		}
		return Descriptor{
			Type:    catalog.MediaTypeTVEpisode,
			Title:   show,
			Season:  &season,
			Episode: &episode,
		}, true
	}

	// Show/Season 1/E02.mkv layout: season from the directory, episode from
	// the file name, show from the directory above the season folder.
	if sm := seasonDirPattern.FindStringSubmatch(filepath.Base(dir)); len(sm) >= 2 {
		if em := episodeOnlyPattern.FindStringSubmatch(stem); len(em) >= 2 {
			season, _ := strconv.Atoi(sm[1])
			episode, _ := strconv.Atoi(em[1])
			return Descriptor{
				Type:    catalog.MediaTypeTVEpisode,
				Title:   c.cleanShowName(filepath.Base(filepath.Dir(dir))),
				Season:  &season,
				Episode: &episode,
			}, true
		}
	}

	return Descriptor{}, false
}

func (c *Classifier) matchMovie(dir, stem string) (Descriptor, bool) {
	// The year marker usually sits in the file name; release layouts like
	// "Title (2010)/title.mkv" only carry it on the parent directory.
	for _, candidate := range []string{stem, filepath.Base(dir)} {
		if title, year, ok := c.extractMovie(candidate); ok {
			if title == "" && candidate == stem {
				continue
			}
			if title == "" {
				title = c.cleanTitle(stem)
			}
			return Descriptor{
				Type:  catalog.MediaTypeMovie,
				Title: title,
				Year:  &year,
			}, true
		}
	}
	return Descriptor{}, false
}

func (c *Classifier) extractMovie(name string) (title string, year int, ok bool) {
	for _, pattern := range yearPatterns {
		loc := pattern.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		y, err := strconv.Atoi(name[loc[2]:loc[3]])
		if err != nil || !plausibleYear(y) {
			continue
		}
		return c.cleanTitle(name[:loc[0]]), y, true
	}
	return "", 0, false
}

// plausibleYear bounds the movie year to the era of film: 1888 (the first
// surviving motion picture) through next year.
func plausibleYear(y int) bool {
	return y >= 1888 && y <= time.Now().Year()+1
}

// showNameFromDir derives a show name from the directory structure when the
// file name carries only the SxxExx marker.
func (c *Classifier) showNameFromDir(dir string) string {
	base := filepath.Base(dir)
	if seasonDirPattern.MatchString(base) {
		base = filepath.Base(filepath.Dir(dir))
	}
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return c.cleanShowName(base)
}

func (c *Classifier) cleanShowName(name string) string {
	name = trailingYearPattern.ReplaceAllString(name, "")
	return c.cleanTitle(name)
}

// cleanTitle normalizes separators to spaces and strips release junk. This is
// best-effort: a title that keeps some junk is still a valid classification.
func (c *Classifier) cleanTitle(name string) string {
	name = strings.ReplaceAll(name, ".", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = bracketPattern.ReplaceAllString(name, "")
	name = c.releaseTags.ReplaceAllString(name, "")
	name = trailingDashPattern.ReplaceAllString(name, "")
	name = multiSpacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

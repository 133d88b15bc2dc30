package matchlog

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultCategories are the per-match statistic tables fetched for a season,
// in fetch order
var DefaultCategories = []string{
	"shooting",
	"passing",
	"passing_types",
	"defense",
	"possession",
	"misc",
	"keeper",
	"keeper_adv",
}

// ErrInvalidURLFormat is returned when a URL is not a team match logs URL
var ErrInvalidURLFormat = errors.New("invalid match logs URL format")

const matchLogsMarker = "-Match-Logs-"

var (
	teamIDRe   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	seasonRe   = regexp.MustCompile(`^\d[\d-]*$`)
	scopeRe    = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	categoryRe = regexp.MustCompile(`^[a-z][a-z_]*$`)
	slugRe     = regexp.MustCompile(`^(.+)` + matchLogsMarker + `(.+)$`)
	unsafeRe   = regexp.MustCompile(`[^0-9A-Za-z_-]+`)
)

// Descriptor identifies a team season and the shared base of all its
// category match log URLs
type Descriptor struct {
	Scheme    string
	Host      string
	Lang      string // language prefix such as "en", may be empty
	TeamID    string
	Season    string
	Scope     string // "all_comps" or a competition code like "c9"
	Slug      string // team name as written in the URL, e.g. "Manchester-City"
	ScopeName string // e.g. "All-Competitions"
}

// Parse validates a team match logs URL and extracts its descriptor.
//
// Accepted paths look like
//
//	/en/squads/18bb7c10/2023-2024/matchlogs/all_comps/shooting/Arsenal-Match-Logs-All-Competitions
//
// where the category and team segments are optional.
func Parse(rawURL string) (*Descriptor, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidURLFormat)
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURLFormat, err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURLFormat, rawURL)
	}

	segments := splitPath(parsedURL.Path)
	squads := -1
	for i, segment := range segments {
		if segment == "squads" {
			squads = i
			break
		}
	}
	// squads/<id>/<season>/matchlogs/<scope>
	if squads < 0 || len(segments) < squads+5 {
		return nil, fmt.Errorf("%w: %q is not a team match logs path", ErrInvalidURLFormat, parsedURL.Path)
	}

	desc := &Descriptor{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
		Lang:   strings.Join(segments[:squads], "/"),
		TeamID: segments[squads+1],
		Season: segments[squads+2],
		Scope:  segments[squads+4],
	}

	if !teamIDRe.MatchString(desc.TeamID) {
		return nil, fmt.Errorf("%w: bad team id %q", ErrInvalidURLFormat, desc.TeamID)
	}
	if !seasonRe.MatchString(desc.Season) {
		return nil, fmt.Errorf("%w: bad season %q", ErrInvalidURLFormat, desc.Season)
	}
	if segments[squads+3] != "matchlogs" {
		return nil, fmt.Errorf("%w: expected matchlogs segment, got %q", ErrInvalidURLFormat, segments[squads+3])
	}
	if !scopeRe.MatchString(desc.Scope) {
		return nil, fmt.Errorf("%w: bad competition scope %q", ErrInvalidURLFormat, desc.Scope)
	}

	rest := segments[squads+5:]
	switch len(rest) {
	case 0:
	case 1:
		if m := slugRe.FindStringSubmatch(rest[0]); m != nil {
			desc.Slug, desc.ScopeName = m[1], m[2]
		} else if !categoryRe.MatchString(rest[0]) {
			return nil, fmt.Errorf("%w: unexpected segment %q", ErrInvalidURLFormat, rest[0])
		}
	case 2:
		if !categoryRe.MatchString(rest[0]) {
			return nil, fmt.Errorf("%w: bad category %q", ErrInvalidURLFormat, rest[0])
		}
		m := slugRe.FindStringSubmatch(rest[1])
		if m == nil {
			return nil, fmt.Errorf("%w: bad team segment %q", ErrInvalidURLFormat, rest[1])
		}
		desc.Slug, desc.ScopeName = m[1], m[2]
	default:
		return nil, fmt.Errorf("%w: too many path segments in %q", ErrInvalidURLFormat, parsedURL.Path)
	}

	return desc, nil
}

// splitPath returns the non-empty segments of a URL path
func splitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// BaseURL returns the category-agnostic prefix shared by every category URL.
// It always ends with a slash.
func (d *Descriptor) BaseURL() string {
	var b strings.Builder
	b.WriteString(d.Scheme)
	b.WriteString("://")
	b.WriteString(d.Host)
	b.WriteString("/")
	if d.Lang != "" {
		b.WriteString(d.Lang)
		b.WriteString("/")
	}
	fmt.Fprintf(&b, "squads/%s/%s/matchlogs/%s/", d.TeamID, d.Season, d.Scope)
	return b.String()
}

// CategoryURL returns the match logs URL of one statistic category
func (d *Descriptor) CategoryURL(category string) string {
	u := d.BaseURL() + category + "/"
	if d.Slug != "" {
		u += d.Slug + matchLogsMarker + d.ScopeName
	}
	return u
}

// TeamName returns the display name of the team, empty when the URL had
// no team segment
func (d *Descriptor) TeamName() string {
	return strings.ReplaceAll(d.Slug, "-", " ")
}

// FileName returns a filesystem-safe name for the season export
func (d *Descriptor) FileName() string {
	name := d.Slug
	if name == "" {
		name = d.TeamID
	}
	name = strings.Trim(unsafeRe.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "team"
	}
	return fmt.Sprintf("%s_%s_season_stats.csv", name, d.Season)
}

// String returns a short human readable label like "Arsenal 2023-2024"
func (d *Descriptor) String() string {
	name := d.TeamName()
	if name == "" {
		name = d.TeamID
	}
	return name + " " + d.Season
}

// Package version compares semantic versions and checks GitHub for a
// newer casalink release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const releaseURL = "https://api.github.com/repos/%s/%s/releases/latest"

// Release is the slice of GitHub's release payload the checker needs.
type Release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Info is the outcome of an update check.
type Info struct {
	Current         string
	Latest          string
	UpdateAvailable bool
	ReleaseURL      string
}

// Checker asks GitHub for the latest published release of a repository.
type Checker struct {
	current string
	owner   string
	repo    string
	client  *http.Client
	baseURL string
}

func NewChecker(current, owner, repo string) *Checker {
	return &Checker{
		current: Normalize(current),
		owner:   owner,
		repo:    repo,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: fmt.Sprintf(releaseURL, owner, repo),
	}
}

// Check fetches the latest release and compares it against the running
// version. Drafts and prereleases count as "no update".
func (c *Checker) Check(ctx context.Context) (Info, error) {
	info := Info{Current: c.current, Latest: c.current}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return info, fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "casalink/"+c.current)

	resp, err := c.client.Do(req)
	if err != nil {
		return info, fmt.Errorf("fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// no releases published yet
		return info, nil
	}
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("release API returned HTTP %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return info, fmt.Errorf("decode release info: %w", err)
	}
	if release.Draft || release.Prerelease {
		return info, nil
	}

	info.Latest = Normalize(release.TagName)
	info.UpdateAvailable = Compare(info.Current, info.Latest) < 0
	info.ReleaseURL = release.HTMLURL
	return info, nil
}

// Normalize strips a leading v/V and surrounding whitespace.
func Normalize(v string) string {
	return strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(v), "v"), "V")
}

// Compare orders two semantic versions: -1 when a < b, 0 when equal,
// 1 when a > b. Anything after a '-' is ignored.
func Compare(a, b string) int {
	pa, pb := parse(a), parse(b)
	for i := 0; i < 3; i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func parse(v string) [3]int {
	v = Normalize(v)
	if idx := strings.IndexByte(v, '-'); idx != -1 {
		v = v[:idx]
	}
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

// backend/govapi/period_checker.go
package govapi

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Regex to find "Month YYYY" labels like "June 2025" or "Jun, 2025".
var periodLabelRegex = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[\s,]+(\d{4})`)

// CheckLatestPeriod scrapes the public report portal for the most recently
// published period label and returns it as a 3-letter month name plus
// calendar year. The portal publishes with a lag, so sync prefers this over
// the wall clock when a portal URL is configured.
func CheckLatestPeriod(portalURL, containerSelector string) (month string, year int, err error) {
	if containerSelector == "" {
		containerSelector = "body"
	}
	log.Printf("Service: GovAPI: checking %s for the latest published period (container: %q)", portalURL, containerSelector)

	client := http.Client{Timeout: 20 * time.Second}
	res, err := client.Get(portalURL)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get portal page %s: %w", portalURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("failed to get portal page %s: status code %d", portalURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse portal page %s: %w", portalURL, err)
	}

	text := doc.Find(containerSelector).Text()
	m := periodLabelRegex.FindStringSubmatch(text)
	if m == nil {
		return "", 0, fmt.Errorf("no period label found on %s within container %q", portalURL, containerSelector)
	}

	year, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse year from period label %q: %w", m[0], err)
	}
	log.Printf("Service: GovAPI: portal reports latest published period %s %d", m[1], year)
	return m[1], year, nil
}

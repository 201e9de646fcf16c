// Package catalog resolves course names to registrar codes and credits by
// scraping the university's public course-map pages. The rule authoring
// flow uses it to fill in course lists without manual lookup.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CourseInfo is one resolved catalog entry. A name the department page does
// not list yields zero credits and no codes rather than an error: rule
// authors often probe names that moved between curricula.
type CourseInfo struct {
	Name        string   `json:"name"`
	Credits     float64  `json:"credits"`
	CourseCodes []string `json:"course_codes"`
}

// bracketedCode strips the "[E231000]" suffix the department page appends
// to course link text.
var bracketedCode = regexp.MustCompile(`\[\w+\]`)

// Crawler fetches and parses course-map pages.
type Crawler struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewCrawler builds a crawler rooted at the course-map base URL
// (".../crm/course_map/").
func NewCrawler(baseURL string, timeout time.Duration, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Crawler{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Lookup resolves the named courses against one department's catalog. Each
// name gets its codes from every linked course page and the credit value of
// the first listing found.
func (c *Crawler) Lookup(ctx context.Context, department string, names []string) ([]CourseInfo, error) {
	deptURL := c.baseURL + "department.php?" + url.Values{"dept": {department}}.Encode()
	body, err := c.fetch(ctx, deptURL)
	if err != nil {
		return nil, fmt.Errorf("fetching department %s: %w", department, err)
	}
	links, err := parseCourseLinks(body, c.baseURL, names)
	body.Close()
	if err != nil {
		return nil, fmt.Errorf("parsing department %s: %w", department, err)
	}

	results := make([]CourseInfo, 0, len(names))
	for _, name := range names {
		info := CourseInfo{Name: name, CourseCodes: []string{}}
		for _, link := range links[name] {
			page, err := c.fetch(ctx, link)
			if err != nil {
				return nil, fmt.Errorf("fetching course page for %q: %w", name, err)
			}
			entry, err := parseCoursePage(page)
			page.Close()
			if err != nil {
				return nil, fmt.Errorf("parsing course page for %q: %w", name, err)
			}
			if entry == nil {
				continue
			}
			info.Credits = entry.Credits
			info.CourseCodes = append(info.CourseCodes, entry.CourseCodes...)
		}
		if len(info.CourseCodes) == 0 {
			c.logger.Warn("course not found in catalog", "department", department, "course", name)
		}
		results = append(results, info)
	}
	return results, nil
}

func (c *Crawler) fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0 Safari/537.36")
	req.Header.Set("Referer", "https://class-qry.acad.ncku.edu.tw/")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parseCourseLinks walks the departmentCourseTable anchors, strips the
// bracketed code from each link text, and collects the course-page URLs of
// every requested name.
func parseCourseLinks(r io.Reader, baseURL string, names []string) (map[string][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table.departmentCourseTable")
	if table.Length() == 0 {
		return nil, fmt.Errorf("department course table not found")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	links := make(map[string][]string)
	table.Find("a").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(bracketedCode.ReplaceAllString(a.Text(), ""))
		href, ok := a.Attr("href")
		if !ok || href == "" || !wanted[name] {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref).String()
		for _, existing := range links[name] {
			if existing == full {
				return
			}
		}
		links[name] = append(links[name], full)
	})
	return links, nil
}

// parseCoursePage reads the first data row of the courseTable: column 0 is
// the course code, column 3 the credit value. Returns nil when the table
// has no data rows.
func parseCoursePage(r io.Reader) (*CourseInfo, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table.courseTable")
	if table.Length() == 0 {
		return nil, fmt.Errorf("course table not found")
	}

	var info *CourseInfo
	var parseErr error
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		cells := row.Find("td")
		if cells.Length() < 5 {
			return true
		}
		code := strings.TrimSpace(cells.Eq(0).Text())
		creditsText := strings.TrimSpace(cells.Eq(3).Text())
		credits, err := strconv.ParseFloat(creditsText, 64)
		if err != nil {
			parseErr = fmt.Errorf("invalid credits value %q", creditsText)
			return false
		}
		info = &CourseInfo{Credits: credits, CourseCodes: []string{code}}
		return false
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return info, nil
}

package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dkhwang/memoir/internal/util"
)

// Prober fetches a company homepage and extracts the few signals worth
// handing to the resolver prompt: final URL after redirects, page title,
// and meta description. It is advisory only; every failure is survivable.
type Prober struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	userAgent  string
	maxBytes   int64
}

// PageInfo is what a probe learned about a homepage.
type PageInfo struct {
	FinalURL    string
	Title       string
	Description string
	StatusCode  int
}

// NewProber creates a new homepage prober
func NewProber(timeout time.Duration, userAgent string, maxBytes int64, httpProxy, httpsProxy, noProxy string) *Prober {
	return &Prober{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    util.NewRobotsChecker(userAgent, timeout),
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Probe fetches the URL and extracts title and meta description.
// Disallowed by robots.txt is an error, not a silent empty result, so the
// caller can log why no page context was available.
func (p *Prober) Probe(ctx context.Context, rawURL string) (*PageInfo, error) {
	if !p.robots.IsAllowed(ctx, rawURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	info := &PageInfo{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}
	info.Title, info.Description = extractHead(string(body))

	return info, nil
}

// extractHead pulls <title> and <meta name="description"> out of an HTML
// document. Parse errors yield whatever was found before the error.
func extractHead(doc string) (title, description string) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", ""
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, content string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "name", "property":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if description == "" && (name == "description" || name == "og:description") {
					description = strings.TrimSpace(content)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return title, description
}

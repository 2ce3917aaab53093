package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "pdfbinder/1.0 (+https://example.local)"

// Client fetches remote PDFs:
// - if the URL serves a PDF (content-type or .pdf suffix) the bytes are
//   returned directly; "application/octet-stream" is accepted too since many
//   sites use it for downloads.
// - if the URL serves HTML, the page is parsed for a PDF link / a
//   "Download" anchor, which is then followed one level deep.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// FetchPDF downloads the PDF behind u and returns a display name derived
// from the final URL plus the raw bytes.
func (c *Client) FetchPDF(u string) (string, []byte, error) {
	return c.fetch(u, true)
}

func (c *Client) fetch(u string, followHTML bool) (string, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "pdf") || strings.HasSuffix(strings.ToLower(u), ".pdf") || strings.HasPrefix(ct, "application/octet-stream") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", nil, err
		}
		return nameFromURL(u), data, nil
	}

	if strings.Contains(ct, "text/html") && followHTML {
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return "", nil, err
		}
		pdfURL := findPDFLink(doc, u)
		if pdfURL == "" {
			return "", nil, fmt.Errorf("no direct PDF link found in HTML page: %s", u)
		}
		return c.fetch(pdfURL, false)
	}

	return "", nil, fmt.Errorf("unsupported content-type %s for %s", ct, u)
}

// findPDFLink picks <a href="...pdf"> first, falling back to anchors whose
// text mentions "download" or "pdf".
func findPDFLink(doc *goquery.Document, base string) string {
	var candidates []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		txt := strings.ToLower(strings.TrimSpace(a.Text()))
		abs := resolveURL(base, href)
		switch {
		case strings.HasSuffix(strings.ToLower(abs), ".pdf"):
			candidates = append(candidates, abs)
		case strings.Contains(txt, "download") || strings.Contains(txt, "pdf"):
			candidates = append(candidates, abs)
		}
	})

	for _, c := range candidates {
		if strings.HasSuffix(strings.ToLower(c), ".pdf") {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

func resolveURL(baseStr, href string) string {
	bu, err := url.Parse(baseStr)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}

func nameFromURL(u string) string {
	pu, err := url.Parse(u)
	if err != nil {
		return "remote.pdf"
	}
	name := path.Base(pu.Path)
	if name == "" || name == "." || name == "/" {
		return "remote.pdf"
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Amund211/quotelight/internal/adapters/auth"
)

// Preferred session cookies, in order
var sessionCookieNames = []string{"A3", "A1"}

// sessionCookie picks the session cookie from the Set-Cookie headers and formats it for a Cookie header
func sessionCookie(header http.Header) string {
	cookies := (&http.Response{Header: header}).Cookies()
	if len(cookies) == 0 {
		return ""
	}

	for _, name := range sessionCookieNames {
		for _, cookie := range cookies {
			if cookie.Name == name && cookie.Value != "" {
				return fmt.Sprintf("%s=%s", cookie.Name, cookie.Value)
			}
		}
	}

	first := cookies[0]
	if first.Value == "" {
		return ""
	}
	return fmt.Sprintf("%s=%s", first.Name, first.Value)
}

// FetchCookie requests the bootstrap page and returns its session cookie.
// The page itself usually answers 404, only the headers matter.
func (c *Client) FetchCookie(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, "cookie", c.cookieURL, "")
	if err != nil {
		return "", err
	}

	cookie := sessionCookie(resp.header)
	if cookie == "" {
		return "", fmt.Errorf("no session cookie in response (status %d)", resp.statusCode)
	}
	return cookie, nil
}

func validCrumb(crumb string) bool {
	if crumb == "" || len(crumb) > 64 {
		return false
	}
	// HTML error pages and JSON error bodies are not crumbs
	return !strings.ContainsAny(crumb, "<>{} \t\n")
}

// FetchCrumb exchanges the session cookie for a crumb
func (c *Client) FetchCrumb(ctx context.Context, cookie string) (string, error) {
	resp, err := c.send(ctx, "crumb", c.baseURL+"/v1/test/getcrumb", cookie)
	if err != nil {
		return "", err
	}

	if err := errorForStatus(resp.statusCode); err != nil {
		return "", err
	}

	crumb := strings.TrimSpace(string(resp.body))
	if !validCrumb(crumb) {
		return "", fmt.Errorf("invalid crumb in response: '%s'", truncate(crumb, 100))
	}
	return crumb, nil
}

var _ auth.Acquirer = (*Client)(nil)

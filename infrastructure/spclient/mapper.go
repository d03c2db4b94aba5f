package spclient

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// joinURL safely joins a base URL with a relative path
func joinURL(base, rel string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if strings.HasPrefix(rel, "/") {
		u.Path = rel
		return u.String()
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.Path += rel
	return u.String()
}

// firstNonEmpty returns the first non-empty string from the provided values
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// statusPattern matches the "<code> <reason>" status gosip puts ahead of the "::" separated response body
var statusPattern = regexp.MustCompile(`(?:^|:\s+)(\d{3})\s+\S`)

// httpStatus extracts the HTTP status code from a gosip error, or 0 when it carries none.
// Only the text before the response body is inspected.
func httpStatus(err error) int {
	if err == nil {
		return 0
	}
	head := err.Error()
	if i := strings.Index(head, "::"); i >= 0 {
		head = head[:i]
	}
	m := statusPattern.FindStringSubmatch(strings.TrimSpace(head))
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// isNotFound reports whether a gosip error carries an HTTP 404 response
func isNotFound(err error) bool {
	return httpStatus(err) == http.StatusNotFound
}

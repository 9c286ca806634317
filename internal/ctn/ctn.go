// Package ctn handles call tracking numbers: a phone number carried in the
// mono_ctn URL parameter or cookie that replaces the numbers shown on a page.
package ctn

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vincentbai/monotrack/internal/dom"
)

// Name is both the query parameter and the cookie name.
const Name = "mono_ctn"

// Source tells where a detected value came from.
type Source int

const (
	SourceNone Source = iota
	SourceURL
	SourceCookie
)

func (s Source) String() string {
	switch s {
	case SourceURL:
		return "url"
	case SourceCookie:
		return "cookie"
	default:
		return "none"
	}
}

var (
	queryPattern  = regexp.MustCompile(`(?i)(?:^|[?&;])` + Name + `=([^&#]*)`)
	cookiePattern = regexp.MustCompile(`(?i)(?:^|;)\s*` + Name + `=([^;]*)`)
)

// Detect extracts the CTN from a raw query string and a cookie string. The
// query wins; its value is URL-decoded. A cookie value is used as stored.
// Empty or undecodable query values count as absent and fall through to
// the cookie.
func Detect(query, cookie string) (string, Source, bool) {
	if m := queryPattern.FindStringSubmatch(query); m != nil && m[1] != "" {
		if value, err := url.QueryUnescape(m[1]); err == nil && value != "" {
			return value, SourceURL, true
		}
	}
	if m := cookiePattern.FindStringSubmatch(cookie); m != nil && m[1] != "" {
		return m[1], SourceCookie, true
	}
	return "", SourceNone, false
}

// CookieOptions scopes the persisted cookie. The zero value writes a bare
// name=value pair, leaving lifetime and scope to the browser.
type CookieOptions struct {
	MaxAge time.Duration `yaml:"max_age"`
	Path   string        `yaml:"path"`
	Domain string        `yaml:"domain"`
}

// Cookie formats value for assignment to document.cookie.
func (o CookieOptions) Cookie(value string) string {
	var b strings.Builder
	b.WriteString(Name)
	b.WriteByte('=')
	b.WriteString(value)
	if o.MaxAge > 0 {
		// Round up: max-age=0 would delete the cookie.
		fmt.Fprintf(&b, "; max-age=%d", int64((o.MaxAge+time.Second-1)/time.Second))
	}
	if o.Path != "" {
		b.WriteString("; path=")
		b.WriteString(o.Path)
	}
	if o.Domain != "" {
		b.WriteString("; domain=")
		b.WriteString(o.Domain)
	}
	return b.String()
}

// HeaderSafe reports whether value can go into a Set-Cookie header without
// adding attributes or further cookies. document.cookie writes take the
// value verbatim; HTTP responses only carry values that pass this check.
func HeaderSafe(value string) bool {
	for _, r := range value {
		if r == ';' || r == ',' || r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

var telStripper = strings.NewReplacer(" ", "", "\t", "", "-", "", ".", "", "(", "", ")", "")

// TelHref builds the tel: link for a displayed number.
func TelHref(number string) string {
	return "tel:" + telStripper.Replace(number)
}

// Replace writes value into every phone element; anchors also get a tel:
// href. It returns the number of elements changed and does nothing when
// value is empty.
func Replace(phones []dom.Element, value string) int {
	if value == "" {
		return 0
	}
	for _, el := range phones {
		el.SetTextContent(value)
		if el.TagName() == "a" {
			el.SetAttribute("href", TelHref(value))
		}
	}
	return len(phones)
}

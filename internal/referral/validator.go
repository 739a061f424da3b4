// Package referral validates referral links submitted as activity proofs.
package referral

import (
	"net/url"
	"regexp"
	"strings"
)

// refCodeQueryKeys are checked in order when looking for a referral code in the query string
var refCodeQueryKeys = []string{"ref", "refCode", "ref_code", "referral", "referralCode", "referral_code", "code", "invite"}

// refCodePathMarkers precede the referral code in path-style links such as /r/ABC123 or /invite/ABC123
var refCodePathMarkers = map[string]struct{}{
	"ref":      {},
	"r":        {},
	"invite":   {},
	"referral": {},
}

var refCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

// Result is the outcome of validating a referral link
type Result struct {
	IsValid bool
	RefCode string
	Error   string
}

// Validator checks referral links against a host allow-list
type Validator struct {
	allowedHosts []string
}

// NewValidator creates a validator. allowedHosts applies when an activity does not set its own list;
// when both are empty any host is accepted.
func NewValidator(allowedHosts []string) *Validator {
	return &Validator{allowedHosts: normalizeHosts(allowedHosts)}
}

// Resolve parses a user-supplied referral link and returns its canonical form:
// lowercase scheme and host, no fragment, no trailing slash, and a query reduced to the referral code
// parameter. Only http and https links resolve.
func Resolve(input string) (string, bool) {
	u, ok := parse(input)
	if !ok {
		return "", false
	}
	return canonicalize(u), true
}

// Validate checks that a canonical referral link comes from an accepted host and carries a referral code
func (v *Validator) Validate(canonicalURL string, activityHosts []string) Result {
	u, ok := parse(canonicalURL)
	if !ok {
		return Result{Error: "Could not extract a valid referral link"}
	}

	hosts := normalizeHosts(activityHosts)
	if len(hosts) == 0 {
		hosts = v.allowedHosts
	}
	if len(hosts) > 0 && !hostAllowed(u.Hostname(), hosts) {
		return Result{Error: "Referral links from this website are not accepted for this activity"}
	}

	code, found := extractRefCode(u)
	if !found {
		return Result{Error: "Could not find a referral code in this link"}
	}
	if !refCodePattern.MatchString(code) {
		return Result{Error: "The referral code in this link is not valid"}
	}

	return Result{IsValid: true, RefCode: code}
}

func parse(input string) (*url.URL, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, false
	}
	if u.Hostname() == "" {
		return nil, false
	}

	return u, true
}

func canonicalize(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""
	c.User = nil
	c.Path = strings.TrimRight(c.Path, "/")
	c.RawPath = ""
	c.RawQuery = ""
	c.ForceQuery = false
	if key, code, ok := refCodeParam(u.Query()); ok {
		c.RawQuery = url.Values{key: {code}}.Encode()
	}
	return c.String()
}

// refCodeParam returns the first query parameter carrying a referral code
func refCodeParam(query url.Values) (string, string, bool) {
	for _, key := range refCodeQueryKeys {
		if code := strings.TrimSpace(query.Get(key)); code != "" {
			return key, code, true
		}
	}
	return "", "", false
}

func extractRefCode(u *url.URL) (string, bool) {
	if _, code, ok := refCodeParam(u.Query()); ok {
		return code, true
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if _, ok := refCodePathMarkers[strings.ToLower(segments[i])]; ok && segments[i+1] != "" {
			return segments[i+1], true
		}
	}

	return "", false
}

// hostAllowed matches host exactly or as a subdomain of an allowed host
func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, a := range allowed {
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func normalizeHosts(hosts []string) []string {
	var out []string
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.TrimPrefix(h, "www.")
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

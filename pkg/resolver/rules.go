package resolver

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule rewrites a source URL into an alternative location for the same
// image (an image proxy, an archive snapshot). Replace is expanded with
// the submatches of Match ($0 is the whole URL, $1.. the groups).
type Rule struct {
	Name    string `koanf:"name" validate:"required"`
	Match   string `koanf:"match" validate:"required"`
	Replace string `koanf:"replace" validate:"required"`
}

// hostPath captures scheme-less host ($1) and path ($2) of an http(s) URL.
const hostPath = `^https?://([^/?#]+)([^?#]*)`

// DefaultRules are tried, in order, after the original URL.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "weserv", Match: hostPath, Replace: "https://images.weserv.nl/?url=https://$1$2"},
		{Name: "wsrv", Match: hostPath, Replace: "https://wsrv.nl/?url=https://$1$2"},
		{Name: "archive", Match: hostPath, Replace: "https://web.archive.org/web/0/https://$1$2"},
		{Name: "webcache", Match: hostPath, Replace: "https://webcache.googleusercontent.com/search?q=cache:https://$1$2"},
	}
}

type compiledRule struct {
	name    string
	re      *regexp.Regexp
	replace string
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Match)
		if err != nil {
			return nil, fmt.Errorf("rewrite rule %q: %w", r.Name, err)
		}
		out = append(out, compiledRule{name: r.Name, re: re, replace: r.Replace})
	}
	return out, nil
}

func (r compiledRule) apply(rawURL string) (string, bool) {
	m := r.re.FindStringSubmatchIndex(rawURL)
	if m == nil {
		return "", false
	}
	out := r.re.ExpandString(nil, r.replace, rawURL, m)
	return strings.TrimSpace(string(out)), true
}

// candidates returns rawURL followed by every rewrite that matches it,
// without duplicates, in rule order.
func candidates(rawURL string, rules []compiledRule) []string {
	seen := map[string]bool{rawURL: true}
	out := []string{rawURL}
	for _, r := range rules {
		alt, ok := r.apply(rawURL)
		if !ok || alt == "" || seen[alt] {
			continue
		}
		seen[alt] = true
		out = append(out, alt)
	}
	return out
}

// Candidates lists the URLs that would be tried for rawURL with rules.
func Candidates(rawURL string, rules []Rule) ([]string, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return candidates(rawURL, compiled), nil
}

package auth

import (
	"net/url"
	"regexp"
	"strings"
)

const myshopifyDomain = "myshopify.com"

var shopHostPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_]*\.` + regexp.QuoteMeta(myshopifyDomain) + `$`)

// SanitizeShopDomain normalises a shop named by a request (e.g. "My-Shop", "https://my-shop.myshopify.com/")
// to its myshopify host. It returns "" when shop is blank or not a myshopify host.
func SanitizeShopDomain(shop string) string {
	name := strings.ToLower(strings.TrimSpace(shop))
	if name == "" {
		return ""
	}
	if !strings.Contains(name, myshopifyDomain) && !strings.Contains(name, ".") {
		name += "." + myshopifyDomain
	}
	name = strings.TrimPrefix(strings.TrimPrefix(name, "https://"), "http://")

	u, err := url.Parse("http://" + name)
	if err != nil {
		return ""
	}
	if host := u.Hostname(); shopHostPattern.MatchString(host) {
		return host
	}
	return ""
}

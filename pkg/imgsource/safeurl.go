package imgsource

import (
	"fmt"
	"net"
	"net/url"
)

// IsSafeURL validates a URL as an SSRF guard: only http and https schemes,
// and the host must not resolve to private, loopback or link-local
// addresses.
func IsSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("scheme %s is not allowed", parsedURL.Scheme)
	}

	ips, err := net.LookupIP(parsedURL.Hostname())
	if err != nil {
		return false, fmt.Errorf("resolve host %q: %w", parsedURL.Hostname(), err)
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("access to restricted network detected: %s", ip.String())
		}
	}

	return true, nil
}

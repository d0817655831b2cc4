package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrHostNotAllowed = errors.New("host not permitted")
)

// URLValidator checks the URLs the client talks to: the news backend and
// the feeds news can be imported from.
type URLValidator struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
	// DefaultScheme is prepended when the input has none.
	DefaultScheme string
	MaxLength     int
}

// NewBackendURLValidator accepts local and private hosts, since the backend
// commonly runs on the developer's machine.
func NewBackendURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		DefaultScheme:   "http",
		MaxLength:       2048,
	}
}

// NewFeedURLValidator is used for remote feeds and blocks local and private
// hosts.
func NewFeedURLValidator() *URLValidator {
	return &URLValidator{
		DefaultScheme: "https",
		MaxLength:     2048,
	}
}

// ValidateAndNormalize returns the normalized URL without a trailing slash.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyURL
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("%w: contains invalid characters", ErrInvalidURL)
	}

	if !strings.Contains(input, "://") {
		scheme := v.DefaultScheme
		if scheme == "" {
			scheme = "https"
		}
		input = scheme + "://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("%w: path traversal", ErrInvalidURL)
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	return u.String(), nil
}

func (v *URLValidator) checkHost(host string) error {
	host = strings.ToLower(host)
	if !v.AllowLocalhost && isLocalhost(host) {
		return fmt.Errorf("%w: localhost", ErrHostNotAllowed)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsUnspecified() {
			return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
		}
		if !v.AllowPrivateIPs && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()) {
			return fmt.Errorf("%w: private address %s", ErrHostNotAllowed, host)
		}
	}
	return nil
}

func isLocalhost(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		host == "127.0.0.1" || host == "::1"
}

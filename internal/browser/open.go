// Package browser opens web pages in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// start launches a command without waiting for it. Swapped in tests.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens rawURL in the user's default browser. Only absolute http and
// https URLs are accepted; the terms and privacy links come from config.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("browser.Open: %q is not an http(s) URL", rawURL)
	}
	target := u.String()
	switch runtime.GOOS {
	case "darwin":
		return start("open", target)
	case "linux", "freebsd", "openbsd":
		return start("xdg-open", target)
	case "windows":
		return start("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("browser.Open: unsupported OS: %s", runtime.GOOS)
	}
}

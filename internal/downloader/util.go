package downloader

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"mediadl-server/internal/models"
)

var urlPattern = regexp.MustCompile(`^https?://` +
	`(?:(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// ValidateURL reports whether s looks like an http(s) URL worth handing to
// the engine.
func ValidateURL(s string) bool {
	return urlPattern.MatchString(s)
}

// SanitizeURL strips shell metacharacters. The engine exec's yt-dlp with an
// argument vector, not a shell, but there is no reason to pass these through.
func SanitizeURL(s string) string {
	for _, c := range []string{";", "&", "|", "`", "$", "(", ")", "{", "}", "[", "]", "!", "#"} {
		s = strings.ReplaceAll(s, c, "")
	}
	return strings.TrimSpace(s)
}

// SanitizeFilename makes a user-supplied name safe to embed in an output
// template: no path separators, no characters invalid on Windows, bounded
// length.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\x00", "")
	for _, c := range `<>:"|?*` {
		name = strings.ReplaceAll(name, string(c), "_")
	}
	if len(name) > 200 {
		name = name[:200]
	}
	return strings.Trim(strings.TrimSpace(name), ".")
}

// buildFormat translates download options into a yt-dlp format selector.
func buildFormat(opts models.DownloadOptions) string {
	if opts.AudioOnly {
		return "bestaudio/best"
	}
	height := strings.TrimSuffix(opts.Resolution, "p")
	if opts.Resolution != "best" && isDigits(height) {
		return fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]/best", height, height)
	}
	return "bestvideo+bestaudio/best"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// swapExt replaces the file extension, keeping the path intact.
func swapExt(path, ext string) string {
	if ext == "" {
		return path
	}
	if i := strings.LastIndex(path, "."); i > strings.LastIndexAny(path, `/\`) {
		path = path[:i]
	}
	return path + "." + ext
}

func platformFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Unknown"
	}
	host := strings.TrimPrefix(u.Host, "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return "Unknown"
	}
	return strings.ToUpper(host[:1]) + host[1:]
}

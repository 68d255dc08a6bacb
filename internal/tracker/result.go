package tracker

import "net/url"

// ResultURL builds the result view target for the host page. The filename
// comes from the page's own query string; ok is false when it has none.
func ResultURL(page *url.URL) (target string, ok bool) {
	if page == nil {
		return "", false
	}
	filename := page.Query().Get("filename")
	if filename == "" {
		return "", false
	}
	q := url.Values{}
	q.Set("success", "true")
	return "/result/" + url.PathEscape(filename) + "?" + q.Encode(), true
}

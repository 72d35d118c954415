package utils

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FetchGravatar returns the Gravatar image URL for an email if one exists.
// The lookup is best-effort: callers treat an empty result as "no avatar"
// and must never fail the surrounding operation because of it.  The d=404
// parameter makes Gravatar answer 404 for unknown emails instead of serving
// a generated placeholder.
func FetchGravatar(ctx context.Context, email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	url := fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=404", sum)

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return ""
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return url
}

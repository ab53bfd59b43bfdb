package peopledoc

import (
	"context"
	"io"
)

// IsSessionValid probes the listing endpoint with a one-document page. Any
// 2xx answer means the session is live; any failure means "not logged in".
// It never returns an error.
func (c *Client) IsSessionValid(ctx context.Context) bool {
	body, err := c.Fetch(ctx, c.endpoints.DocumentsURL(1, 1), nil)
	if err != nil {
		c.logger.WithError(err).Info("not logged")
		return false
	}
	_, _ = io.Copy(io.Discard, body)
	body.Close()
	return true
}

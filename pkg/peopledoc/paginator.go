package peopledoc

import (
	"context"
	"fmt"

	"pdharvest/pkg/logger"
)

// ListStatus tells whether a listing walk reached the last page
type ListStatus int

const (
	StatusComplete ListStatus = iota
	StatusPartial
)

func (s ListStatus) String() string {
	if s == StatusPartial {
		return "partial"
	}
	return "complete"
}

// ListResult is the outcome of a listing walk. When Status is StatusPartial,
// Err holds the page failure and Documents holds every earlier page.
type ListResult struct {
	Documents []Document
	Pages     int
	Status    ListStatus
	Err       error
}

// Paginator walks the document listing one page at a time
type Paginator struct {
	client   *Client
	pageSize int
	logger   logger.Logger
}

// NewPaginator creates a paginator; a non-positive pageSize uses DefaultPageSize
func NewPaginator(client *Client, pageSize int, log logger.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Paginator{
		client:   client,
		pageSize: pageSize,
		logger:   log.WithField("component", "paginator"),
	}
}

// ListAll fetches pages 1, 2, 3... for as long as the Link header advertises
// rel="next". A failing page ends the walk with a partial result; it is
// never returned as an error.
func (p *Paginator) ListAll(ctx context.Context) ListResult {
	var result ListResult
	cursor := NewPageCursor()

	for cursor.HasMore {
		var page []Document
		headers, err := p.client.GetJSON(ctx, p.client.Endpoints().DocumentsURL(cursor.Page, p.pageSize), &page)
		if err != nil {
			p.logger.WithError(err).ErrorWithFields("failed to fetch documents page", map[string]interface{}{
				"page":      cursor.Page,
				"documents": len(result.Documents),
			})
			result.Status = StatusPartial
			result.Err = fmt.Errorf("page %d: %w", cursor.Page, err)
			return result
		}

		result.Documents = append(result.Documents, page...)
		result.Pages++

		more := HasNextLink(headers.Get("Link"))
		p.logger.DebugWithFields("fetched documents page", map[string]interface{}{
			"page":     cursor.Page,
			"count":    len(page),
			"has_more": more,
		})
		cursor.Advance(more)
	}

	p.logger.InfoWithFields("document listing complete", map[string]interface{}{
		"pages":     result.Pages,
		"documents": len(result.Documents),
	})
	return result
}

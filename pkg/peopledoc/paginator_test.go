package peopledoc

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdharvest/internal/testutil"
	errs "pdharvest/pkg/errors"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/session"
)

func authenticatedClient(t *testing.T, srv *testutil.PeopleDocServer, log logger.Logger) *Client {
	t.Helper()
	client := newTestClient(t, srv.URL(), log)
	require.NoError(t, client.Restore(&session.Session{
		Username: testUser,
		Cookies:  session.FromHTTPCookies([]*http.Cookie{srv.SessionCookie()}),
	}))
	return client
}

func TestListAllSinglePageWithoutLinkHeader(t *testing.T) {
	srv := newFakeServer(t)
	srv.GenerateDocuments(500)

	result := NewPaginator(authenticatedClient(t, srv, nil), 0, nil).ListAll(context.Background())

	assert.Equal(t, StatusComplete, result.Status)
	assert.NoError(t, result.Err)
	assert.Len(t, result.Documents, 500)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, []int{1}, srv.PageRequests())
	assert.Len(t, MapDocuments(srv.URL(), result.Documents), 500)
}

func TestListAllFollowsNextLinks(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantPages []int
	}{
		{name: "three pages with a partial last page", total: 2250, wantPages: []int{1, 2, 3}},
		{name: "exactly two full pages", total: 2000, wantPages: []int{1, 2}},
		{name: "empty listing", total: 0, wantPages: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t)
			srv.GenerateDocuments(tt.total)

			result := NewPaginator(authenticatedClient(t, srv, nil), DefaultPageSize, nil).ListAll(context.Background())

			assert.Equal(t, StatusComplete, result.Status)
			assert.Equal(t, tt.wantPages, srv.PageRequests())
			require.Len(t, result.Documents, tt.total)
			for i, doc := range result.Documents {
				if !assert.Equal(t, ID(strconv.Itoa(i+1)), doc.ID, "server order preserved") {
					break
				}
			}
		})
	}
}

func TestListAllPartialOnPageFailure(t *testing.T) {
	srv := newFakeServer(t)
	srv.GenerateDocuments(5000)
	srv.FailPage(3, http.StatusInternalServerError)

	tl := logger.NewTestLogger()
	result := NewPaginator(authenticatedClient(t, srv, tl), DefaultPageSize, tl).ListAll(context.Background())

	assert.Equal(t, StatusPartial, result.Status)
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Documents, 2000)
	assert.Equal(t, []int{1, 2, 3}, srv.PageRequests())
	require.Error(t, result.Err)
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(result.Err))
	assert.True(t, tl.HasMessage("failed to fetch documents page"))
}

func TestListAllUnauthenticatedIsPartial(t *testing.T) {
	srv := newFakeServer(t)
	srv.GenerateDocuments(10)

	result := NewPaginator(newTestClient(t, srv.URL(), nil), 0, nil).ListAll(context.Background())

	assert.Equal(t, StatusPartial, result.Status)
	assert.Empty(t, result.Documents)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(result.Err))
}

func TestListAllSmallPages(t *testing.T) {
	srv := newFakeServer(t)
	srv.GenerateDocuments(7)

	result := NewPaginator(authenticatedClient(t, srv, nil), 3, nil).ListAll(context.Background())

	assert.Equal(t, []int{1, 2, 3}, srv.PageRequests())
	assert.Len(t, result.Documents, 7)
	assert.Equal(t, "complete", result.Status.String())
}

func TestPageCursor(t *testing.T) {
	c := NewPageCursor()
	assert.Equal(t, PageCursor{Page: 1, HasMore: true}, c)

	c.Advance(true)
	assert.Equal(t, 2, c.Page)

	c.Advance(false)
	assert.Equal(t, 2, c.Page)
	assert.False(t, c.HasMore)
}

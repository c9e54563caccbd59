package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"secretbox/api"
	"secretbox/pseudonym"
	"secretbox/store"

	"github.com/stretchr/testify/require"
)

// End-to-end: real router, renderer, sanitizer, pseudonyms and store backends.

func backends(t *testing.T) map[string]store.Backend {
	t.Helper()
	b, err := store.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return map[string]store.Backend{
		"memory": store.NewMemory(),
		"badger": b,
	}
}

func newSite(t *testing.T, backend store.Backend) *httptest.Server {
	t.Helper()
	repo := store.NewMessageStore(backend, store.WithValidator(api.NewMessageValidator()))
	srv := httptest.NewServer(api.NewServer(repo, pseudonym.NewSeeded(7, 11), nil, api.Settings{}))
	t.Cleanup(srv.Close)
	return srv
}

func send(t *testing.T, srv *httptest.Server, message string) string {
	t.Helper()
	res, err := http.PostForm(srv.URL+"/send", url.Values{"message": {message}})
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	return readBody(t, res)
}

func archive(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	res, err := http.Get(srv.URL + "/ghost123")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	return readBody(t, res)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	var b bytes.Buffer
	_, err := b.ReadFrom(res.Body)
	require.NoError(t, err)
	return b.String()
}

func TestScriptIsNeutralized(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			srv := newSite(t, backend)
			send(t, srv, "<script>alert(1)</script>")

			body := archive(t, srv)
			require.Contains(t, body, "&lt;script&gt;")
			require.NotContains(t, body, "<script>")
		})
	}
}

func TestArchiveNewestFirst(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			srv := newSite(t, backend)
			req.Contains(archive(t, srv), "No messages yet")

			for _, m := range []string{"first secret", "second secret", "third secret"} {
				page := send(t, srv, m)
				req.Contains(page, "sent anonymously")
			}

			body := archive(t, srv)
			req.NotContains(body, "No messages yet")
			i3 := strings.Index(body, "third secret")
			i2 := strings.Index(body, "second secret")
			i1 := strings.Index(body, "first secret")
			req.True(i3 >= 0 && i3 < i2 && i2 < i1, "expected newest first in %s", body)
		})
	}
}

func TestEmptySubmissionLeavesArchiveEmpty(t *testing.T) {
	srv := newSite(t, store.NewMemory())
	require.Contains(t, send(t, srv, "   "), "nothing sent")
	require.Contains(t, archive(t, srv), "No messages yet")
}

func TestConfirmationShowsPooledSender(t *testing.T) {
	srv := newSite(t, store.NewMemory())
	page := send(t, srv, "hello")
	found := false
	for _, name := range pseudonym.Names() {
		if strings.Contains(page, "<b>"+name+"</b>") {
			found = true
		}
	}
	require.True(t, found, "confirmation should show a pooled pseudonym")
}

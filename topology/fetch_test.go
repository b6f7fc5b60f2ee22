package topology

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

func TestHTTPFetcherSendsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "feeduser", user)
		assert.Equal(t, "feedpass", pass)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "feeduser", "feedpass")
	body, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
}

func TestHTTPFetcherUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "feeduser", "wrong")
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAuthFailed))
	assert.True(t, errors.IsFatal(err))
}

func TestHTTPFetcherFollowsOneRedirectWithoutCredentials(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Signed storage URLs reject requests carrying an Authorization
		// header, so it must be stripped on the hop.
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("dataset"))
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		require.True(t, ok)
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer origin.Close()

	f := NewHTTPFetcher(origin.URL, "feeduser", "feedpass")
	body, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("dataset"), body)
}

func TestHTTPFetcherServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "feeduser", "feedpass")
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

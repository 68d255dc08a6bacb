package navigate

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPNavigatorResolvesAndPrints(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.RequestURI()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	nav, err := NewHTTPNavigator(srv.URL, srv.Client(), &out, nil)
	require.NoError(t, err)

	require.NoError(t, nav.Navigate(context.Background(), "/result/song.pdf?success=true"))
	require.Equal(t, "/result/song.pdf?success=true", <-seen)
	require.Equal(t, srv.URL+"/result/song.pdf?success=true", strings.TrimSpace(out.String()))
}

func TestHTTPNavigatorRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	nav, err := NewHTTPNavigator(srv.URL, srv.Client(), &out, nil)
	require.NoError(t, err)

	err = nav.Navigate(context.Background(), "/result/missing.pdf?success=true")
	require.ErrorContains(t, err, "unexpected status 404")
	require.Empty(t, out.String())
}

func TestNewHTTPNavigatorRequiresAbsoluteBase(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPNavigator("/relative", nil, nil, nil)
	require.Error(t, err)
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	require.NoError(t, rec.Navigate(context.Background(), "/result/a?success=true"))
	rec.Err = errors.New("boom")
	require.EqualError(t, rec.Navigate(context.Background(), "/result/b?success=true"), "boom")
	require.Equal(t, []string{"/result/a?success=true", "/result/b?success=true"}, rec.Targets())

	rec.Close()
	require.ErrorIs(t, rec.Navigate(context.Background(), "/x"), ErrRecorderClosed)
	require.Len(t, rec.Targets(), 2)
}

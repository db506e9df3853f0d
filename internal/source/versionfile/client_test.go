package versionfile_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"smm/internal/source/versionfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMaster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			# served straight from the mod repo
			"modName": "Nexerelin",
			"modVersion": {"major": 0, "minor": 11, "patch": 3},
			"directDownloadURL": "https://example.com/nexerelin-0.11.3.zip"
		}`)
	}))
	t.Cleanup(srv.Close)

	vf, err := versionfile.NewClient(nil).FetchMaster(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Nexerelin", vf.ModName)
	assert.Equal(t, "0.11.3", vf.ModVersion)
	assert.Equal(t, "https://example.com/nexerelin-0.11.3.zip", vf.DirectDownloadURL)
}

func TestFetchMaster_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(srv.Close)

	_, err := versionfile.NewClient(nil).FetchMaster(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected status")
}

func TestFetchMaster_UnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>definitely not a version file</html>")
	}))
	t.Cleanup(srv.Close)

	_, err := versionfile.NewClient(nil).FetchMaster(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchMaster_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := versionfile.NewClient(nil).FetchMaster(ctx, srv.URL)
	assert.Error(t, err)
}

func TestFetchMaster_ConnectionRefused(t *testing.T) {
	_, err := versionfile.NewClient(nil).FetchMaster(context.Background(), "http://127.0.0.1:1/mod.version")
	assert.Error(t, err)
}

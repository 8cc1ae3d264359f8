package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"cinepick/models"
)

func TestServiceListUsesCache(t *testing.T) {
	var calls int32
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, `{"page":1,"total_pages":1,"results":[{"id":1,"name":"Dark","vote_average":8.4}]}`), nil
	})
	svc := NewService(client, NewFileCache(afero.NewMemMapFs(), "/cache", time.Hour))

	for i := 0; i < 3; i++ {
		page, err := svc.List(context.Background(), models.MediaTypeTV, "trending", 1)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(page.Results) != 1 || page.Results[0].Title != "Dark" {
			t.Fatalf("unexpected page: %+v", page)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}

	if err := svc.ClearCache(); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, err := svc.List(context.Background(), models.MediaTypeTV, "trending", 1); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected refetch after clear, got %d calls", got)
	}
}

func TestServiceTitleToleratesProviderFailure(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/watch/providers") {
			return jsonResponse(http.StatusBadRequest, `{"status_message":"nope"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"id":27205,"title":"Inception","runtime":148,"vote_average":8.4}`), nil
	})
	svc := NewService(client, nil)

	item, err := svc.Title(context.Background(), models.MediaTypeMovie, 27205)
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if item.RuntimeMinutes != 148 || item.WatchProviders != nil {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestServiceTitleNotFound(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})
	_, err := NewService(client, nil).Title(context.Background(), models.MediaTypeTV, 1)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenreHelpers(t *testing.T) {
	if MovieGenreFor(models.MediaTypeMovie, 10768) != 10752 {
		t.Fatal("War & Politics should map to War for movies")
	}
	if MovieGenreFor(models.MediaTypeTV, 10768) != 10768 {
		t.Fatal("TV genres are not remapped for TV")
	}
	if GenreName(models.MediaTypeTV, 10765) != "Sci-Fi & Fantasy" {
		t.Fatal("unexpected TV genre name")
	}
	if GenreName(models.MediaTypeMovie, 424242) != "Category" {
		t.Fatal("unknown genres fall back to Category")
	}
}

func TestServiceRejectsUnknownMediaType(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request %s", req.URL)
		return nil, nil
	})
	_, err := NewService(client, nil).Title(context.Background(), models.MediaType("podcast"), 1)
	if !IsInvalid(err) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestProviderDirectorySorted(t *testing.T) {
	dir := ProviderDirectory()
	if len(dir) != len(DefaultProviderNames) {
		t.Fatalf("expected %d providers, got %d", len(DefaultProviderNames), len(dir))
	}
	for i := 1; i < len(dir); i++ {
		if dir[i-1].ID >= dir[i].ID {
			t.Fatalf("providers not sorted at %d: %d >= %d", i, dir[i-1].ID, dir[i].ID)
		}
	}
	for _, p := range dir {
		if p.ID == 8 && p.URL != "https://www.netflix.com" {
			t.Fatalf("netflix link = %q", p.URL)
		}
	}
}

func TestServiceCoalescesConcurrentMisses(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return jsonResponse(http.StatusOK, `{"page":1,"total_pages":1,"results":[{"id":1,"title":"Heat","vote_average":8.3}]}`), nil
	})
	svc := NewService(client, nil)

	const callers = 4
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := svc.List(context.Background(), models.MediaTypeMovie, "popular", 1)
			errs <- err
		}()
	}
	// Let the callers pile up behind the first upstream request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("List: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}

func TestServiceSharedFetchOutlivesCancelledCaller(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return jsonResponse(http.StatusOK, `{"page":1,"total_pages":1,"results":[{"id":2,"name":"Severance","vote_average":8.4}]}`), nil
	})
	svc := NewService(client, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.List(first, models.MediaTypeTV, "trending", 1)
		firstErr <- err
	}()
	<-started

	second := make(chan *models.SearchPage, 1)
	secondErr := make(chan error, 1)
	go func() {
		page, err := svc.List(context.Background(), models.MediaTypeTV, "trending", 1)
		second <- page
		secondErr <- err
	}()
	// Let the second caller join the in-flight request.
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled for the cancelled caller, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	page := <-second
	if err := <-secondErr; err != nil {
		t.Fatalf("second caller should share the fetch, got %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].Title != "Severance" {
		t.Fatalf("unexpected page %+v", page)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}

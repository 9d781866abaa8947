package crossref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestWork_ParsesTitleAndIssuedYear(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10.1038/nature14539" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"message":{"title":["Deep learning"],"issued":{"date-parts":[[2015,5,28]]}}}`))
	})

	work, err := client.Work(context.Background(), "10.1038/nature14539")
	if err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if work.Title != "Deep learning" {
		t.Errorf("Title = %q, want %q", work.Title, "Deep learning")
	}
	if work.Year != 2015 {
		t.Errorf("Year = %d, want 2015", work.Year)
	}
	if work.DOI != "10.1038/nature14539" {
		t.Errorf("DOI = %q, want the requested DOI", work.DOI)
	}
}

func TestWork_DateFieldPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{
			"issued wins over the rest",
			`{"message":{"title":["T"],"issued":{"date-parts":[[2001]]},"created":{"date-parts":[[2003]]}}}`,
			2001,
		},
		{
			"published-print when issued empty",
			`{"message":{"title":["T"],"issued":{"date-parts":[[]]},"published-print":{"date-parts":[[2002,1]]}}}`,
			2002,
		},
		{
			"created as last resort",
			`{"message":{"title":["T"],"created":{"date-parts":[[2003,7,1]]}}}`,
			2003,
		},
		{
			"no date at all",
			`{"message":{"title":["T"]}}`,
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			work, err := client.Work(context.Background(), "10.1000/demo")
			if err != nil {
				t.Fatalf("Work() error = %v", err)
			}
			if work.Year != tt.want {
				t.Errorf("Year = %d, want %d", work.Year, tt.want)
			}
		})
	}
}

func TestWork_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		label  string
	}{
		{http.StatusNotFound, IsNotFound, "IsNotFound"},
		{http.StatusTooManyRequests, IsRateLimited, "IsRateLimited"},
		{http.StatusInternalServerError, IsUnavailable, "IsUnavailable"},
	}

	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := client.Work(context.Background(), "10.1000/demo")
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if !tt.check(err) {
			t.Errorf("status %d: %s(%v) = false, want true", tt.status, tt.label, err)
		}
	}
}

func TestWork_MalformedBodyIsInvalidResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.Work(context.Background(), "10.1000/demo")
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestWork_EmptyRecordIsInvalidResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{}}`))
	})

	_, err := client.Work(context.Background(), "10.1000/demo")
	if err == nil {
		t.Fatal("expected error for a record with neither title nor year")
	}
}

func TestWork_UserAgentCarriesMailto(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"message":{"title":["T"]}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithMailto("lab@example.org"), WithRateLimit(1000))
	if _, err := client.Work(context.Background(), "10.1000/demo"); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if !strings.Contains(gotUA, "mailto:lab@example.org") {
		t.Errorf("User-Agent %q missing mailto", gotUA)
	}
	if !strings.Contains(gotUA, "retitle") {
		t.Errorf("User-Agent %q missing product token", gotUA)
	}
}

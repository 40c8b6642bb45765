// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/deep-research/internal/ratelimit"
	"github.com/pdiddy/deep-research/pkg/types"
)

func TestFetchExtractsReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Solar Power Report</title>
			<script>tracking();</script><style>p{}</style></head>
			<body>
			<nav>Home About Contact</nav>
			<header>Site Banner</header>
			<p>Solar capacity grew   42% in 2025.</p>
			<aside>Subscribe now!</aside>
			<footer>Copyright notice</footer>
			</body></html>`)
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client(), Config: types.FetchConfig{}}
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if page.Title != "Solar Power Report" {
		t.Errorf("title = %q", page.Title)
	}
	if !strings.Contains(page.Text, "Solar capacity grew 42% in 2025.") {
		t.Errorf("text missing body content: %q", page.Text)
	}
	for _, boilerplate := range []string{"tracking();", "Home About", "Subscribe", "Copyright notice", "Site Banner"} {
		if strings.Contains(page.Text, boilerplate) {
			t.Errorf("text contains boilerplate %q", boilerplate)
		}
	}
	if page.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetchCapsContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", strings.Repeat("word ", 1000))
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client(), Config: types.FetchConfig{MaxContentLength: 100}}
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(page.Text) != 100 {
		t.Errorf("text length = %d, want capped at 100", len(page.Text))
	}
}

// meteredBody serves a fixed volume of text and records how much was read.
type meteredBody struct {
	left int
	read int
}

func (b *meteredBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		return 0, io.EOF
	}
	if len(p) > b.left {
		p = p[:b.left]
	}
	for i := range p {
		p[i] = 'a'
	}
	b.left -= len(p)
	b.read += len(p)
	return len(p), nil
}

func (b *meteredBody) Close() error { return nil }

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestFetchBoundsBodyRead(t *testing.T) {
	// The body offers a megabyte; the fetcher must stop reading at its bound
	// instead of buffering the whole page.
	body := &meteredBody{left: 1 << 20}
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: body}, nil
	})}

	f := &HTTPFetcher{Client: client, Config: types.FetchConfig{MaxContentLength: 100}}
	page, err := f.Fetch(context.Background(), "https://big.example/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(page.Text) != 100 {
		t.Errorf("text length = %d, want capped at 100", len(page.Text))
	}
	if body.read > 100*maxHTMLOverhead {
		t.Errorf("read %d body bytes, want at most %d", body.read, 100*maxHTMLOverhead)
	}
}

func TestFetchNotFoundIsContentUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client()}
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrContentUnavailable) {
		t.Errorf("err = %v, want ErrContentUnavailable", err)
	}
}

func TestFetchEmptyPageIsContentUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script>only();</script></head><body></body></html>`)
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client()}
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrContentUnavailable) {
		t.Errorf("err = %v, want ErrContentUnavailable", err)
	}
}

func TestFetchRespectsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>hi</p></body></html>")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &HTTPFetcher{Client: srv.Client(), Budget: ratelimit.New(1, 0)}
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

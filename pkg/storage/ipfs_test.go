package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
)

func rawCID(t *testing.T, data []byte) cid.Cid {
	t.Helper()
	c, err := cid.Prefix{Version: 1, Codec: cid.Raw, MhType: 0x12, MhLength: -1}.Sum(data)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	return c
}

// kuboServer emulates the /api/v0/cat and /api/v0/add endpoints.
func kuboServer(t *testing.T, content map[string][]byte, addHash string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v0/cat":
			b, ok := content[r.URL.Query().Get("arg")]
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"Message":"block not found","Code":0,"Type":"error"}`))
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write(b)
		case "/api/v0/add":
			if r.URL.Query().Get("cid-version") != "1" {
				t.Errorf("add without cid-version=1: %s", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"Name":"","Hash":%q,"Size":"12"}`, addHash)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestIPFSNode_FetchVerifiesRawCID(t *testing.T) {
	good := []byte(`{"id":"a"}`)
	goodCID := rawCID(t, good)
	tampered := rawCID(t, []byte("original"))

	srv := kuboServer(t, map[string][]byte{
		goodCID.String():  good,
		tampered.String(): []byte("tampered"),
	}, "")
	defer srv.Close()

	node, err := NewIPFSNode(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewIPFSNode: %v", err)
	}
	ctx := context.Background()

	got, err := node.Fetch(ctx, goodCID.String())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != string(good) {
		t.Fatalf("content = %q", got)
	}

	if _, err := node.Fetch(ctx, tampered.String()); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
	if _, err := node.Fetch(ctx, "not-a-cid"); !errors.Is(err, ErrInvalidCID) {
		t.Fatalf("expected ErrInvalidCID, got %v", err)
	}
	if _, err := node.Fetch(ctx, rawCID(t, []byte("missing")).String()); err == nil {
		t.Fatalf("expected error for missing block")
	}
}

func TestIPFSNode_Upload(t *testing.T) {
	want := rawCID(t, []byte("doc"))
	srv := kuboServer(t, nil, want.String())
	defer srv.Close()

	c, err := NewClient(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	uri, err := c.UploadJSON(context.Background(), map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uri != IpfsPrefix+want.String() {
		t.Fatalf("uri = %q", uri)
	}
}

func TestIPFSNode_UploadRejectsBadHash(t *testing.T) {
	srv := kuboServer(t, nil, "garbage!")
	defer srv.Close()

	node, err := NewIPFSNode(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewIPFSNode: %v", err)
	}
	if _, err := node.Upload(context.Background(), []byte("x")); !errors.Is(err, ErrInvalidCID) {
		t.Fatalf("expected ErrInvalidCID, got %v", err)
	}
}

func TestLighthouse_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload:" + strings.TrimPrefix(r.URL.Path, "/ipfs/")))
	}))
	defer srv.Close()

	lh := NewLighthouse(srv.URL+"/ipfs/", nil)
	got, err := lh.Fetch(context.Background(), "QmX")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != "payload:QmX" {
		t.Fatalf("content = %q", got)
	}
	if _, err := lh.Fetch(context.Background(), "missing"); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestLighthouse_ContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := NewLighthouse(srv.URL+"/", nil).Fetch(ctx, "QmX"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

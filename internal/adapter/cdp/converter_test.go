package cdp

import (
	"net/url"
	"testing"

	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"

	"appscheme/pkg/traffic"
)

func TestToNeutralRequest(t *testing.T) {
	body := "a=1"
	ev := &fetch.RequestPausedReply{
		RequestID: "interception-1",
		Request: network.Request{
			URL:      "https://app.local/fileProxy/index.html",
			Method:   "POST",
			Headers:  network.Headers(`{"Accept":"text/html","X-Trace":"abc"}`),
			PostData: &body,
		},
	}
	req := ToNeutralRequest(ev)
	if req.URL != ev.Request.URL || req.Method != "POST" {
		t.Fatalf("request = %+v", req)
	}
	if req.Headers.Get("accept") != "text/html" || req.Headers.Get("x-trace") != "abc" {
		t.Fatalf("headers = %v", req.Headers)
	}
	if string(req.Body) != body {
		t.Fatalf("body = %q", req.Body)
	}
}

func TestToNeutralRequestWithoutHeaders(t *testing.T) {
	req := ToNeutralRequest(&fetch.RequestPausedReply{Request: network.Request{URL: "https://app.local/x"}})
	if req.Method != "GET" || len(req.Headers) != 0 || req.Body != nil {
		t.Fatalf("request = %+v", req)
	}
}

func TestToHeaderEntries(t *testing.T) {
	h := traffic.Header{}
	h.Set("Content-Type", "text/css")
	h.Set("ETag", `"v1"`)
	entries := ToHeaderEntries(h)
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].Name != "content-type" || entries[0].Value != "text/css" || entries[1].Name != "etag" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestToSchemeURL(t *testing.T) {
	origin, _ := url.Parse("https://app.local")
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"https://app.local/fileProxy/index.html#top", "wmfapp://app/fileProxy/index.html", true},
		{"https://APP.local/articleSectionData?articleKey=k&imageWidth=3", "wmfapp://app/articleSectionData?articleKey=k&imageWidth=3", true},
		{"https://other.local/fileProxy/index.html", "", false},
		{"http://app.local/fileProxy/index.html", "", false},
		{"://bad", "", false},
	}
	for _, tt := range tests {
		got, ok := ToSchemeURL(tt.raw, origin, "wmfapp", "app")
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToSchemeURL(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

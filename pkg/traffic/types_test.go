package traffic

import "testing"

func TestHeaderCaseInsensitive(t *testing.T) {
	h := make(Header)
	h.Set("Content-Type", "text/css")

	if got := h.Get("content-type"); got != "text/css" {
		t.Fatalf("Get() = %q, want text/css", got)
	}
	if !h.Has("CONTENT-TYPE") {
		t.Fatal("Has() = false, want true")
	}
	if h.SetIfAbsent("content-TYPE", "text/html") {
		t.Fatal("SetIfAbsent() overwrote an existing header")
	}
	if got := h.Get("Content-Type"); got != "text/css" {
		t.Fatalf("Get() after SetIfAbsent = %q, want text/css", got)
	}
	h.Del("Content-Type")
	if h.Has("content-type") {
		t.Fatal("Del() did not remove header")
	}
}

func TestRequestCloneIsDeep(t *testing.T) {
	req := NewRequest("", "https://example.org/a")
	req.Headers.Set("Accept", "*/*")
	req.Body = []byte("x")

	clone := req.Clone()
	clone.Headers.Set("Accept", "text/html")
	clone.Body[0] = 'y'

	if req.Headers.Get("accept") != "*/*" {
		t.Fatal("clone shares headers with original")
	}
	if string(req.Body) != "x" {
		t.Fatal("clone shares body with original")
	}
	if req.Method != "GET" {
		t.Fatalf("default method = %q, want GET", req.Method)
	}
}

func TestResponseIsSuccess(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{304, false},
		{404, false},
		{500, false},
	}
	for _, tt := range tests {
		if got := NewResponse("", tt.status).IsSuccess(); got != tt.want {
			t.Errorf("IsSuccess(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

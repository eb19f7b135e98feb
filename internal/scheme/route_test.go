package scheme

import (
	"testing"
	"testing/fstest"

	"appscheme/internal/article"
)

func TestRouterPartition(t *testing.T) {
	origin := Origin{Scheme: "wmfapp", Host: "app"}
	files := NewFileHandler(origin, fstest.MapFS{}, NewResponseCache(0))
	api := NewAPIHandler(origin)
	section := NewSectionHandler(origin, article.NewMemoryStore())
	def := NewDefaultHandler(origin)
	r := NewRouter(def, files, api, section)

	tests := []struct {
		path string
		want Handler
	}{
		{"/fileProxy/index.html", files},
		{"/fileProxy", files},
		{"/APIProxy/example.org/a/b", api},
		{"/articleSectionData", section},
		{"/wiki/Go", def},
		{"/fileproxy/index.html", def},
		{"/", def},
		{"/api/rest_v1/fileProxy", def},
	}
	for _, tt := range tests {
		if got := r.Route(PathComponents(tt.path)); got != tt.want {
			t.Errorf("Route(%q) = %T, want %T", tt.path, got, tt.want)
		}
	}
}

func TestPathComponents(t *testing.T) {
	got := PathComponents("/fileProxy//a/./b/")
	want := []string{"fileProxy", "a", ".", "b"}
	if len(got) != len(want) {
		t.Fatalf("PathComponents() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PathComponents() = %v, want %v", got, want)
		}
	}
	if n := len(PathComponents("/")); n != 0 {
		t.Fatalf("PathComponents(/) len = %d, want 0", n)
	}
}

package exporter

import (
	"strings"
	"testing"
)

// jsFunction returns the body of a top-level runtime function, up to the
// closing brace at its indentation.
func jsFunction(t *testing.T, src, name string) string {
	t.Helper()
	head := "    function " + name + "("
	start := strings.Index(src, head)
	if start < 0 {
		t.Fatalf("app.js has no function %s", name)
	}
	end := strings.Index(src[start:], "\n    }\n")
	if end < 0 {
		t.Fatalf("function %s is not closed", name)
	}
	return src[start : start+end]
}

func appJS(t *testing.T) string {
	t.Helper()
	data, err := runtimeFS.ReadFile("runtime/app.js")
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRuntimeDetachesEveryBoundVideoHandler(t *testing.T) {
	src := appJS(t)
	bind := jsFunction(t, src, "bindVideo")
	unbind := jsFunction(t, src, "unbindVideo")

	handlers := map[string]string{
		"play":  "onVideoPlay",
		"pause": "onVideoPause",
		"ended": "onVideoEnded",
	}
	for event, fn := range handlers {
		add := "addEventListener('" + event + "', " + fn + ")"
		remove := "removeEventListener('" + event + "', " + fn + ")"
		if !strings.Contains(bind, add) {
			t.Errorf("bindVideo does not attach %s", add)
		}
		if !strings.Contains(unbind, remove) {
			t.Errorf("unbindVideo does not detach %s", remove)
		}
	}
	if got := strings.Count(bind, "addEventListener("); got != len(handlers) {
		t.Errorf("bindVideo attaches %d handlers, want %d", got, len(handlers))
	}

	// The outgoing page is unbound before the incoming one binds.
	show := jsFunction(t, src, "show")
	u, b := strings.Index(show, "unbindVideo()"), strings.Index(show, "bindVideo(built.video)")
	if u < 0 || b < 0 || u > b {
		t.Errorf("show must unbind before binding (unbind at %d, bind at %d)", u, b)
	}
}

func TestRuntimeLoopsPagesWaitingForVideoEnd(t *testing.T) {
	src := appJS(t)
	build := jsFunction(t, src, "buildPage")
	if !strings.Contains(build, "video.loop = vs.loop !== false && !waits") {
		t.Error("a page waiting for the video end must not loop natively")
	}

	ended := jsFunction(t, src, "onVideoEnded")
	for _, want := range []string{"classList.remove('waiting')", "video.dataset.loop === 'true'", "video.play()"} {
		if !strings.Contains(ended, want) {
			t.Errorf("onVideoEnded lacks %q", want)
		}
	}
}

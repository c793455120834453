package chrome

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/videogate/videogate/internal/dom"
	"github.com/videogate/videogate/internal/player"
)

const (
	bindingName = "__videogateNotify"

	kindMutation = "mutation"
	kindPlay     = "play"
)

// bindingEvent is what the page observer reports through the binding.
type bindingEvent struct {
	Kind   string `json:"kind"`
	Handle string `json:"handle,omitempty"`
}

func parseBindingEvent(payload string) (bindingEvent, error) {
	var ev bindingEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return bindingEvent{}, fmt.Errorf("decode binding payload: %w", err)
	}
	switch ev.Kind {
	case kindMutation:
	case kindPlay:
		if ev.Handle == "" {
			return bindingEvent{}, fmt.Errorf("play event without a video handle")
		}
	default:
		return bindingEvent{}, fmt.Errorf("unknown binding event %q", ev.Kind)
	}
	return ev, nil
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// observerScript runs in every new document. It stamps each video element
// with a stable handle, reports play events per handle and reports DOM
// mutations at most once per task.
func observerScript() string {
	return fmt.Sprintf(`(() => {
  if (window.__videogateObserver) return;
  const notify = (ev) => { try { window[%[1]s](JSON.stringify(ev)); } catch (e) {} };
  let next = 0;
  const tag = (v) => {
    if (v.hasAttribute(%[2]s)) return;
    const handle = String(++next);
    v.setAttribute(%[2]s, handle);
    for (const type of ["play", "playing"]) {
      v.addEventListener(type, () => notify({kind: %[3]s, handle}), true);
    }
  };
  let queued = false;
  const observer = new MutationObserver(() => {
    document.querySelectorAll("video").forEach(tag);
    if (queued) return;
    queued = true;
    setTimeout(() => { queued = false; notify({kind: %[4]s}); }, 0);
  });
  const start = () => observer.observe(document.documentElement, {childList: true, subtree: true, characterData: true});
  if (document.documentElement) start(); else document.addEventListener("DOMContentLoaded", start);
  window.__videogateObserver = observer;
})()`, jsString(bindingName), jsString(dom.HandleAttr), jsString(kindPlay), jsString(kindMutation))
}

func videoSelector(handle string) string {
	return fmt.Sprintf(`video[%s=%s]`, dom.HandleAttr, jsString(handle))
}

// pauseScript pauses the tagged video and evaluates to whether it was found.
func pauseScript(handle string) string {
	return fmt.Sprintf(`(() => {
  const v = document.querySelector(%s);
  if (!v) return false;
  v.pause();
  return true;
})()`, jsString(videoSelector(handle)))
}

// commandScript invokes cmd on the page's player control in the page's own
// context and evaluates to whether the control was found and invoked.
func commandScript(cmd player.Command) string {
	return fmt.Sprintf(`(() => {
  const p = document.querySelector("#movie_player");
  if (!p || typeof p[%[1]s] !== "function") return false;
  try { p[%[1]s](); return true; } catch (e) { return false; }
})()`, jsString(string(cmd)))
}

package fingerprint

import (
	"github.com/bmatcuk/doublestar/v4"
)

// CleanFrames applies the configured frame filter and frame cap to a raw
// call stack. A custom filter that panics or returns nil is absorbed with a
// warning and the original frames are used instead; filter failures never
// abort a detection. The result is deterministic for fixed inputs and
// configuration.
func (h *Hasher) CleanFrames(frames []string) []string {
	if len(frames) == 0 {
		return nil
	}

	cleaned := h.filterFrames(frames)

	if limit := h.cfg.MaxLocationFrames; limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}

	return cleaned
}

func (h *Hasher) filterFrames(frames []string) []string {
	if h.cfg.LocationFilter != nil {
		filtered, ok := h.runCustomFilter(frames)
		if !ok {
			return frames
		}
		return filtered
	}

	if len(h.cfg.IgnoreFrames) == 0 {
		return frames
	}

	kept := make([]string, 0, len(frames))
	for _, frame := range frames {
		if !h.frameIgnored(frame) {
			kept = append(kept, frame)
		}
	}
	return kept
}

// runCustomFilter invokes the user-supplied filter, recovering panics.
// ok is false when the filter misbehaved and the caller should fall back to
// the unfiltered frames.
func (h *Hasher) runCustomFilter(frames []string) (result []string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn().Any("panic", r).Msg("location filter panicked, using unfiltered frames")
			result, ok = nil, false
		}
	}()

	filtered := h.cfg.LocationFilter(frames)
	if filtered == nil {
		h.log.Warn().Msg("location filter returned nil, using unfiltered frames")
		return nil, false
	}

	return filtered, true
}

// frameIgnored reports whether any configured ignore pattern matches the
// frame. Patterns are validated at config load, so match errors cannot occur.
func (h *Hasher) frameIgnored(frame string) bool {
	for _, pattern := range h.cfg.IgnoreFrames {
		if matched, _ := doublestar.Match(pattern, frame); matched {
			return true
		}
	}
	return false
}

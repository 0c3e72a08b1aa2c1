// Package fingerprint derives stable short identities for detected N+1
// occurrences from noisy query text, call stacks, and test identities.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/nplusone/internal/core/config"
	"github.com/colonyops/nplusone/internal/core/sqlnorm"
	"github.com/colonyops/nplusone/pkg/kv"
)

// FrameSeparator joins call-stack frames into one display string.
const FrameSeparator = " -> "

// Length is the number of hex characters kept from the digest. 64 bits of
// entropy; collisions across one project's query set are accepted.
const Length = 16

var trailingLine = regexp.MustCompile(`:\d+$`)

// NormalizeTestLocation strips a trailing :<line-number> suffix so every
// observation from one test file shares a single identity.
func NormalizeTestLocation(loc string) string {
	if loc == "" {
		return ""
	}
	return trailingLine.ReplaceAllString(loc, "")
}

// JoinFrames renders cleaned frames as a single location string.
func JoinFrames(frames []string) string {
	return strings.Join(frames, FrameSeparator)
}

// Hasher computes fingerprints under one configuration. Fingerprints are
// stable for a fixed configuration; changing the frame limit or the location
// filter changes fingerprints for stacks the limit or filter affects.
type Hasher struct {
	cfg   *config.Config
	log   zerolog.Logger
	cache *kv.Store[string, string]
}

// NewHasher creates a Hasher bound to the given configuration.
func NewHasher(cfg *config.Config, log zerolog.Logger) *Hasher {
	return &Hasher{
		cfg:   cfg,
		log:   log,
		cache: kv.New[string, string](),
	}
}

// Fingerprint returns the 16-hex-character identity of one occurrence.
// The call stack and test location are optional; empty inputs contribute
// empty canonical components.
func (h *Hasher) Fingerprint(query string, callStack []string, testLocation string) string {
	content := h.canonical(query, callStack, testLocation)

	return h.cache.GetOrCompute(content, func() string {
		sum := sha256.Sum256([]byte(content))
		return hex.EncodeToString(sum[:])[:Length]
	})
}

// Location renders the cleaned call stack as the display string stored in
// entry location records.
func (h *Hasher) Location(callStack []string) string {
	return JoinFrames(h.CleanFrames(callStack))
}

// canonical composes the hashed content from the normalized query, the
// cleaned joined stack, and the normalized test location.
func (h *Hasher) canonical(query string, callStack []string, testLocation string) string {
	parts := []string{
		sqlnorm.Normalize(query),
		JoinFrames(h.CleanFrames(callStack)),
		NormalizeTestLocation(testLocation),
	}
	return strings.Join(parts, "\n")
}

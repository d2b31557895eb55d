// Package cache provides the analysis result cache backends.
//
// Two implementations satisfy domain.AnalysisCache: an in-process map for
// single-instance deployments and a Redis-backed store for shared state.
// Both perform a lazy expiry check on read, so correctness never depends on
// the periodic sweep having run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/careerbuddy/careerbuddy/internal/domain"
	"github.com/careerbuddy/careerbuddy/pkg/textx"
)

// keyPrefixLen bounds how much of the subject text participates in the
// fingerprint. Truncation risks false-negative misses, never collisions
// between logically different requests, which is the safe failure direction.
const keyPrefixLen = 400

// Key derives the deterministic fingerprint for a request. Fields are joined
// with NUL separators so adjacent fields cannot collide.
func Key(req domain.AnalysisRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Mode))
	h.Write([]byte{0})
	h.Write([]byte(textx.SanitizeText(req.JobTitle)))
	h.Write([]byte{0})
	h.Write([]byte(textx.Truncate(textx.SanitizeText(req.JobDescription), keyPrefixLen)))
	return hex.EncodeToString(h.Sum(nil))
}

package source

import (
	"errors"
	"fmt"
	"strings"
)

// BlockedError signals anti-bot detection or an access revocation on a
// source. It propagates out of the lookup so the operator sees which
// source needs review; the orchestrator records it and moves on without
// aborting the batch.
type BlockedError struct {
	Source string
	Status int
	Detail string
}

func (e *BlockedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("source %s blocked (status %d): %s", e.Source, e.Status, e.Detail)
	}
	return fmt.Sprintf("source %s blocked (status %d)", e.Source, e.Status)
}

// IsBlocked reports whether err wraps a BlockedError.
func IsBlocked(err error) bool {
	var be *BlockedError
	return errors.As(err, &be)
}

// challengeSignatures are markers of anti-bot challenge pages.
var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"cloudflare",
	"attention required",
	"captcha",
}

// LooksBlocked reports whether a short response body reads like a
// challenge page rather than content.
func LooksBlocked(body string) bool {
	if len(body) >= 1000 {
		return false
	}
	lower := strings.ToLower(body)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

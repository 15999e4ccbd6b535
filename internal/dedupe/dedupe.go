package dedupe

// Package dedupe provides shared singleflight groups used to deduplicate
// concurrent generation requests. Using a centralized singleflight.Group
// ensures that only one generation job runs for a given key while other
// callers wait for the result.

import "golang.org/x/sync/singleflight"

// FingerprintGroup deduplicates visual fingerprint extraction requests keyed
// by character ID, so two rooms readying the same character do not both hit
// the vision model.
var FingerprintGroup singleflight.Group

package policy

import "lexhub/gatekeeper/pkg/adminconfig"

// Hash computes a deterministic, non-negative bucket value for a string.
//
// It is the classic rolling hash (h = h*31 + char) wrapped to the 32-bit
// signed range with the absolute value taken. It is a pure function: the
// same input yields the same value across calls and process restarts,
// which is what makes rollout and A/B bucketing stable per user.
//
// It is not cryptographic and must never back a security decision;
// uniformity across inputs is its only job.
func Hash(s string) int {
	var h int32
	for _, r := range s {
		h = h*31 + r
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}

// pickVariant selects an A/B variant by walking cumulative weights until
// one exceeds the bucket value. The bucket is expected to be in
// [0, TotalWeight); if the walk somehow runs off the end, the first
// variant is returned so selection always terminates.
func pickVariant(bucket int, test *adminconfig.CompiledABTest) adminconfig.Variant {
	cumulative := 0
	for _, v := range test.Variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v
		}
	}
	return test.Variants[0]
}

// flagEnabledFor reports whether a feature flag is active for the given
// user on the given path. A 100% rollout is always active without
// consulting the hash; otherwise the user's bucket in [0,100) must fall
// under the rollout percentage. The decision is deterministic per
// (user, flag) pair, so a user never flaps in and out of a flag while the
// config is unchanged.
func flagEnabledFor(flag *adminconfig.CompiledFlag, userID, path string) bool {
	if !flag.MatchesTarget(path) {
		return false
	}
	if flag.Rollout >= 100 {
		return true
	}
	return Hash(userID+flag.Key)%100 < flag.Rollout
}

package adminconfig

import (
	"fmt"
	"regexp"
	"strings"
)

// PathMatcher matches request paths against a single target entry.
// Entries are classified once at config load time as either a plain prefix
// or a compiled regular expression, so no pattern is compiled per request
// and a malformed admin-supplied pattern rejects the config up front
// instead of failing mid-request.
type PathMatcher struct {
	prefix string
	re     *regexp.Regexp
}

// regexMeta are the characters that mark a target entry as a regular
// expression rather than a plain prefix. "." is deliberately excluded so
// ordinary paths containing file extensions stay prefix matches.
const regexMeta = `*?+|()[]{}^$\`

// compileMatcher classifies and compiles a single target entry.
func compileMatcher(entry string) (PathMatcher, error) {
	if entry == "" {
		return PathMatcher{}, fmt.Errorf("target path must not be empty")
	}
	if !strings.ContainsAny(entry, regexMeta) {
		return PathMatcher{prefix: entry}, nil
	}
	re, err := regexp.Compile(entry)
	if err != nil {
		return PathMatcher{}, fmt.Errorf("invalid target pattern %q: %w", entry, err)
	}
	return PathMatcher{re: re}, nil
}

// Matches reports whether the request path matches this entry.
func (m PathMatcher) Matches(path string) bool {
	if m.re != nil {
		return m.re.MatchString(path)
	}
	return strings.HasPrefix(path, m.prefix)
}

// IsRegex reports whether the entry was classified as a regular expression.
func (m PathMatcher) IsRegex() bool { return m.re != nil }

// matchesAny reports whether the path matches any of the given matchers.
// An empty matcher list matches every path.
func matchesAny(matchers []PathMatcher, path string) bool {
	if len(matchers) == 0 {
		return true
	}
	for _, m := range matchers {
		if m.Matches(path) {
			return true
		}
	}
	return false
}

// Compiled is the load-time compiled form of a Config. Disabled rules are
// dropped, target patterns are pre-compiled, and A/B variant weights are
// pre-summed. The evaluator only ever sees a Compiled config.
type Compiled struct {
	// Source is the raw config this was compiled from.
	Source *Config

	Redirects     []CompiledRedirect
	FeatureFlags  []CompiledFlag
	Maintenance   Maintenance
	AccessControl []CompiledAccessRule
	ABTests       []CompiledABTest
}

// CompiledRedirect is an enabled redirect rule.
type CompiledRedirect struct {
	Source      string
	Destination string
	Permanent   bool
}

// CompiledFlag is an enabled feature flag with compiled targets.
type CompiledFlag struct {
	Key     string
	Rollout int
	Targets []PathMatcher
}

// CompiledAccessRule is an enabled access-control rule.
type CompiledAccessRule struct {
	Path         string
	RequiredRole string
}

// CompiledABTest is an enabled A/B test with compiled targets and a
// validated positive total weight.
type CompiledABTest struct {
	Key         string
	Variants    []Variant
	TotalWeight int
	Targets     []PathMatcher
}

// MatchesTarget reports whether the test applies to the given path.
func (t *CompiledABTest) MatchesTarget(path string) bool {
	return matchesAny(t.Targets, path)
}

// MatchesTarget reports whether the flag applies to the given path.
func (f *CompiledFlag) MatchesTarget(path string) bool {
	return matchesAny(f.Targets, path)
}

// Compile validates a Config and produces its Compiled form.
//
// Compile is strict: a malformed config (bad pattern, rollout percentage
// outside [0,100], non-positive variant weight, empty or zero-weight
// variant list) is rejected as a whole. Callers treat a compile failure
// like a fetch failure and keep serving the last known good config.
func Compile(cfg *Config) (*Compiled, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	out := &Compiled{
		Source:      cfg,
		Maintenance: cfg.Maintenance,
	}

	for _, r := range cfg.Redirects {
		if !r.Enabled {
			continue
		}
		if r.Source == "" || r.Destination == "" {
			return nil, fmt.Errorf("redirect %q -> %q: source and destination must be set", r.Source, r.Destination)
		}
		out.Redirects = append(out.Redirects, CompiledRedirect{
			Source:      r.Source,
			Destination: r.Destination,
			Permanent:   r.Permanent,
		})
	}

	for _, f := range cfg.FeatureFlags {
		if !f.Enabled {
			continue
		}
		if f.Key == "" {
			return nil, fmt.Errorf("feature flag with empty key")
		}
		if f.RolloutPercentage < 0 || f.RolloutPercentage > 100 {
			return nil, fmt.Errorf("feature flag %q: rollout percentage %d outside [0,100]", f.Key, f.RolloutPercentage)
		}
		targets, err := compileTargets(f.TargetPaths)
		if err != nil {
			return nil, fmt.Errorf("feature flag %q: %w", f.Key, err)
		}
		out.FeatureFlags = append(out.FeatureFlags, CompiledFlag{
			Key:     f.Key,
			Rollout: f.RolloutPercentage,
			Targets: targets,
		})
	}

	for _, a := range cfg.AccessControl {
		if !a.Enabled {
			continue
		}
		if a.Path == "" || a.RequiredRole == "" {
			return nil, fmt.Errorf("access rule for %q: path and required role must be set", a.Path)
		}
		out.AccessControl = append(out.AccessControl, CompiledAccessRule{
			Path:         a.Path,
			RequiredRole: a.RequiredRole,
		})
	}

	for _, t := range cfg.ABTests {
		if !t.Enabled {
			continue
		}
		if t.Key == "" {
			return nil, fmt.Errorf("A/B test with empty key")
		}
		if len(t.Variants) == 0 {
			return nil, fmt.Errorf("A/B test %q: no variants", t.Key)
		}
		total := 0
		for _, v := range t.Variants {
			if v.Weight <= 0 {
				return nil, fmt.Errorf("A/B test %q variant %q: weight %d must be positive", t.Key, v.Name, v.Weight)
			}
			total += v.Weight
		}
		targets, err := compileTargets(t.TargetPaths)
		if err != nil {
			return nil, fmt.Errorf("A/B test %q: %w", t.Key, err)
		}
		out.ABTests = append(out.ABTests, CompiledABTest{
			Key:         t.Key,
			Variants:    t.Variants,
			TotalWeight: total,
			Targets:     targets,
		})
	}

	return out, nil
}

func compileTargets(entries []string) ([]PathMatcher, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	matchers := make([]PathMatcher, 0, len(entries))
	for _, e := range entries {
		m, err := compileMatcher(e)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// DefaultCompiled returns the compiled form of the built-in default config.
// Compiling the default cannot fail.
func DefaultCompiled() *Compiled {
	c, err := Compile(Default())
	if err != nil {
		// The default config is empty; this is unreachable.
		panic(err)
	}
	return c
}

package adminconfig

// Config is the admin-managed policy configuration evaluated on every
// request. It is fetched from the admin API (or loaded from a local file)
// and treated as immutable for its cache lifetime: refreshes replace the
// whole object, there is no partial-update merging.
//
// JSON tags match the admin API payload; YAML tags cover the local file
// source used in development.
type Config struct {
	// Redirects is an ordered list of redirect rules. The first enabled
	// rule whose source matches a request path wins.
	Redirects []Redirect `json:"redirects" yaml:"redirects"`

	// FeatureFlags is the list of feature flags annotated onto
	// pass-through responses.
	FeatureFlags []FeatureFlag `json:"featureFlags" yaml:"feature_flags"`

	// Maintenance controls maintenance mode.
	Maintenance Maintenance `json:"maintenance" yaml:"maintenance"`

	// AccessControl is an ordered list of path-prefix role requirements.
	AccessControl []AccessRule `json:"accessControl" yaml:"access_control"`

	// ABTests is the list of A/B path-rewrite experiments.
	ABTests []ABTest `json:"abTests" yaml:"ab_tests"`
}

// Redirect is a single redirect rule.
type Redirect struct {
	// Source is the path (exact or prefix) the rule applies to.
	Source string `json:"source" yaml:"source"`

	// Destination is the redirect target.
	Destination string `json:"destination" yaml:"destination"`

	// Permanent selects 301 over 302.
	Permanent bool `json:"permanent" yaml:"permanent"`

	// Enabled toggles the rule without removing it.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// FeatureFlag is a single feature flag with percentage rollout.
type FeatureFlag struct {
	// Key is the flag name exposed in the x-feature-flags header.
	Key string `json:"key" yaml:"key"`

	// Enabled toggles the flag.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// RolloutPercentage is the share of users the flag is active for,
	// in [0,100]. Bucketing is deterministic per (user, flag) pair.
	RolloutPercentage int `json:"rolloutPercentage" yaml:"rollout_percentage"`

	// TargetPaths restricts the flag to matching paths. Entries are
	// either plain path prefixes or regular expressions; empty means
	// every path. See Compile for how entries are classified.
	TargetPaths []string `json:"targetPaths" yaml:"target_paths"`
}

// Maintenance controls maintenance mode.
type Maintenance struct {
	// Enabled short-circuits all non-exempt requests to a 503 page.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// AllowedPaths are path prefixes exempt from the maintenance block.
	AllowedPaths []string `json:"allowedPaths" yaml:"allowed_paths"`

	// Message is rendered on the maintenance page.
	Message string `json:"message" yaml:"message"`
}

// AccessRule requires a role for a path prefix.
type AccessRule struct {
	// Path is the path prefix the rule applies to.
	Path string `json:"path" yaml:"path"`

	// RequiredRole is the role the caller must present. The "admin"
	// role always passes.
	RequiredRole string `json:"requiredRole" yaml:"required_role"`

	// Enabled toggles the rule.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ABTest is a weighted path-rewrite experiment.
type ABTest struct {
	// Key is the test name exposed in the x-ab-test header.
	Key string `json:"key" yaml:"key"`

	// Enabled toggles the test.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Variants are the weighted rewrite targets, in selection order.
	Variants []Variant `json:"variants" yaml:"variants"`

	// TargetPaths restricts the test to matching paths, same
	// classification as FeatureFlag.TargetPaths.
	TargetPaths []string `json:"targetPaths" yaml:"target_paths"`
}

// Variant is one arm of an A/B test.
type Variant struct {
	// Name is exposed in the x-ab-variant header.
	Name string `json:"name" yaml:"name"`

	// Weight is the variant's positive integer selection weight.
	Weight int `json:"weight" yaml:"weight"`

	// Path is the rewrite target for users bucketed into this variant.
	Path string `json:"path" yaml:"path"`
}

// Default returns the built-in policy config: maintenance disabled and all
// rule lists empty. It is the initial process-wide state and the fallback
// when no config has ever been fetched successfully.
func Default() *Config {
	return &Config{}
}

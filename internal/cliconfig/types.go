package cliconfig

// Context is one named API target. Operators typically keep one, but
// staging/production splits get their own entries.
type Context struct {
	Name      string `yaml:"name"`
	APIURL    string `yaml:"api_url"`
	WalletDir string `yaml:"wallet_dir,omitempty"`

	// Cache TTL overrides, in seconds. Zero means the built-in default.
	// Explicit NODEBOARD_* env vars still win over these.
	NodesTTLSeconds int `yaml:"nodes_ttl_seconds,omitempty"`
	CodesTTLSeconds int `yaml:"codes_ttl_seconds,omitempty"`
}

// Config is the on-disk shape of ~/.nodeboard/config.yaml.
type Config struct {
	Current  string             `yaml:"current"`
	Contexts map[string]Context `yaml:"contexts"`
}

package config

// Version is the ldpath binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/ldpath/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"

package version

// Overridden at build time with -ldflags "-X".
var (
	AppName        = "Cord Titan"
	AppDescription = "Music bot with per-server queues, filters and 24/7 mode."
	Version        = "dev"
	Commit         = "none"
	BuildDate      = "unknown"
)

package build_info

// Set through ldflags in the Makefile
var (
	Version   = "dev"
	BuildDate = "unknown"
)

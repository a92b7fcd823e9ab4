package version

// Current defines the application version.
// It defaults to "dev" but is overwritten at build time using -ldflags.
var Current = "dev"

const AppName = "netmapper"

// String is the banner printed by `netmapper version`.
func String() string {
	return AppName + " " + Current
}

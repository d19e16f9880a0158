// Package version reports what build of yaaksync is running. Release builds
// set the variables below with -ldflags; go install builds fall back to the
// module and VCS stamps embedded by the toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	devVersion  = "0.1.0-dev"
	unknownRev  = "HEAD"
	develModule = "(devel)"
)

var (
	AppName   = "yaaksync"
	Version   = devVersion
	Revision  = unknownRev
	BuildDate = ""
)

// applyBuildInfo fills whatever ldflags left at its placeholder from the
// embedded module version and vcs.* settings.
func applyBuildInfo(mainVersion string, settings map[string]string) {
	unset := func(v, placeholder string) bool { return v == "" || v == placeholder }

	if unset(Version, devVersion) && mainVersion != "" && mainVersion != develModule {
		Version = strings.TrimPrefix(mainVersion, "v")
	}

	if rev := settings["vcs.revision"]; rev != "" && unset(Revision, unknownRev) {
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Revision = rev
	}

	if BuildDate == "" {
		BuildDate = settings["vcs.time"]
	}
}

func init() {
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		settings := make(map[string]string, len(info.Settings))
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
		applyBuildInfo(info.Main.Version, settings)
	}
	if BuildDate == "" {
		BuildDate = time.Now().UTC().Format(time.RFC3339)
	}
}

// Short is "<version> (<revision>)".
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Revision)
}

func ShortWithApp() string {
	return AppName + " " + Short()
}

// Detailed adds the toolchain, platform and build date, e.g.
// "0.1.0 (5e23a4; go1.23.6; linux/amd64; 2025-01-02T03:04:05Z)".
func Detailed() string {
	return fmt.Sprintf("%s (%s; %s; %s/%s; %s)",
		Version, Revision, runtime.Version(), runtime.GOOS, runtime.GOARCH, BuildDate)
}

// DetailedWithApp is what the version command prints.
func DetailedWithApp() string {
	return AppName + " " + Detailed()
}

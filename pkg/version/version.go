package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const Name = "sentry-slack"

var (
	Version   = "(dev)"
	Revision  = ""
	buildInfo = debug.BuildInfo{}
)

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		buildInfo = *bi
		if len(bi.Main.Version) > 0 {
			Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				Revision = s.Value[:7]
			}
		}
	}
}

// UserAgent identifies outbound webhook requests.
func UserAgent() string {
	return Name + "/" + Version
}

func GetMore(mod bool) string {
	if mod {
		mod := buildInfo.String()
		if len(mod) > 0 {
			return fmt.Sprintf("\t%s\n", strings.ReplaceAll(mod[:len(mod)-1], "\n", "\n\t"))
		}
	}
	rev := ""
	if Revision != "" {
		rev = " (" + Revision + ")"
	}
	return fmt.Sprintf("version %s%s %s %s/%s\n", Version, rev, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

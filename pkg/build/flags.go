// SPDX-License-Identifier: MIT
//
// Package build exposes metadata injected at link time, for example:
//
//	go build -ldflags "-X spectro/pkg/build.buildVersion=0.3.0 \
//	    -X spectro/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X spectro/pkg/build.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Development builds carry the defaults below.
package build

import (
	"errors"
	"fmt"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Set with -ldflags -X.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

var info = Info{
	Name:        "spectro",
	Description: "STFT analysis, resynthesis and spectrogram painting",
	Time:        "unknown",
	Commit:      "unknown",
	Version:     "dev",
}

// Initialize copies the linker-injected values into the build info. Values
// that were not injected keep their development defaults and are reported
// together in the returned error.
func Initialize() error {
	var missing []error
	set := func(dst *string, v, flag string) {
		if v == "" {
			missing = append(missing, fmt.Errorf("%s is not set", flag))
			return
		}
		*dst = v
	}

	set(&info.Name, buildName, "buildName")
	set(&info.Time, buildTime, "buildTime")
	set(&info.Commit, buildCommit, "buildCommit")
	set(&info.Version, buildVersion, "buildVersion")

	return errors.Join(missing...)
}

// Get returns the current build information.
func Get() Info {
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Default build-time variable.
// These values are overridden via ldflags
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
	BuildTime = "unknown-buildtime"
)

// Predictors lists the algorithms compiled into this build.
var Predictors = []string{"user_based", "item_based", "slope_one"}

func BuildInfo() string {
	var sb strings.Builder
	fmt.Fprintln(&sb, "Version:\t", Version)
	fmt.Fprintln(&sb, "Predictors:\t", strings.Join(Predictors, ", "))
	fmt.Fprintln(&sb, "Go version:\t", runtime.Version())
	fmt.Fprintln(&sb, "Git commit:\t", GitCommit)
	fmt.Fprintln(&sb, "Built:\t\t", BuildTime)
	fmt.Fprintf(&sb, "OS/Arch:\t %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return sb.String()
}

package core

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Platform is a CIPD platform such as linux-amd64 or mac-arm64.
type Platform struct {
	OS   string
	Arch string
}

func (p Platform) String() string {
	return p.OS + "-" + p.Arch
}

// CheckoutVars are the variables a condition is evaluated against. Values
// are bool or string.
type CheckoutVars map[string]any

// cipdOS maps CIPD os names to the gclient host_os value.
var cipdOS = map[string]string{
	"linux":   "linux",
	"mac":     "mac",
	"windows": "win",
}

// cipdArch maps CIPD arch names to the gclient host_cpu value.
var cipdArch = map[string]string{
	"amd64":   "x64",
	"386":     "x86",
	"arm64":   "arm64",
	"armv6l":  "arm",
	"mips64":  "mips64",
	"ppc64le": "ppc",
	"s390x":   "s390",
	"riscv64": "riscv64",
	"loong64": "loong64",
}

var checkoutOSes = []string{"android", "chromeos", "fuchsia", "ios", "linux", "mac", "win"}

var checkoutCPUs = []string{"arm", "arm64", "loong64", "mips", "mips64", "ppc", "riscv64", "s390", "x64", "x86"}

// ParsePlatform parses "<os>-<arch>".
func ParsePlatform(value string) (Platform, error) {
	osName, arch, found := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "-")
	if !found || osName == "" || arch == "" {
		return Platform{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("platform must look like <os>-<arch>: %q", value))
	}
	if _, ok := cipdOS[osName]; !ok {
		return Platform{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported platform os: %s", osName))
	}
	if _, ok := cipdArch[arch]; !ok {
		return Platform{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported platform arch: %s", arch))
	}
	return Platform{OS: osName, Arch: arch}, nil
}

// HostPlatform returns the platform of the running binary.
func HostPlatform() Platform {
	osName := runtime.GOOS
	switch osName {
	case "darwin":
		osName = "mac"
	}
	arch := runtime.GOARCH
	switch arch {
	case "arm":
		arch = "armv6l"
	}
	return Platform{OS: osName, Arch: arch}
}

// KnownConditionVars lists the variables gclient predefines for every
// checkout, sorted.
func KnownConditionVars() []string {
	names := []string{"host_os", "host_cpu"}
	for _, osName := range checkoutOSes {
		names = append(names, "checkout_"+osName)
	}
	for _, cpu := range checkoutCPUs {
		names = append(names, "checkout_"+cpu)
	}
	sort.Strings(names)
	return names
}

// NewCheckoutVars builds the predefined variables for a platform. Every
// checkout_<os> and checkout_<cpu> flag is present, set to true only for
// the platform's own os and cpu.
func NewCheckoutVars(p Platform) CheckoutVars {
	hostOS := cipdOS[p.OS]
	hostCPU := cipdArch[p.Arch]
	vars := CheckoutVars{
		"host_os":  hostOS,
		"host_cpu": hostCPU,
	}
	for _, osName := range checkoutOSes {
		vars["checkout_"+osName] = osName == hostOS
	}
	for _, cpu := range checkoutCPUs {
		vars["checkout_"+cpu] = cpu == hostCPU
	}
	return vars
}

// Merge returns a copy of v with overrides applied on top.
func (v CheckoutVars) Merge(overrides map[string]any) CheckoutVars {
	out := make(CheckoutVars, len(v)+len(overrides))
	for key, value := range v {
		out[key] = value
	}
	for key, value := range overrides {
		out[key] = value
	}
	return out
}

// Strings renders the variables for a lock file.
func (v CheckoutVars) Strings() map[string]string {
	out := make(map[string]string, len(v))
	for key, value := range v {
		out[key] = fmt.Sprint(value)
	}
	return out
}

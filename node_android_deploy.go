package magen

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forcedotcom/magen/run"
)

// InstallTimeout bounds an app install on a device or emulator.
const InstallTimeout = 300 * time.Second

// minEmulatorAPILevel is the oldest Android API level the generated
// projects support.
const minEmulatorAPILevel = 26

// =============================================================================
// AndroidInstallAppNode
// =============================================================================

// AndroidInstallAppNode installs the built app on the connected device or
// emulator via Gradle. It is a no-op for non-Android platforms. Command
// failures and runner errors both become fatal workflow error patches so the
// fatal-errors router can act on them; this node never lets a collaborator
// error propagate.
type AndroidInstallAppNode struct {
	NodeName string

	runner run.CommandRunner
	logger *slog.Logger
}

// NewAndroidInstallAppNode creates the install node.
func NewAndroidInstallAppNode(runner run.CommandRunner, opts ...NodeOption) *AndroidInstallAppNode {
	cfg := applyNodeOptions(opts)
	return &AndroidInstallAppNode{
		NodeName: NodeAndroidInstallApp,
		runner:   runner,
		logger:   cfg.logger,
	}
}

func (n *AndroidInstallAppNode) Name() string { return n.NodeName }

func (n *AndroidInstallAppNode) Execute(ctx context.Context, s State) (Patch, error) {
	if s.Platform != PlatformAndroid {
		return Patch{}, nil
	}
	if s.ProjectPath == "" {
		return FatalErrorPatch("cannot install Android app: project path is not set"), nil
	}

	task := "installDebug"
	if s.BuildType == BuildTypeRelease {
		task = "installRelease"
	}
	result, err := n.runner.Execute(ctx, "./gradlew", []string{task}, run.Options{
		Timeout:     InstallTimeout,
		Cwd:         s.ProjectPath,
		CommandName: "android app install",
	})
	if err != nil {
		n.logger.Error("install command could not run", "error", err)
		return FatalErrorPatch(fmt.Sprintf("Android app install could not run: %v", err)), nil
	}
	if !result.Success {
		n.logger.Error("install failed", "exitCode", result.ExitCode)
		return FatalErrorPatch(fmt.Sprintf(
			"Android app install failed with exit code %d: %s",
			result.ExitCode, strings.TrimSpace(result.Stderr))), nil
	}
	return Patch{}, nil
}

// =============================================================================
// Emulator selection
// =============================================================================

// Emulator describes one Android virtual device.
type Emulator struct {
	Name         string
	APILevel     int
	IsRunning    bool
	IsCompatible bool
}

// SelectBestEmulator picks the emulator to target: among compatible ones, a
// running emulator wins; otherwise the highest API level. Returns nil when
// no compatible emulator exists.
func SelectBestEmulator(emulators []Emulator) *Emulator {
	var best *Emulator
	for i := range emulators {
		e := &emulators[i]
		if !e.IsCompatible {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		if e.IsRunning != best.IsRunning {
			if e.IsRunning {
				best = e
			}
			continue
		}
		if e.APILevel > best.APILevel {
			best = e
		}
	}
	return best
}

// =============================================================================
// AndroidEmulatorNode
// =============================================================================

// AndroidEmulatorNode discovers the available Android virtual devices and
// patches targetDevice with the best one. No-op for non-Android platforms;
// finding no compatible emulator is a fatal workflow error.
type AndroidEmulatorNode struct {
	NodeName string

	runner run.CommandRunner
	logger *slog.Logger
}

// NewAndroidEmulatorNode creates the emulator discovery node.
func NewAndroidEmulatorNode(runner run.CommandRunner, opts ...NodeOption) *AndroidEmulatorNode {
	cfg := applyNodeOptions(opts)
	return &AndroidEmulatorNode{
		NodeName: NodeAndroidEmulator,
		runner:   runner,
		logger:   cfg.logger,
	}
}

func (n *AndroidEmulatorNode) Name() string { return n.NodeName }

func (n *AndroidEmulatorNode) Execute(ctx context.Context, s State) (Patch, error) {
	if s.Platform != PlatformAndroid {
		return Patch{}, nil
	}
	if s.TargetDevice != "" {
		return Patch{}, nil
	}

	result, err := n.runner.Execute(ctx, "avdmanager", []string{"list", "avd"}, run.Options{
		Timeout:     envCheckTimeout,
		CommandName: "emulator discovery",
	})
	if err != nil {
		return FatalErrorPatch(fmt.Sprintf("could not list Android emulators: %v", err)), nil
	}
	if !result.Success {
		return FatalErrorPatch(fmt.Sprintf(
			"listing Android emulators failed with exit code %d", result.ExitCode)), nil
	}

	emulators := ParseAVDList(result.Stdout)
	best := SelectBestEmulator(emulators)
	if best == nil {
		return FatalErrorPatch(fmt.Sprintf(
			"no compatible Android emulator found (need API level %d or newer)", minEmulatorAPILevel)), nil
	}
	n.logger.Info("selected emulator", "name", best.Name, "apiLevel", best.APILevel)
	return Patch{"targetDevice": best.Name}, nil
}

var apiLevelRe = regexp.MustCompile(`API level (\d+)`)

// ParseAVDList parses `avdmanager list avd` output into emulators. Devices
// older than the minimum supported API level are marked incompatible.
func ParseAVDList(output string) []Emulator {
	var emulators []Emulator
	var current *Emulator
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(line, "Name: "); ok {
			emulators = append(emulators, Emulator{Name: strings.TrimSpace(name)})
			current = &emulators[len(emulators)-1]
			continue
		}
		if current == nil {
			continue
		}
		if m := apiLevelRe.FindStringSubmatch(line); m != nil {
			if level, err := strconv.Atoi(m[1]); err == nil {
				current.APILevel = level
				current.IsCompatible = level >= minEmulatorAPILevel
			}
		}
	}
	return emulators
}

package shared

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// launchers maps GOOS to the command that hands a URL to the desktop.
var launchers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// browserCommand resolves the command line for target. $BROWSER wins over the platform default.
func browserCommand(target string) ([]string, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: not an http(s) URL: %q", ErrInvalidArgument, target)
	}

	if b := os.Getenv("BROWSER"); b != "" {
		return []string{b, target}, nil
	}

	launcher, ok := launchers[getRuntime()]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", getRuntime())
	}
	return append(append([]string{}, launcher...), target), nil
}

// OpenBrowser opens the default system browser at target without waiting for it to exit.
func OpenBrowser(target string) error {
	args, err := browserCommand(target)
	if err != nil {
		return err
	}

	if err := exec.Command(args[0], args[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

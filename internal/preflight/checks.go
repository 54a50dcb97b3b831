package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"showaudit/internal/services"
)

const catalogCheckName = "TheTVDB login"

// CheckCatalogLogin verifies the catalog accepts the configured credentials.
// A single attempt is made within timeout.
func CheckCatalogLogin(ctx context.Context, auth Authenticator, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token, err := auth.Login(checkCtx)
	if err != nil {
		return Result{Name: catalogCheckName, Detail: summarizeCatalogError(err)}
	}
	if token == "" {
		return Result{Name: catalogCheckName, Detail: "login returned an empty token"}
	}
	return Result{Name: catalogCheckName, Passed: true, Detail: "credentials accepted"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

func summarizeCatalogError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "login timed out (catalog unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "login timed out (catalog unreachable)"
	}
	if errors.Is(err, services.ErrAuth) {
		return "credentials rejected (check tvdb.api_key and tvdb.pin)"
	}
	return err.Error()
}

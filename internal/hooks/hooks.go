// Package hooks runs user commands after a build, e.g. to copy themes into an
// editor's config directory or reload a terminal.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/loopedtheme/looped/internal/logger"
)

// Variables are expanded in hook commands.
type Variables struct {
	Formats []string // formats that were written
	Files   []string // files that were written
}

// Run executes hook via sh -c in workDir and returns its stdout.
// {{formats}}, {{files}} and {{count}} in the command are expanded first.
// A failing or timed-out command is an error carrying its stderr.
func Run(ctx context.Context, hook Hook, workDir string, vars Variables) (string, error) {
	if !hook.Enabled() {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if execCtx.Err() == context.DeadlineExceeded {
		return stdout.String(), fmt.Errorf("hook timed out after %ds: %s", timeout, command)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.String(), fmt.Errorf("hook %q failed: %w", command, err)
		}
		return stdout.String(), fmt.Errorf("hook %q failed: %w: %s", command, err, msg)
	}

	if stderr.Len() > 0 {
		logger.Debug("Hook stderr: %s", stderr.String())
	}
	logger.Debug("Hook executed successfully, output length: %d bytes", stdout.Len())
	return stdout.String(), nil
}

// expandVariables replaces {{variable}} placeholders in the command string.
func expandVariables(command string, vars Variables) string {
	return strings.NewReplacer(
		"{{formats}}", strings.Join(vars.Formats, " "),
		"{{files}}", strings.Join(vars.Files, " "),
		"{{count}}", strconv.Itoa(len(vars.Files)),
	).Replace(command)
}

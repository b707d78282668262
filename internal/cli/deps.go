package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"qrdine-order-service/internal/catalog"
)

// Dependencies wires runtime services.
type Dependencies struct {
	Catalog catalog.Provider
	Now     func() time.Time
	Version string
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var controlled *exitError
	if errors.As(err, &controlled) {
		return controlled.code
	}
	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return 1
}

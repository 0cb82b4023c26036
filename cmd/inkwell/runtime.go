package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"pkt.systems/inkwell"
	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/internal/appconfig"
	"pkt.systems/pslog"
)

// openSession loads the config, builds the stack and opens a session on the
// active project. The returned close func flushes pending edits.
func openSession(ctx context.Context, cfgPath string) (*core.Session, *inkwell.Stack, func(), error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := pslog.Ctx(ctx)
	stack, err := inkwell.NewStack(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	session, err := core.NewSession(stack.Session, stack.SessionDeps(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := session.Open(ctx); err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := session.Close(context.Background()); err != nil {
			logger.Warn("session close failed", "err", err)
		}
	}
	return session, stack, closeFn, nil
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(in io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

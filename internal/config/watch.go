package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knadh/koanf/providers/file"
)

// Watch reloads the configuration whenever the file at path changes and hands
// the new snapshot to onChange. Reload failures are logged and the previous
// snapshot stays in effect. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	fp := file.Provider(path)

	err := fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			logger.Error("config watch error", slog.String("error", err.Error()))
			return
		}

		cfg, err := Load(path)
		if err != nil {
			logger.Error("failed to reload config",
				slog.String("error", err.Error()),
				slog.String("path", path))
			return
		}

		logger.Info("config file changed, reloaded", slog.String("path", path))
		onChange(cfg)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		<-ctx.Done()
		if err := fp.Unwatch(); err != nil {
			logger.Debug("config unwatch failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

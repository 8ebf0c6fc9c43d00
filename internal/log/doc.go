// Package log provides per-host log attribution on top of the standard
// slog package.
//
// Concurrent scan tasks write to one logger, so their records interleave
// arbitrarily. The HostHandler stamps every record with the host carried
// in the logging context, keeping each line attributable to the task that
// produced it without merging or reordering output.
//
// # Usage
//
//	handler := log.NewHostHandler(slog.NewTextHandler(os.Stderr, nil))
//	slog.SetDefault(slog.New(handler))
//
//	// In a worker task:
//	ctx = log.WithHost(ctx, "example.com:443")
//	slog.InfoContext(ctx, "connected") // record carries scan_host=example.com:443
package log

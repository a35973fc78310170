package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger. The CLI registers it when --verbose is set; serve registers it
// for every run, so the server's log level decides what is written.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Register installs h as the resolve, cache and HTTP hooks.
func (h *LogHooks) Register() {
	SetResolveHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnParseStart(_ context.Context, filename string) {
	h.Logger.Debug("parse start", "file", filename)
}

func (h *LogHooks) OnParseComplete(_ context.Context, filename string, entries int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("parse failed", "file", filename, "error", err)
		return
	}
	h.Logger.Debug("parse complete", "file", filename, "entries", entries, "elapsed", d)
}

func (h *LogHooks) OnBOMLoad(_ context.Context, coordinate, version string, managed int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("bom load failed", "bom", coordinate, "version", version, "error", err)
		return
	}
	h.Logger.Debug("bom loaded", "bom", coordinate, "version", version, "managed", managed, "elapsed", d)
}

func (h *LogHooks) OnResolveComplete(_ context.Context, filename string, resolved int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("resolve failed", "file", filename, "error", err)
		return
	}
	h.Logger.Debug("resolve complete", "file", filename, "dependencies", resolved, "elapsed", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "elapsed", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}

var (
	_ ResolveHooks = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)

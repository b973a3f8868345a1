package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyMode       = "mode"
	KeyEntry      = "entry"
	KeyStep       = "step"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyToken      = "build_token"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func Entry(name string) slog.Attr      { return slog.String(KeyEntry, name) }
func Step(name string) slog.Attr       { return slog.String(KeyStep, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Port(p int) slog.Attr             { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Token(t string) slog.Attr         { return slog.String(KeyToken, t) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

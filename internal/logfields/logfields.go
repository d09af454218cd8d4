package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRequestID  = "request_id"
	KeyTask       = "task"
	KeyRound      = "round"
	KeyNonce      = "nonce"
	KeyRepo       = "repository"
	KeyOwner      = "owner"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func Task(t string) slog.Attr         { return slog.String(KeyTask, t) }
func Round(r int) slog.Attr           { return slog.Int(KeyRound, r) }
func Nonce(n string) slog.Attr        { return slog.String(KeyNonce, n) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Owner(o string) slog.Attr        { return slog.String(KeyOwner, o) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(s int) slog.Attr          { return slog.Int(KeyStatus, s) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

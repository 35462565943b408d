package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyConversionID = "conversion_id"
	KeyStage        = "stage"
	KeyDurationMS   = "duration_ms"
	KeyRepo         = "repository"
	KeyPath         = "path"
	KeyFile         = "file"
	KeyArtifact     = "artifact"
	KeyRole         = "role"
	KeyAttempt      = "attempt"
	KeyCategory     = "category"
	KeyCount        = "count"
	KeyMethod       = "method"
	KeyStatus       = "status"
	KeyURL          = "url"
	KeyUserAgent    = "user_agent"
	KeyRemoteAddr   = "remote_addr"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ConversionID(id string) slog.Attr { return slog.String(KeyConversionID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Repository(r string) slog.Attr    { return slog.String(KeyRepo, r) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Artifact(name string) slog.Attr   { return slog.String(KeyArtifact, name) }
func Role(r string) slog.Attr          { return slog.String(KeyRole, r) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func Category(c string) slog.Attr      { return slog.String(KeyCategory, c) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

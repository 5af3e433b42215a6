package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEntity     = "entity"
	KeyLocale     = "locale"
	KeyPath       = "path"
	KeyArtifact   = "artifact"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyBuildID    = "build_id"
	KeyURL        = "url"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Entity(name string) slog.Attr    { return slog.String(KeyEntity, name) }
func Locale(code string) slog.Attr    { return slog.String(KeyLocale, code) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Artifact(p string) slog.Attr     { return slog.String(KeyArtifact, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

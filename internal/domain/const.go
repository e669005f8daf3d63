package domain

const (
	RequesterIdCtxKey = "gs-requesterId"
)

type AlertLevel string

const (
	LevelWarning AlertLevel = "WARNING"
	LevelSOS     AlertLevel = "SOS"
)

// ParseAlertLevel accepts the level names used by clients. An empty level
// means SOS, which is what the trigger endpoint always raised.
func ParseAlertLevel(s string) (AlertLevel, bool) {
	switch s {
	case "", "SOS", "sos":
		return LevelSOS, true
	case "WARNING", "Warning", "warning":
		return LevelWarning, true
	default:
		return "", false
	}
}

func (l AlertLevel) rank() int {
	switch l {
	case LevelWarning:
		return 1
	case LevelSOS:
		return 2
	default:
		return 0
	}
}

// Max returns the more severe of the two levels.
func (l AlertLevel) Max(other AlertLevel) AlertLevel {
	if other.rank() > l.rank() {
		return other
	}
	return l
}

type Status string

const (
	StatusSafe    Status = "SAFE"
	StatusWarning Status = "WARNING"
	StatusSOS     Status = "SOS"
)

func (l AlertLevel) Status() Status {
	switch l {
	case LevelWarning:
		return StatusWarning
	case LevelSOS:
		return StatusSOS
	default:
		return StatusSafe
	}
}

type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

func ParseMediaKind(s string) (MediaKind, bool) {
	switch s {
	case "", "video":
		return MediaVideo, true
	case "image":
		return MediaImage, true
	default:
		return "", false
	}
}

// Extension is the file extension of sinks holding this kind of media.
func (k MediaKind) Extension() string {
	if k == MediaImage {
		return ".jpg"
	}
	return ".webm"
}

package logformat

// Level is the numeric code of a parsed log level token. Lower values
// are more severe; the codes are what goes over the wire.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelTokens = []struct {
	token string
	level Level
}{
	{"ERROR", LevelError},
	{"WARN", LevelWarn},
	{"INFO", LevelInfo},
	{"DEBUG", LevelDebug},
	{"TRACE", LevelTrace},
}

// String returns the level's token form.
func (l Level) String() string {
	for _, t := range levelTokens {
		if t.level == l {
			return t.token
		}
	}
	return "UNKNOWN"
}

// ParseLevel maps a level token to its code.
func ParseLevel(s string) (Level, bool) {
	for _, t := range levelTokens {
		if t.token == s {
			return t.level, true
		}
	}
	return 0, false
}

package form

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing message about the add flow.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Reporter shows notices to the user.
type Reporter interface {
	Report(Notice)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Notice)

func (f ReporterFunc) Report(n Notice) { f(n) }

type discardReporter struct{}

func (discardReporter) Report(Notice) {}

package recovery

type Strategy interface {
	OnError(ctx Context, err error, location Location) Action
}

// Location identifies where in a file or record a problem was found.
type Location struct {
	ByteOffset int64
	Component  string // "TRE BLOCKA", "DES XML_DATA_CONTENT", "file header"
	Field      string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionFix
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionFix:
		return "fix"
	case ActionWarn:
		return "warn"
	}
	return "unknown"
}

type Context interface{ Done() <-chan struct{} }

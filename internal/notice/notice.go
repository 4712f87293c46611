// Package notice carries short-lived, user-facing messages from the todo
// logic to whatever is showing the list.
package notice

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

type Notice struct {
	Level Level
	Text  string
}

// Sink receives notices. Implementations must not block.
type Sink interface {
	Post(Notice)
}

type SinkFunc func(Notice)

func (f SinkFunc) Post(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

func Info(s Sink, text string)  { s.Post(Notice{Level: LevelInfo, Text: text}) }
func Warn(s Sink, text string)  { s.Post(Notice{Level: LevelWarn, Text: text}) }
func Error(s Sink, text string) { s.Post(Notice{Level: LevelError, Text: text}) }

// Recorder keeps every notice it receives, in order.
type Recorder struct {
	Notices []Notice
}

func (r *Recorder) Post(n Notice) { r.Notices = append(r.Notices, n) }

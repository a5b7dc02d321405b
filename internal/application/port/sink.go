package port

import "time"

type Sink interface {
	// Full-screen frame: clear and redraw the table view
	WriteFrame(frame string) error
	// Live line: overwrite last line (no newline)
	WriteLive(line string) error
	// Snapshot line: append a historical line with timestamp
	WriteSnapshot(ts time.Time, line string) error
	// Normal newline (for logs)
	NewLine() error
}

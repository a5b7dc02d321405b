package console

import (
	"fmt"
	"time"

	"marketdash/internal/application/port"
)

const clearHome = "\033[2J\033[H"

type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

// WriteFrame clears the terminal and redraws the whole table view.
func (s *Sink) WriteFrame(frame string) error {
	fmt.Print(clearHome)
	fmt.Print(frame)
	return nil
}

func (s *Sink) WriteLive(line string) error {
	fmt.Print(line) // no newline, overwrites via leading \r
	return nil
}

func (s *Sink) WriteSnapshot(ts time.Time, line string) error {
	fmt.Print("\n")
	fmt.Printf("%s %s\n", ts.Format("2006-01-02 15:04:05"), line)
	fmt.Print("\n")
	return nil
}

func (s *Sink) NewLine() error {
	fmt.Print("\n")
	return nil
}

package console

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/BishopFox/devopsfox/globals"
	"github.com/BishopFox/devopsfox/internal"
	"github.com/aws/smithy-go/ptr"
	"github.com/fatih/color"
)

const clearln = "\r\x1b[2K"

var (
	cyan = color.New(color.FgCyan).SprintFunc()
)

// CommandCounter tracks scope units for the status line. It is shared by
// every fetcher goroutine of a run.
type CommandCounter struct {
	mu        sync.Mutex
	Total     int
	Pending   int
	Complete  int
	Error     int
	Executing int
}

func (c *CommandCounter) Add(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Total += n
	c.Pending += n
}

func (c *CommandCounter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Pending--
	c.Executing++
}

func (c *CommandCounter) Finish(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Executing--
	c.Complete++
	if failed {
		c.Error++
	}
}

func (c *CommandCounter) Snapshot() (complete, total, errors int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Complete, c.Total, c.Error
}

// SpinUntil prints a status line every second until done is signalled. The
// caller sends on done and then waits for it to be closed.
func SpinUntil(w io.Writer, callingModuleName string, counter *CommandCounter, done chan bool, spinType string) {
	defer close(done)
	logFile := filepath.Join(ptr.ToString(internal.GetLogDirPath()), globals.DEVOPSFOX_LOG_FILE_NAME)
	for {
		select {
		case <-time.After(1 * time.Second):
			complete, total, errs := counter.Snapshot()
			fmt.Fprintf(w, clearln+"[%s] Status: %d/%d %s complete (%d errors -- For details check %s)", cyan(callingModuleName), complete, total, spinType, errs, logFile)
		case <-done:
			complete, _, errs := counter.Snapshot()
			fmt.Fprintf(w, clearln+"[%s] Status: %d/%d %s complete (%d errors -- For details check %s)\n", cyan(callingModuleName), complete, complete, spinType, errs, logFile)
			return
		}
	}
}

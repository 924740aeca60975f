package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"github.com/BishopFox/devopsfox/globals"
	"github.com/aws/smithy-go/ptr"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/text"
	"github.com/kyokomi/emoji"
	"github.com/sirupsen/logrus"
)

var (
	// TxtLog receives every warning and error (and debug lines when enabled).
	// It discards output until InitTxtLog points it at the log file.
	TxtLog = newDiscardLogger()

	consoleMu  sync.Mutex
	consoleOut io.Writer = os.Stdout
	consoleErr io.Writer = os.Stderr
)

func init() {
	text.EnableColors()
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	l.SetLevel(logrus.InfoLevel)
	return l
}

// This function returns ~/.devopsfox.
// If the folder does not exist the function creates it.
func GetLogDirPath() *string {
	user, _ := user.Current()
	dir := filepath.Join(user.HomeDir, globals.DEVOPSFOX_LOG_FILE_DIR_NAME)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0700)
		if err != nil {
			log.Fatalf("[-] Failed to read or create devopsfox directory")
		}
	}
	return ptr.String(dir)
}

// InitTxtLog opens ~/.devopsfox/devopsfox-error.log and attaches it to TxtLog.
// Don't forget to close the returned file.
func InitTxtLog(debug bool) (*os.File, error) {
	txtFile, err := os.OpenFile(filepath.Join(ptr.ToString(GetLogDirPath()), globals.DEVOPSFOX_LOG_FILE_NAME), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	TxtLog.Out = txtFile
	if debug {
		TxtLog.SetLevel(logrus.DebugLevel)
	}
	return txtFile, nil
}

// SetConsoleOutput redirects console messages. Warnings and errors go to
// errOut so they never mix with report output.
func SetConsoleOutput(out, errOut io.Writer) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	consoleOut = out
	consoleErr = errOut
}

type Logger struct {
	version string
	module  string
	txtLog  *logrus.Logger
}

func NewLogger(module string) Logger {
	var logger = Logger{
		version: globals.DEVOPSFOX_VERSION,
		module:  module,
		txtLog:  TxtLog,
	}
	return logger
}

func (l *Logger) prefix(c *color.Color) string {
	sprint := c.SprintFunc()
	return fmt.Sprintf("[%s][%s]", sprint(emoji.Sprintf(":fox:devopsfox %s :fox:", l.version)), sprint(l.module))
}

func (l *Logger) print(toErr bool, c *color.Color, text string) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	w := consoleOut
	if toErr {
		w = consoleErr
	}
	fmt.Fprintf(w, "%s %s\n", l.prefix(c), text)
}

func (l *Logger) Info(text string) {
	l.print(false, color.New(color.FgCyan), text)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Success(text string) {
	l.print(false, color.New(color.FgGreen), text)
}

func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(text string) {
	l.print(true, color.New(color.FgYellow), text)
	l.txtLog.WithField("module", l.module).Warn(text)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(text string) {
	l.print(true, color.New(color.FgRed), text)
	l.txtLog.WithField("module", l.module).Error(text)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf only reaches the text log.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.txtLog.WithField("module", l.module).Debugf(format, args...)
}

func (l *Logger) Fatal(text string) {
	l.txtLog.WithField("module", l.module).Error(text)
	l.print(true, color.New(color.FgRed), text)
	os.Exit(1)
}

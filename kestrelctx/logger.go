package kestrelctx

import (
	"fmt"
	"log"
	"os"
)

// Logger is a structured wrapper over the standard library's log.Logger,
// tagging every line with a component name, in place of the teacher's bare
// log.Printf calls scattered through engine/engine.go and engine/scene.
type Logger struct {
	out       *log.Logger
	component string
}

// NewLogger returns a root Logger writing to stderr with no component tag.
func NewLogger() *Logger {
	return &Logger{out: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)}
}

// With returns a child Logger tagging every line with component, nesting
// under any tag this Logger already carries.
func (l *Logger) With(component string) *Logger {
	tag := component
	if l.component != "" {
		tag = l.component + "." + component
	}
	return &Logger{out: l.out, component: tag}
}

func (l *Logger) line(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.component == "" {
		l.out.Printf("%s %s", level, msg)
		return
	}
	l.out.Printf("%s [%s] %s", level, l.component, msg)
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) { l.line("INFO", format, args...) }

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...any) { l.line("WARN", format, args...) }

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...any) { l.line("ERROR", format, args...) }

package main

import (
	"fmt"
	"log"
)

// stdLogger writes through the standard log package. Debug lines are
// dropped unless verbose is set.
type stdLogger struct {
	l       *log.Logger
	verbose bool
}

func (s *stdLogger) out(level string, msg string) {
	s.l.Output(3, level+" "+msg)
}

func (s *stdLogger) Debug(args ...interface{}) {
	if s.verbose {
		s.out("DEBUG", fmt.Sprint(args...))
	}
}

func (s *stdLogger) Debugf(format string, args ...interface{}) {
	if s.verbose {
		s.out("DEBUG", fmt.Sprintf(format, args...))
	}
}

func (s *stdLogger) Info(args ...interface{}) {
	s.out("INFO", fmt.Sprint(args...))
}

func (s *stdLogger) Infof(format string, args ...interface{}) {
	s.out("INFO", fmt.Sprintf(format, args...))
}

func (s *stdLogger) Warn(args ...interface{}) {
	s.out("WARN", fmt.Sprint(args...))
}

func (s *stdLogger) Warnf(format string, args ...interface{}) {
	s.out("WARN", fmt.Sprintf(format, args...))
}

func (s *stdLogger) Error(args ...interface{}) {
	s.out("ERROR", fmt.Sprint(args...))
}

func (s *stdLogger) Errorf(format string, args ...interface{}) {
	s.out("ERROR", fmt.Sprintf(format, args...))
}

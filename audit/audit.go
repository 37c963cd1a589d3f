// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

// Package audit implements the line-oriented audit log recording every DNS
// query attempt and its outcome. The log is part of the contract with the
// operator, not optional instrumentation.
//
// Many resolution tasks append to the log concurrently; a single writer
// goroutine drains a channel of log lines so that lines are never interleaved
// or lost.
package audit

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Log serializes audit lines from concurrent writers onto a single io.Writer.
type Log struct {
	lines chan string
	done  chan struct{}
	err   error // first write error, if any; inspected after done is closed.
	file  *os.File
}

// New returns an audit log writing lines to w. Call [Log.Close] to flush and
// release the writer goroutine.
func New(w io.Writer) *Log {
	l := &Log{
		lines: make(chan string, 256),
		done:  make(chan struct{}),
	}
	go l.drain(w)
	return l
}

// NewFile returns an audit log appending lines to the named file, creating it
// if necessary.
func NewFile(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open audit log: %w", err)
	}
	l := New(f)
	l.file = f
	return l, nil
}

// Printf appends a single formatted line to the audit log. It is safe for
// concurrent use; each call produces exactly one line in the log.
func (l *Log) Printf(format string, args ...any) {
	l.lines <- fmt.Sprintf(format, args...)
}

// Close flushes all pending lines, stops the writer goroutine, and closes the
// underlying file if the log was created with NewFile. No Printf must be
// called after Close.
func (l *Log) Close() error {
	close(l.lines)
	<-l.done
	if l.file != nil {
		if err := l.file.Close(); err != nil && l.err == nil {
			l.err = err
		}
	}
	return l.err
}

// drain is the single writer: it moves lines from the channel onto the writer
// until the channel is closed.
func (l *Log) drain(w io.Writer) {
	defer close(l.done)
	buf := bufio.NewWriter(w)
	for line := range l.lines {
		if _, err := buf.WriteString(line + "\n"); err != nil && l.err == nil {
			l.err = err
		}
	}
	if err := buf.Flush(); err != nil && l.err == nil {
		l.err = err
	}
}

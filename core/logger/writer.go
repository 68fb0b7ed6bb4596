package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter copies lines to its sinks on a background goroutine so
// handlers never block on file I/O. The first write error sticks and is
// returned from every later call.
type asyncWriter struct {
	lines chan []byte
	acks  chan chan error
	done  chan struct{}
	stop  sync.Once
	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	w := &asyncWriter{
		lines: make(chan []byte, 256),
		acks:  make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.fail(w.flush())
				return
			}
			w.write(line)
			w.fail(w.flush())
		case ack := <-w.acks:
			w.drain()
			ack <- w.flush()
		}
	}
}

// drain writes lines already queued so a Flush covers every earlier Write.
func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.write(line)
		default:
			return
		}
	}
}

func (w *asyncWriter) write(line []byte) {
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			w.fail(err)
		}
	}
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) failure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Write queues a copy of p. It blocks only when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) > 0 {
		w.lines <- append([]byte(nil), p...)
	}
	return nil
}

// Flush returns once everything queued so far has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.acks <- ack:
		return <-ack
	case <-w.done:
		return w.failure()
	}
}

// Close drains the queue and stops the writer.
func (w *asyncWriter) Close() error {
	w.stop.Do(func() { close(w.lines) })
	<-w.done
	return w.failure()
}

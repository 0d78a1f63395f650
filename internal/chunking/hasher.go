package chunking

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync/atomic"

	"github.com/dmitrijs2005/bigupload/internal/common"
)

var ErrHasherStarted = errors.New("hasher already started")

// Event is one message on the hasher stream. Exactly one event per run has
// Done set; it carries either FileHash or Err.
type Event struct {
	Percent  float64
	FileHash FileIdentity
	Done     bool
	Err      error
}

// Hasher computes the FileIdentity of the ranges described by chunks.
// A Hasher runs at most once.
type Hasher struct {
	r       io.ReaderAt
	chunks  []Descriptor
	started atomic.Bool
}

func NewHasher(r io.ReaderAt, chunks []Descriptor) *Hasher {
	ordered := slices.Clone(chunks)
	slices.SortFunc(ordered, func(a, b Descriptor) int { return a.Index - b.Index })
	return &Hasher{r: r, chunks: ordered}
}

// Start launches hashing on a new goroutine and returns the event stream.
// The channel is closed after the terminal event. It is buffered for every
// event the run can produce, so the producer never blocks on a slow or
// departed consumer.
func (h *Hasher) Start() (<-chan Event, error) {
	if !h.started.CompareAndSwap(false, true) {
		return nil, ErrHasherStarted
	}
	events := make(chan Event, len(h.chunks)+1)
	go h.run(events)
	return events, nil
}

func (h *Hasher) run(events chan<- Event) {
	defer close(events)

	digest := md5.New()
	buf := sharedPool.Get()
	defer sharedPool.Put(buf)

	total := len(h.chunks)
	for i, c := range h.chunks {
		n, err := io.CopyBuffer(digest, io.NewSectionReader(h.r, c.Start, c.Size), *buf)
		if err == nil && n != c.Size {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			events <- Event{Done: true, Err: fmt.Errorf("read chunk %d: %w: %w", c.Index, common.ErrIO, err)}
			return
		}
		if i < total-1 {
			events <- Event{Percent: 100 * float64(i+1) / float64(total)}
		}
	}

	events <- Event{
		Percent:  100,
		FileHash: FileIdentity(hex.EncodeToString(digest.Sum(nil))),
		Done:     true,
	}
}

// Wait drains events, forwarding progress to onProgress (may be nil), and
// returns the terminal result.
func Wait(events <-chan Event, onProgress func(percent float64)) (FileIdentity, error) {
	for ev := range events {
		if !ev.Done {
			if onProgress != nil {
				onProgress(ev.Percent)
			}
			continue
		}
		if ev.Err != nil {
			return "", ev.Err
		}
		if onProgress != nil {
			onProgress(ev.Percent)
		}
		return ev.FileHash, nil
	}
	return "", fmt.Errorf("hasher stream closed without result: %w", common.ErrIO)
}

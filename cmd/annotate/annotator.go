// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/safeflow/internal/annotation"
	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/surface"
)

// errQuit ends the command loop without error.
var errQuit = errors.New("quit")

// annotator drives one session from line commands.
type annotator struct {
	session *annotation.Session
	raster  *surface.Raster
	ref     *surface.ImageReference
	outPath string
	out     io.Writer
}

// eventLine is the JSON form of a status event on stdout.
type eventLine struct {
	Event  annotation.StatusKind `json:"event"`
	Points int                   `json:"points,omitempty"`
	Line   *annotation.Line      `json:"line,omitempty"`
	Reason string                `json:"reason,omitempty"`
	Retry  bool                  `json:"retryable,omitempty"`
}

func newAnnotator(ctx context.Context, cameraID string, port annotation.Port, ref *surface.ImageReference, outPath string, out io.Writer) (*annotator, error) {
	w, h := ref.DisplaySize()
	a := &annotator{
		raster:  surface.New(0, 0, int(w), int(h)),
		ref:     ref,
		outPath: outPath,
		out:     out,
	}

	session, err := annotation.Activate(ctx, annotation.Options{
		ResourceID: cameraID,
		Surface:    a.raster,
		Reference:  ref,
		Port:       port,
		Scale:      ref.Scale(),
		Observer:   a.printEvent,
	})
	if err != nil {
		return nil, err
	}
	a.session = session
	a.preview()
	a.printState()
	return a, nil
}

func (a *annotator) printEvent(ev annotation.StatusEvent) {
	a.writeJSON(eventLine{
		Event:  ev.Kind,
		Points: ev.Points,
		Line:   ev.Line,
		Reason: ev.Reason,
		Retry:  ev.Err != nil && annotation.IsRetryable(ev.Err),
	})
}

func (a *annotator) writeJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode output")
		return
	}
	fmt.Fprintln(a.out, string(data))
}

func (a *annotator) printState() {
	state := struct {
		State   string             `json:"state"`
		Pending []annotation.Point `json:"pending"`
		Segment *annotation.Line   `json:"segment,omitempty"`
		Native  *annotation.Line   `json:"native,omitempty"`
	}{
		State:   a.session.State().String(),
		Pending: a.session.Pending(),
	}
	if seg, ok := a.session.Segment(); ok {
		line := seg.Rounded()
		state.Segment = &line
	}
	if seg, ok := a.session.NativeSegment(); ok {
		line := seg.Rounded()
		state.Native = &line
	}
	a.writeJSON(state)
}

// preview writes the overlay composited over the reference frame.
func (a *annotator) preview() {
	if a.outPath == "" {
		return
	}
	f, err := os.Create(a.outPath)
	if err != nil {
		logging.Warn().Err(err).Str("path", a.outPath).Msg("Failed to write preview")
		return
	}
	defer func() { _ = f.Close() }()
	if err := a.raster.EncodePNG(f, a.ref.Image()); err != nil {
		logging.Warn().Err(err).Str("path", a.outPath).Msg("Failed to write preview")
	}
}

// run reads commands until EOF, quit or ctx is done.
func (a *annotator) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := a.exec(ctx, strings.Fields(line))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			a.writeJSON(map[string]string{"error": err.Error()})
		}
	}
	return scanner.Err()
}

func (a *annotator) exec(ctx context.Context, args []string) error {
	switch strings.ToLower(args[0]) {
	case "click":
		nums, err := parseNumbers(args, 2)
		if err != nil {
			return err
		}
		a.session.Click(nums[0], nums[1])
		a.preview()
	case "clear":
		a.session.Clear()
		a.preview()
	case "save":
		// Failures are reported through the save-error event.
		_, _ = a.session.Save(ctx)
	case "resize":
		nums, err := parseNumbers(args, 2)
		if err != nil {
			return err
		}
		if nums[0] < 1 || nums[1] < 1 {
			return fmt.Errorf("resize: dimensions must be positive")
		}
		a.ref.SetDisplaySize(int(nums[0]), int(nums[1]))
		a.session.SetScale(a.ref.Scale())
		a.session.Resize()
		a.preview()
	case "state":
		a.printState()
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func parseNumbers(args []string, n int) ([]float64, error) {
	if len(args) != n+1 {
		return nil, fmt.Errorf("%s: expected %d arguments", args[0], n)
	}
	nums := make([]float64, n)
	for i := range nums {
		v, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", args[0], args[i+1])
		}
		nums[i] = v
	}
	return nums, nil
}

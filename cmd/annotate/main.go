// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package main is a headless tripwire annotation tool.
//
// It loads a camera's tripwire from a SafeFlow server, reads commands from
// stdin and writes an overlay preview PNG after every redraw:
//
//	click X Y     add a point at client coordinates (X, Y)
//	clear         discard all points and the line
//	save          persist the drawn line
//	resize W H    display the frame at W x H
//	state         print the session state
//	quit          exit
//
// Status events are printed to stdout as JSON lines.
//
// Example:
//
//	safeflow-annotate -server http://localhost:8000 -camera gate-1 \
//	    -frame gate-1.jpg -out gate-1-overlay.png
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/safeflow/internal/client"
	"github.com/tomtom215/safeflow/internal/logging"
	"github.com/tomtom215/safeflow/internal/surface"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8000", "SafeFlow server URL")
		cameraID  = flag.String("camera", "", "camera ID to annotate (required)")
		token     = flag.String("token", os.Getenv("SAFEFLOW_TOKEN"), "bearer token (default $SAFEFLOW_TOKEN)")
		framePath = flag.String("frame", "", "reference frame image (PNG or JPEG)")
		width     = flag.Int("width", 1280, "native frame width when -frame is not set")
		height    = flag.Int("height", 720, "native frame height when -frame is not set")
		outPath   = flag.String("out", "overlay.png", "preview PNG path")
		timeout   = flag.Duration("timeout", 10*time.Second, "request timeout")
		logLevel  = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console", Timestamp: true})

	if *cameraID == "" {
		fmt.Fprintln(os.Stderr, "-camera is required")
		flag.Usage()
		os.Exit(2)
	}

	ref := surface.NewBlankReference(*width, *height)
	if *framePath != "" {
		loaded, err := surface.LoadImageReference(*framePath)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to load reference frame")
		}
		ref = loaded
	}

	lc, err := client.New(client.Config{BaseURL: *serverURL, Token: *token, Timeout: *timeout})
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid server URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAnnotator(ctx, *cameraID, lc, ref, *outPath, os.Stdout)
	if err != nil {
		logging.Fatal().Err(err).Str("camera_id", *cameraID).Msg("Failed to start annotation")
	}
	if err := a.run(ctx, os.Stdin); err != nil {
		logging.Error().Err(err).Msg("Annotation stopped")
		os.Exit(1)
	}
}

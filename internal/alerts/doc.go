// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

// Package alerts raises threshold alerts and delivers them.
//
// The Dispatcher applies a per-camera cooldown, pushes accepted alerts to
// WebSocket clients straight away and queues them for the external
// notifiers. Notifier delivery happens on the Dispatcher's own goroutine
// (run it under the supervisor via Serve) so a slow SMTP server never stalls
// frame processing.
//
// Notifiers:
//   - WebhookNotifier posts JSON to an arbitrary URL
//   - TelegramNotifier uses the Bot API sendMessage method
//   - EmailNotifier sends plain text mail over SMTP with STARTTLS
//
// Each notifier limits its own send rate with golang.org/x/time/rate.
package alerts

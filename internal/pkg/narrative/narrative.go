// Package narrative walks the scripted attack sequence for presentation.
// It is timing and formatting only: the asserted outcomes are part of the
// script, not measurements (the live probes in probes.go measure).
package narrative

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/anicoll/zerotrust-iot/internal/pkg/events"
	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

// Scenario is one scripted (title, description, asserted-outcome) triple.
type Scenario struct {
	Title       string
	Description string
	Outcome     string
}

// Script is the fixed attack sequence shown during the demonstration.
func Script() []Scenario {
	return []Scenario{
		{
			Title:       "Unauthorized Device Connection",
			Description: "Attempting connection with invalid IoT Hub credentials",
			Outcome:     "BLOCKED - Authentication failed at IoT Hub gateway",
		},
		{
			Title:       "Credential Brute Force Attack",
			Description: "Multiple rapid authentication attempts with wrong passwords",
			Outcome:     "BLOCKED - Rate limiting and account lockout triggered",
		},
		{
			Title:       "Malicious Telemetry Injection",
			Description: "Attempting to send oversized/malformed telemetry payloads",
			Outcome:     "BLOCKED - Message validation failed at IoT Hub",
		},
		{
			Title:       "Protocol Violation Attack",
			Description: "Attempting unauthorized MQTT/HTTP access outside allowed ports",
			Outcome:     "BLOCKED - Network Security Groups denied access",
		},
		{
			Title:       "Device Identity Spoofing",
			Description: "Attempting to impersonate legitimate device with fake certificates",
			Outcome:     "BLOCKED - Certificate validation failed",
		},
		{
			Title:       "Network Reconnaissance",
			Description: "Port scanning and service discovery attempts",
			Outcome:     "BLOCKED - VNet isolation prevented internal access",
		},
		{
			Title:       "Data Exfiltration Attempt",
			Description: "Unauthorized access to device telemetry data streams",
			Outcome:     "BLOCKED - Azure RBAC denied resource access",
		},
	}
}

type Runner struct {
	out      io.Writer
	rng      *rand.Rand
	minPause time.Duration
	maxPause time.Duration
	publish  func(event model.SecurityEvent)
	now      func() time.Time
}

func New(out io.Writer, minPause, maxPause time.Duration) *Runner {
	return &Runner{
		out:      out,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minPause: minPause,
		maxPause: maxPause,
		publish:  events.Publish,
		now:      time.Now,
	}
}

// Run prints each scenario with a randomized pause in between. Cancelling
// ctx halts the sequence immediately; nothing after the interrupt point is
// printed. The asserted outcomes are never verified here.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) error {
	r.line(strings.Repeat("=", 60))
	r.line("ZERO-TRUST ATTACK SIMULATION STARTING")
	r.line(strings.Repeat("=", 60))

	for i, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.line(fmt.Sprintf("\nAttack %d/%d in progress...", i+1, len(scenarios)))
		r.printScenario(scenario)
		r.publish(model.SecurityEvent{
			ID:        uuid.NewString(),
			Timestamp: r.now(),
			Level:     model.SeverityHigh,
			Kind:      slug.Make(scenario.Title),
			Message:   scenario.Outcome,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.pause()):
		}
	}

	r.line("\n" + strings.Repeat("=", 60))
	r.line("ALL ATTACKS SUCCESSFULLY BLOCKED")
	r.line("Zero-Trust Architecture Validation Complete")
	r.line(strings.Repeat("=", 60))
	r.line("\nSECURITY SUMMARY:")
	r.line(fmt.Sprintf("  - Attacks detected: %d", len(scenarios)))
	r.line(fmt.Sprintf("  - Attacks blocked:  %d", len(scenarios)))
	r.line("  - Legitimate devices: still operating normally")
	return nil
}

func (r *Runner) printScenario(scenario Scenario) {
	r.line(fmt.Sprintf("\n[%s] %s", r.now().Format(time.TimeOnly), scenario.Title))
	r.line(fmt.Sprintf("  %s", scenario.Description))
	r.line(fmt.Sprintf("  %s", scenario.Outcome))
	r.line(strings.Repeat("-", 60))
}

func (r *Runner) pause() time.Duration {
	if r.maxPause <= r.minPause {
		return r.minPause
	}
	return r.minPause + time.Duration(r.rng.Int63n(int64(r.maxPause-r.minPause)))
}

func (r *Runner) line(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

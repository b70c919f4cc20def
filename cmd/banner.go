package cmd

import (
	"fmt"
	"io"
	"strings"
)

func printBanner(out io.Writer) {
	line := strings.Repeat("=", 60)
	_, _ = fmt.Fprintln(out, line)
	_, _ = fmt.Fprintln(out, "   ZERO-TRUST IoT DASHBOARD DEMONSTRATION")
	_, _ = fmt.Fprintln(out, line)
	_, _ = fmt.Fprintln(out, "This demo showcases:")
	_, _ = fmt.Fprintln(out, "  - Live telemetry from simulated IoT devices")
	_, _ = fmt.Fprintln(out, "  - Real-time security monitoring dashboard")
	_, _ = fmt.Fprintln(out, "  - Scripted attack narrative with timed pauses")
	_, _ = fmt.Fprintln(out, "  - Live probes with honest outcome classification")
	_, _ = fmt.Fprintln(out, line)
}

func printArchitectureSummary(out io.Writer) {
	_, _ = fmt.Fprintln(out, "\nARCHITECTURE SUMMARY:")
	_, _ = fmt.Fprintln(out, "  - IoT Hub: free tier (8000 msg/day budget)")
	_, _ = fmt.Fprintln(out, "  - Static dashboard with live websocket event feed")
	_, _ = fmt.Fprintln(out, "  - Virtual network + security groups (provisioned externally)")
	_, _ = fmt.Fprintln(out, "  - Enforcement happens at the hub; this harness only observes")
}

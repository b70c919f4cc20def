package hub

import (
	"errors"
	"net"
	"strings"

	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

// Classify maps the error from a connection or publish attempt onto an
// explicit outcome. "The attempt raised an error" is not the same thing as
// "the hub enforced policy": an unreachable endpoint classifies as
// OutcomeUnreachable, not as a block.
func Classify(err error) model.Outcome {
	if err == nil {
		return model.OutcomeAccepted
	}

	switch {
	case errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised),
		errors.Is(err, packets.ErrorRefusedIDRejected):
		return model.OutcomeAuthRejected
	case errors.Is(err, packets.ErrorRefusedBadProtocolVersion),
		errors.Is(err, ErrMalformedConnectionString):
		return model.OutcomeMalformed
	case errors.Is(err, packets.ErrorRefusedServerUnavailable),
		errors.Is(err, packets.ErrorNetworkError),
		errors.Is(err, ErrConnectTimeout),
		errors.Is(err, ErrSendTimeout):
		return model.OutcomeUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.OutcomeUnreachable
	}

	// Brokers that wrap the CONNACK code in a plain error string.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not authorized"),
		strings.Contains(msg, "bad user name or password"),
		strings.Contains(msg, "identifier rejected"):
		return model.OutcomeAuthRejected
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"):
		return model.OutcomeUnreachable
	}
	return model.OutcomeUnknown
}

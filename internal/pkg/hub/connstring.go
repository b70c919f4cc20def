package hub

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedConnectionString = errors.New("malformed connection string")

// ConnectionString is the parsed form of a device credential, e.g.
// "HostName=myhub.azure-devices.net;DeviceId=sensor-01;SharedAccessKey=...".
// Everything outside this package treats the raw string as opaque.
type ConnectionString struct {
	HostName        string
	DeviceID        string
	SharedAccessKey string
}

func ParseConnectionString(raw string) (ConnectionString, error) {
	cs := ConnectionString{}
	for _, segment := range strings.Split(raw, ";") {
		if segment == "" {
			continue
		}
		key, value, found := strings.Cut(segment, "=")
		if !found {
			return cs, fmt.Errorf("%w: segment %q", ErrMalformedConnectionString, segment)
		}
		switch key {
		case "HostName":
			cs.HostName = value
		case "DeviceId":
			cs.DeviceID = value
		case "SharedAccessKey":
			cs.SharedAccessKey = value
		}
	}
	if cs.HostName == "" || cs.DeviceID == "" || cs.SharedAccessKey == "" {
		return cs, fmt.Errorf("%w: HostName, DeviceId and SharedAccessKey are all required", ErrMalformedConnectionString)
	}
	return cs, nil
}

// HostFromConnections extracts the hub hostname from any credential in the
// mapping, for probes that need a target without a valid identity.
func HostFromConnections(connections map[string]string) string {
	for _, raw := range connections {
		cs, err := ParseConnectionString(raw)
		if err != nil {
			continue
		}
		return cs.HostName
	}
	return ""
}

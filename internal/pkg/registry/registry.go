package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
)

var ErrNoCredentials = errors.New("no device credentials found")

// WellKnownDeviceIDs are the devices the provisioning scripts register
// with the hub. Devices outside this list still load; these just get a
// warning when their credential is missing.
var WellKnownDeviceIDs = []string{
	"zero-trust-temperature-sensor-01",
	"zero-trust-humidity-monitor-02",
	"zero-trust-motion-detector-03",
}

// Load reads the device id -> connection string mapping. A missing file is
// recoverable: the caller gets ErrNoCredentials and is expected to skip its
// phase rather than abort the process.
func Load(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("device connections file not found, run the provisioning script first", zap.String("path", path))
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}

	connections := map[string]string{}
	if err := json.Unmarshal(raw, &connections); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(connections) == 0 {
		zap.L().Warn("device connections file is empty", zap.String("path", path))
		return nil, ErrNoCredentials
	}
	return connections, nil
}

// Devices turns the credential mapping into device records, sorted by id
// for deterministic dispatch order.
func Devices(connections map[string]string) []model.Device {
	ids := make([]string, 0, len(connections))
	for id := range connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	devices := make([]model.Device, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, model.Device{ID: id, ConnectionString: connections[id]})
	}

	for _, id := range WellKnownDeviceIDs {
		if _, ok := connections[id]; !ok {
			zap.L().Warn("no connection string for device", zap.String("device", id))
		}
	}
	return devices
}

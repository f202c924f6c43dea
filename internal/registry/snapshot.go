package registry

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// DeviceState is a point-in-time view of one registered device.
type DeviceState struct {
	Index      int    `yaml:"index"`
	Name       string `yaml:"name"`
	Parameters []int  `yaml:"parameters,flow"`
	PhysicalID int    `yaml:"physical_id"`
	Serial     string `yaml:"serial"`
	Factor     int    `yaml:"factor"`
}

// Snapshot reads every registered device. Each field is read under its own
// lock, so the call is race free, but it is not atomic across devices or
// fields while commands are still running.
func (r *Registry) Snapshot() []DeviceState {
	devices := *r.devices.Load()

	states := make([]DeviceState, len(devices))
	for i, d := range devices {
		states[i] = DeviceState{
			Index:      i,
			Name:       d.Name(),
			Parameters: d.Parameters().Values(),
			PhysicalID: d.Hardware().PhysicalID,
			Serial:     d.Hardware().Serial,
			Factor:     d.Factor(),
		}
	}

	return states
}

// WriteTable renders states as tab aligned columns.
func WriteTable(w io.Writer, states []DeviceState) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "INDEX\tNAME\tPARAMETERS\tSERIAL\tFACTOR")
	for _, s := range states {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", s.Index, s.Name, joinParameters(s.Parameters), s.Serial, s.Factor)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing device table: %w", err)
	}
	return nil
}

func joinParameters(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// WriteYAML renders states as a YAML document.
func WriteYAML(w io.Writer, states []DeviceState) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(map[string]interface{}{"devices": states}); err != nil {
		return fmt.Errorf("encoding device snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding device snapshot: %w", err)
	}
	return nil
}

// Write renders states in the named format ("table" or "yaml").
func Write(w io.Writer, format string, states []DeviceState) error {
	switch format {
	case "", "table":
		return WriteTable(w, states)
	case "yaml":
		return WriteYAML(w, states)
	default:
		return fmt.Errorf("unknown snapshot format %q", format)
	}
}

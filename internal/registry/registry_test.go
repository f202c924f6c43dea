package registry

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/resident-x/go-devcmd/internal/action"
	"github.com/resident-x/go-devcmd/internal/command"
	"github.com/resident-x/go-devcmd/internal/device"
	"github.com/resident-x/go-devcmd/internal/hardware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var testBus = hardware.NewSimulatedBus(hardware.DefaultFactor)

func newDevice(t *testing.T, physicalID int, opts ...device.Option) *device.Device {
	t.Helper()
	d, err := device.New(testBus, physicalID, opts...)
	require.NoError(t, err)
	return d
}

func newRegistry(t *testing.T, n int) *Registry {
	t.Helper()
	r := New()
	for i := 0; i < n; i++ {
		r.AddDevice(newDevice(t, 97+i))
	}
	return r
}

func result(a *action.Action) string {
	return a.Wait().Result()
}

func TestNewRegistry(t *testing.T) {
	r := New()

	assert.NotNil(t, r)
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Pending())
	assert.Empty(t, r.Snapshot())

	_, found := r.Device(0)
	assert.False(t, found)
}

func TestAddDeviceAssignsInsertionIndex(t *testing.T) {
	r := New()

	first := newDevice(t, 97)
	second := newDevice(t, 98)

	assert.Equal(t, 0, r.AddDevice(first))
	assert.Equal(t, 1, r.AddDevice(second))
	// No deduplication
	assert.Equal(t, 2, r.AddDevice(first))

	got, found := r.Device(1)
	require.True(t, found)
	assert.Same(t, second, got)

	_, found = r.Device(-1)
	assert.False(t, found)
	_, found = r.Device(3)
	assert.False(t, found)
}

func TestAddDeviceRejectsNil(t *testing.T) {
	r := newRegistry(t, 1)

	assert.PanicsWithValue(t, "registry: AddDevice called with nil device", func() {
		r.AddDevice(nil)
	})

	// The list is unchanged and still usable
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "0", result(r.Submit("g name 0")))
	assert.Equal(t, 1, r.AddDevice(newDevice(t, 98)))
}

func TestSubmitEndToEndExamples(t *testing.T) {
	r := newRegistry(t, 3)

	assert.Equal(t, "", result(r.Submit("s name 1 some_name")))
	assert.Equal(t, "some_name", result(r.Submit("g name 1")))

	assert.Equal(t, "", result(r.Submit("s params 0 4,3,2,1,0,44,55,44,55")))
	assert.Equal(t, "0,1,2,3,4,44,44,55,55", result(r.Submit("g params 0")))

	assert.Equal(t, command.ErrorMarker, result(r.Submit("s name -1 pc_magnet_1")))
	assert.Equal(t, command.ErrorMarker, result(r.Submit("s params 0 4,3,,2")))

	assert.Equal(t, "2", result(r.Submit("g name 2")))
	assert.Equal(t, command.ErrorMarker, result(r.Submit("g name 3")))
	assert.Equal(t, command.ErrorMarker, result(r.Submit("s params 3 4,3,2,1,0,44,55,44,55")))

	// Rejected params left device 0 untouched
	assert.Equal(t, "0,1,2,3,4,44,44,55,55", result(r.Submit("g params 0")))
}

func TestSubmitDoesNotBlockOnListLock(t *testing.T) {
	r := newRegistry(t, 1)
	r.mutex.Lock()

	submitted := make(chan *action.Action)
	go func() {
		submitted <- r.Submit("g name 0")
	}()

	select {
	case a := <-submitted:
		assert.Equal(t, "0", result(a))
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on the device list lock")
	}
	r.mutex.Unlock()
}

func TestConcurrentSubmissionsSameDevice(t *testing.T) {
	r := newRegistry(t, 1)

	names := []string{"alpha", "beta", "gamma"}
	params := []string{"1,2,3", "9,9", "255,0,128"}
	rendered := []string{"1,2,3", "9,9", "0,128,255"}

	actions := make([]*action.Action, 0, 300)
	for i := 0; i < 100; i++ {
		actions = append(actions,
			r.Submit("s name 0 "+names[i%3]),
			r.Submit("s params 0 "+params[i%3]),
			r.Submit("g params 0"),
		)
	}

	for _, a := range actions {
		res := result(a)
		if a.Command() == "g params 0" {
			assert.Contains(t, append([]string{""}, rendered...), res)
		} else {
			assert.Equal(t, "", res)
		}
	}

	assert.Contains(t, names, result(r.Submit("g name 0")))
	assert.Contains(t, rendered, result(r.Submit("g params 0")))
}

func TestConcurrentAddDeviceAndSubmit(t *testing.T) {
	r := New()

	devices := make([]*device.Device, 50)
	for i := range devices {
		devices[i] = newDevice(t, i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.AddDevice(devices[i])
		}(i)
		go func(i int) {
			defer wg.Done()
			res := result(r.Submit(fmt.Sprintf("g name %d", i)))
			// Either the target already exists or it does not yet
			assert.Contains(t, []string{fmt.Sprint(i), command.ErrorMarker}, res)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	for i := 0; i < 50; i++ {
		assert.Equal(t, fmt.Sprint(i), result(r.Submit(fmt.Sprintf("g name %d", i))))
	}
}

func TestDrain(t *testing.T) {
	r := newRegistry(t, 2)

	actions := make([]*action.Action, 0, 20)
	for i := 0; i < 20; i++ {
		actions = append(actions, r.Submit(fmt.Sprintf("s name %d dev_%d", i%2, i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(ctx))

	assert.Zero(t, r.Pending())
	for _, a := range actions {
		assert.Equal(t, action.StateCompleted, a.State())
	}
}

func TestDrainHonorsContext(t *testing.T) {
	r := New()
	r.inFlight.Add(1)
	r.pending.Add(1)
	defer func() {
		r.pending.Add(-1)
		r.inFlight.Done()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Drain(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "draining 1 pending commands")
}

func TestSnapshot(t *testing.T) {
	r := New()
	r.AddDevice(newDevice(t, 97))
	r.AddDevice(newDevice(t, 98, device.WithFactor(3)))

	result(r.Submit("s name 0 pc_magnet_1"))
	result(r.Submit("s params 1 6,4,19,95"))

	states := r.Snapshot()
	require.Len(t, states, 2)

	assert.Equal(t, 0, states[0].Index)
	assert.Equal(t, "pc_magnet_1", states[0].Name)
	assert.Empty(t, states[0].Parameters)
	assert.Equal(t, 97, states[0].PhysicalID)
	assert.Equal(t, hardware.DefaultFactor, states[0].Factor)

	assert.Equal(t, 1, states[1].Index)
	assert.Equal(t, "", states[1].Name)
	assert.Equal(t, []int{4, 6, 19, 95}, states[1].Parameters)
	assert.Equal(t, 3, states[1].Factor)
}

func TestWriteTable(t *testing.T) {
	states := []DeviceState{
		{Index: 0, Name: "pc_magnet_1", Parameters: []int{0, 1, 44}, Serial: "HW0097-abcd", Factor: 7},
		{Index: 1, Parameters: []int{}, Serial: "HW0098-1234", Factor: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, states))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "INDEX")
	assert.Contains(t, string(lines[1]), "pc_magnet_1")
	assert.Contains(t, string(lines[1]), "0,1,44")
	assert.Contains(t, string(lines[2]), "HW0098-1234")
}

func TestWriteTableKeepsParameterOrder(t *testing.T) {
	states := []DeviceState{
		{Index: 0, Parameters: []int{44, 1, 1}, Serial: "HW0097-abcd", Factor: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, states))
	assert.Contains(t, buf.String(), "44,1,1")
}

func TestWriteYAML(t *testing.T) {
	states := []DeviceState{
		{Index: 0, Name: "pc_magnet_1", Parameters: []int{0, 1, 44}, PhysicalID: 97, Serial: "HW0097-abcd", Factor: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "yaml", states))

	var decoded struct {
		Devices []DeviceState `yaml:"devices"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, states, decoded.Devices)
	assert.Contains(t, buf.String(), "parameters: [0, 1, 44]")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown snapshot format "xml"`)
}

func TestRegistryLogsAddedDevices(t *testing.T) {
	var buf bytes.Buffer
	r := New(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	r.AddDevice(newDevice(t, 97))
	result(r.Submit("g name 0"))

	out := buf.String()
	assert.Contains(t, out, `"component":"registry"`)
	assert.Contains(t, out, `"physical_id":97`)
	assert.Contains(t, out, `"component":"dispatcher"`)
}

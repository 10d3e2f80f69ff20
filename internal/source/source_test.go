package source

import (
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asgard-driver/pkg/config"
)

const zone = "/sys/class/thermal/thermal_zone0/temp"

func TestThermalRead(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    float64
	}{
		{"millidegrees", "45000\n", 45},
		{"fraction", "36500\n", 36.5},
		{"first line only", "52000\n61000\n", 52},
		{"garbage", "n/a\n", 0},
		{"trailing junk", "41000C\n", 41},
		{"empty", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, zone, []byte(tc.content), 0o644))

			th := NewThermal(fs, zone)
			require.NoError(t, th.Init())
			v, err := th.Read()
			require.NoError(t, err)
			assert.InDelta(t, tc.want, v, 1e-9)
		})
	}
}

func TestThermalMissingFileYieldsZero(t *testing.T) {
	th := NewThermal(afero.NewMemMapFs(), zone)
	require.NoError(t, th.Init())

	v, err := th.Read()
	assert.Error(t, err)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, KindThermal, th.Name())
	assert.NoError(t, th.Close())
}

func TestSensorsRead(t *testing.T) {
	stats := []host.TemperatureStat{
		{SensorKey: "acpitz", Temperature: 40},
		{SensorKey: "coretemp_package_id_0", Temperature: 55.5},
	}
	s := NewSensors("")
	s.temps = func() ([]host.TemperatureStat, error) { return stats, nil }

	v, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 40.0, v)

	s.key = "coretemp_package_id_0"
	v, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, 55.5, v)

	s.key = "nvme"
	_, err = s.Read()
	assert.ErrorIs(t, err, errNoSensor)
}

func TestSensorsPartialWarnings(t *testing.T) {
	s := NewSensors("")
	s.temps = func() ([]host.TemperatureStat, error) {
		return []host.TemperatureStat{{SensorKey: "acpitz", Temperature: 38}}, errors.New("some sensors failed")
	}
	v, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 38.0, v)

	s.temps = func() ([]host.TemperatureStat, error) { return nil, errors.New("not supported") }
	assert.Error(t, s.Init())

	s.temps = func() ([]host.TemperatureStat, error) { return nil, nil }
	_, err = s.Read()
	assert.ErrorIs(t, err, errNoSensor)
}

func TestCPURead(t *testing.T) {
	c := NewCPU()
	var calls int
	c.percent = func(d time.Duration, perCPU bool) ([]float64, error) {
		calls++
		assert.Zero(t, d)
		assert.False(t, perCPU)
		return []float64{12.5}, nil
	}
	require.NoError(t, c.Init())
	v, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
	assert.Equal(t, 2, calls)

	c.percent = func(time.Duration, bool) ([]float64, error) { return nil, nil }
	_, err = c.Read()
	assert.Error(t, err)
}

func TestLoadRead(t *testing.T) {
	l := NewLoad()
	l.avg = func() (*load.AvgStat, error) { return &load.AvgStat{Load1: 0.75, Load5: 0.5}, nil }
	require.NoError(t, l.Init())
	v, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)

	l.avg = func() (*load.AvgStat, error) { return nil, errors.New("no /proc") }
	_, err = l.Read()
	assert.Error(t, err)
}

func TestNewByKind(t *testing.T) {
	for _, kind := range []string{KindThermal, KindSensors, KindCPU, KindLoad} {
		s, err := New(config.MetricConfig{Kind: kind, ThermalPath: zone})
		require.NoError(t, err)
		assert.Equal(t, kind, s.Name())
	}
	_, err := New(config.MetricConfig{Kind: "gpu"})
	assert.Error(t, err)
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JohnDeved/wallhub/internal/model"
)

func ids(ws []model.Wallpaper) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.ID)
	}
	return out
}

func TestDerive(t *testing.T) {
	all := sample()
	tests := []struct {
		name     string
		category string
		device   model.Device
		want     []string
	}{
		{"all pc", "", model.DevicePC, []string{"1"}},
		{"all mobile", "", model.DeviceMobile, []string{"2", "3"}},
		{"nature mobile", "Nature", model.DeviceMobile, []string{"3"}},
		{"abstract pc", "Abstract", model.DevicePC, []string{}},
		{"unknown category", "Cars", model.DeviceMobile, []string{}},
		{"every device", "", "", []string{"1", "2", "3"}},
		{"nature any device", "Nature", "", []string{"1", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Derive(all, tt.category, tt.device)))
		})
	}
}

func TestDerive_CaseInsensitiveDevice(t *testing.T) {
	all := []model.Wallpaper{{ID: "x", Device: model.Device("PC")}}
	assert.Equal(t, []string{"x"}, ids(Derive(all, "", model.DevicePC)))
}

func TestDerive_SubsetOfInput(t *testing.T) {
	all := sample()
	for _, cat := range []string{"", "Nature", "Abstract"} {
		for _, d := range model.Devices {
			for _, w := range Derive(all, cat, d) {
				assert.Contains(t, all, w)
				assert.True(t, w.Device.Matches(d))
				if cat != "" {
					assert.Equal(t, cat, w.Category)
				}
			}
		}
	}
}

func TestSelectionApply(t *testing.T) {
	s := DefaultSelection()
	assert.Equal(t, []string{"1"}, ids(s.Apply(sample())))
	s.Device = model.DeviceMobile
	s.Category = "Abstract"
	assert.Equal(t, []string{"2"}, ids(s.Apply(sample())))
}

func TestDeviceCounts(t *testing.T) {
	counts := DeviceCounts(sample(), "")
	assert.Equal(t, 1, counts[model.DevicePC])
	assert.Equal(t, 2, counts[model.DeviceMobile])

	counts = DeviceCounts(sample(), "Nature")
	assert.Equal(t, 1, counts[model.DevicePC])
	assert.Equal(t, 1, counts[model.DeviceMobile])
}

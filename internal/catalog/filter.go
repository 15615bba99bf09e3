package catalog

import "github.com/JohnDeved/wallhub/internal/model"

// Selection is the user's current filter. An empty Category means all
// categories; an empty Device means all devices.
type Selection struct {
	Category string
	Device   model.Device
}

// DefaultSelection shows every category on the PC tab.
func DefaultSelection() Selection {
	return Selection{Device: model.DevicePC}
}

// Derive returns the wallpapers of all that match device and category. An
// empty device or category matches everything. Input order is preserved.
func Derive(all []model.Wallpaper, category string, device model.Device) []model.Wallpaper {
	out := make([]model.Wallpaper, 0, len(all))
	for _, w := range all {
		if device != "" && !w.Device.Matches(device) {
			continue
		}
		if category != "" && w.Category != category {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Apply derives the view for s.
func (s Selection) Apply(all []model.Wallpaper) []model.Wallpaper {
	return Derive(all, s.Category, s.Device)
}

// DeviceCounts counts the wallpapers of category per device.
func DeviceCounts(all []model.Wallpaper, category string) map[model.Device]int {
	counts := make(map[model.Device]int, len(model.Devices))
	for _, w := range all {
		if category != "" && w.Category != category {
			continue
		}
		for _, d := range model.Devices {
			if w.Device.Matches(d) {
				counts[d]++
			}
		}
	}
	return counts
}

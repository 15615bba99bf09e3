package model

import (
	"encoding/json"
	"strings"
)

// Device is the target screen class of a wallpaper.
type Device string

const (
	DevicePC     Device = "pc"
	DeviceMobile Device = "mobile"
)

// Devices lists the valid devices in tab order.
var Devices = []Device{DevicePC, DeviceMobile}

// ParseDevice converts free-form input into a Device. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseDevice(s string) (Device, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(DevicePC):
		return DevicePC, true
	case string(DeviceMobile):
		return DeviceMobile, true
	}
	return "", false
}

// Matches reports whether d and other name the same device.
func (d Device) Matches(other Device) bool {
	return strings.EqualFold(string(d), string(other))
}

// Label returns the display name used in tabs.
func (d Device) Label() string {
	switch d {
	case DevicePC:
		return "PC"
	case DeviceMobile:
		return "Mobile"
	}
	return string(d)
}

// Other returns the opposite device.
func (d Device) Other() Device {
	if d == DeviceMobile {
		return DevicePC
	}
	return DeviceMobile
}

// CreateNewCategory is the category value that asks for a new category
// name instead of selecting an existing one. It is never a real category.
const CreateNewCategory = "Create New"

// Wallpaper is a single catalog item.
type Wallpaper struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Device       Device `json:"device"`
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// wireWallpaper accepts both the current backend field names and the
// legacy camelCase ones.
type wireWallpaper struct {
	MongoID      string `json:"_id"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Device       string `json:"device"`
	ImageURL     string `json:"image_url"`
	LegacyImage  string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// UnmarshalJSON decodes a backend wallpaper record. The device is kept
// verbatim; use Normalize to validate it.
func (w *Wallpaper) UnmarshalJSON(data []byte) error {
	var raw wireWallpaper
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := raw.MongoID
	if id == "" {
		id = raw.ID
	}
	img := raw.ImageURL
	if img == "" {
		img = raw.LegacyImage
	}
	*w = Wallpaper{
		ID:           id,
		Name:         raw.Name,
		Description:  raw.Description,
		Category:     raw.Category,
		Device:       Device(raw.Device),
		ImageURL:     img,
		ThumbnailURL: raw.ThumbnailURL,
	}
	return nil
}

// Normalize canonicalizes the device field. It returns false when the
// record cannot be shown because its device is unknown.
func (w *Wallpaper) Normalize() bool {
	d, ok := ParseDevice(string(w.Device))
	if !ok {
		return false
	}
	w.Device = d
	w.Category = strings.TrimSpace(w.Category)
	return true
}

// AssetURL returns the absolute URL of the primary asset.
func (w Wallpaper) AssetURL(origin string) string {
	return ResolveAssetURL(origin, w.ImageURL)
}

// PreviewURL returns the absolute URL of the thumbnail, falling back to
// the primary asset.
func (w Wallpaper) PreviewURL(origin string) string {
	if w.ThumbnailURL != "" {
		return ResolveAssetURL(origin, w.ThumbnailURL)
	}
	return w.AssetURL(origin)
}

// ResolveAssetURL turns a resource reference into an absolute URL.
// References starting with "http" are returned unchanged, anything else is
// appended to origin as-is.
func ResolveAssetURL(origin, ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return origin + ref
}

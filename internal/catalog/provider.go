package catalog

import (
	"github.com/JohnDeved/wallhub/internal/client"
	"github.com/JohnDeved/wallhub/internal/model"
)

// ProviderLabel is the category given to every secondary-provider photo.
const ProviderLabel = "Unsplash"

// ProviderIDPrefix namespaces provider ids so they never collide with
// backend ids.
const ProviderIDPrefix = "unsplash-"

func fromPhoto(p client.Photo) model.Wallpaper {
	device := model.DeviceMobile
	if p.Width > p.Height {
		device = model.DevicePC
	}

	name := client.PlainText(p.Description)
	if name == "" {
		name = client.PlainText(p.AltDescription)
	}
	if name == "" {
		name = ProviderLabel + " " + p.ID
	}

	image := p.URLs.Full
	if image == "" {
		image = p.URLs.Regular
	}

	return model.Wallpaper{
		ID:           ProviderIDPrefix + p.ID,
		Name:         name,
		Description:  client.PlainText(p.AltDescription),
		Category:     ProviderLabel,
		Device:       device,
		ImageURL:     image,
		ThumbnailURL: p.URLs.Small,
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JohnDeved/wallhub/internal/admin"
	"github.com/JohnDeved/wallhub/internal/model"
)

type adminMode int

const (
	modeManual adminMode = iota
	modeBulk
)

type adminField int

const (
	fieldName adminField = iota
	fieldDescription
	fieldCategory
	fieldNewCategory
	fieldDevice
	fieldImage
	fieldQuery
	fieldBulkDevice
)

// adminModel is the PIN prompt followed by the upload and bulk forms.
type adminModel struct {
	pin        textinput.Model
	pinErr     string
	mode       adminMode
	name       textinput.Model
	desc       textinput.Model
	newCat     textinput.Model
	image      textinput.Model
	query      textinput.Model
	categories []string
	catIndex   int
	device     model.Device
	bulkDevice model.Device
	focus      adminField
	submitting bool
}

func newInput(prompt, placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.PromptStyle = inputPromptStyle
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 50
	return ti
}

func newAdminModel() adminModel {
	pin := newInput("PIN: ", "enter admin PIN", 32)
	pin.EchoMode = textinput.EchoPassword
	pin.EchoCharacter = '•'
	return adminModel{
		pin:        pin,
		name:       newInput("", "Wallpaper name", 120),
		desc:       newInput("", "Short description", 500),
		newCat:     newInput("", "Name of the new category", 60),
		image:      newInput("", "/path/to/image.jpg", 1024),
		query:      newInput("", "e.g. mountains", 120),
		device:     model.DevicePC,
		bulkDevice: model.DevicePC,
	}
}

func (a *adminModel) setCategories(names []string) {
	current := a.category()
	a.categories = names
	a.catIndex = 0
	for i, n := range names {
		if n == current {
			a.catIndex = i
			break
		}
	}
}

func (a *adminModel) category() string {
	if a.catIndex >= 0 && a.catIndex < len(a.categories) {
		return a.categories[a.catIndex]
	}
	return ""
}

func (a *adminModel) creatingCategory() bool {
	return a.category() == model.CreateNewCategory
}

// fields lists the focusable fields of the current mode in order.
func (a *adminModel) fields() []adminField {
	if a.mode == modeBulk {
		return []adminField{fieldQuery, fieldBulkDevice}
	}
	fs := []adminField{fieldName, fieldDescription, fieldCategory}
	if a.creatingCategory() {
		fs = append(fs, fieldNewCategory)
	}
	return append(fs, fieldDevice, fieldImage)
}

func (a *adminModel) input(f adminField) *textinput.Model {
	switch f {
	case fieldName:
		return &a.name
	case fieldDescription:
		return &a.desc
	case fieldNewCategory:
		return &a.newCat
	case fieldImage:
		return &a.image
	case fieldQuery:
		return &a.query
	}
	return nil
}

// typing reports whether a text input currently owns the keyboard.
func (a *adminModel) typing(unlocked bool) bool {
	if !unlocked {
		return a.pin.Focused()
	}
	return a.input(a.focus) != nil
}

func (a *adminModel) focusField(f adminField) tea.Cmd {
	for _, in := range []*textinput.Model{&a.name, &a.desc, &a.newCat, &a.image, &a.query} {
		in.Blur()
	}
	a.focus = f
	if in := a.input(f); in != nil {
		return in.Focus()
	}
	return nil
}

func (a *adminModel) moveFocus(delta int) tea.Cmd {
	fs := a.fields()
	idx := 0
	for i, f := range fs {
		if f == a.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(fs)) % len(fs)
	return a.focusField(fs[idx])
}

func (a *adminModel) lastField() bool {
	fs := a.fields()
	return a.focus == fs[len(fs)-1]
}

func (a *adminModel) toggleMode() tea.Cmd {
	if a.mode == modeManual {
		a.mode = modeBulk
	} else {
		a.mode = modeManual
	}
	return a.focusField(a.fields()[0])
}

// cycle changes the value of a select field.
func (a *adminModel) cycle(delta int) {
	switch a.focus {
	case fieldCategory:
		n := len(a.categories)
		if n > 0 {
			a.catIndex = (a.catIndex + delta + n) % n
		}
	case fieldDevice:
		a.device = a.device.Other()
	case fieldBulkDevice:
		a.bulkDevice = a.bulkDevice.Other()
	}
}

func (a *adminModel) manualRequest() (admin.ManualRequest, string) {
	req := admin.ManualRequest{
		Name:        a.name.Value(),
		Description: a.desc.Value(),
		Device:      a.device,
		Category:    a.category(),
	}
	if a.creatingCategory() {
		req.NewCategory = a.newCat.Value()
	}
	return req, strings.TrimSpace(a.image.Value())
}

func (a *adminModel) bulkRequest() admin.BulkRequest {
	return admin.BulkRequest{Query: a.query.Value(), Device: a.bulkDevice}
}

func (a *adminModel) reset() {
	a.name.SetValue("")
	a.desc.SetValue("")
	a.newCat.SetValue("")
	a.image.SetValue("")
	a.query.SetValue("")
	a.submitting = false
}

func (a *adminModel) view(width int, unlocked bool, spin string) string {
	var sb strings.Builder

	if !unlocked {
		sb.WriteString(titleStyle.Render("  Admin access"))
		sb.WriteString("\n  ")
		sb.WriteString(a.pin.View())
		sb.WriteString("\n")
		if a.pinErr != "" {
			sb.WriteString(errorStyle.Render("  " + a.pinErr))
			sb.WriteString("\n")
		}
		sb.WriteString(helpStyle.Render("\n  Enter: unlock"))
		return sb.String()
	}

	manualTab, bulkTab := tabActiveStyle, tabInactiveStyle
	if a.mode == modeBulk {
		manualTab, bulkTab = tabInactiveStyle, tabActiveStyle
	}
	sb.WriteString("  " + manualTab.Render("Upload") + " " + bulkTab.Render("Bulk fetch"))
	sb.WriteString("\n\n")

	for _, f := range a.fields() {
		sb.WriteString(a.fieldView(f))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if a.submitting {
		sb.WriteString(fmt.Sprintf("  %s Submitting...\n", spin))
	} else {
		sb.WriteString(helpStyle.Render("  ↑/↓: field  ←/→: change choice  Enter: next  Ctrl+S: submit  Ctrl+B: switch form  Ctrl+L: lock"))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (a *adminModel) fieldView(f adminField) string {
	label, value := "", ""
	switch f {
	case fieldName:
		label, value = "Name", a.name.View()
	case fieldDescription:
		label, value = "Description", a.desc.View()
	case fieldCategory:
		label, value = "Category", "‹ "+a.category()+" ›"
	case fieldNewCategory:
		label, value = "New category", a.newCat.View()
	case fieldDevice:
		label, value = "Device", "‹ "+a.device.Label()+" ›"
	case fieldImage:
		label, value = "Image file", a.image.View()
	case fieldQuery:
		label, value = "Query", a.query.View()
	case fieldBulkDevice:
		label, value = "Device", "‹ "+a.bulkDevice.Label()+" ›"
	}
	marker := "  "
	if f == a.focus {
		marker = inputPromptStyle.Render("› ")
	}
	return "  " + marker + labelStyle.Render(label) + value
}

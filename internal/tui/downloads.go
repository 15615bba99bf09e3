package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/JohnDeved/wallhub/internal/downloader"
	"github.com/JohnDeved/wallhub/internal/util"
)

// downloadsModel lists the saves of this session, newest last.
type downloadsModel struct {
	listView
	items []*downloader.Item
	bar   progress.Model
}

func newDownloadsModel() downloadsModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	return downloadsModel{
		listView: listView{height: 20},
		bar:      bar,
	}
}

func (d *downloadsModel) setItems(items []*downloader.Item) {
	d.items = items
	d.setLen(len(items))
}

func (d *downloadsModel) selected() *downloader.Item {
	if d.cursor < len(d.items) && len(d.items) > 0 {
		return d.items[d.cursor]
	}
	return nil
}

// row is a consistent copy of an item's fields for rendering.
type row struct {
	name        string
	status      downloader.Status
	dest        string
	err         error
	done, total int64
	progress    float64
	speed       float64
}

func snapshotRow(it *downloader.Item) row {
	it.Mu.Lock()
	r := row{name: it.Name, status: it.Status, dest: it.DestPath, err: it.Error}
	it.Mu.Unlock()
	r.done = it.DoneBytes.Load()
	r.total = it.TotalBytes.Load()
	r.progress = it.Progress()
	r.speed = it.Speed()
	return r
}

func statusBadge(s downloader.Status) string {
	switch s {
	case downloader.StatusActive:
		return warningStyle.Render("↓")
	case downloader.StatusCompleted:
		return successStyle.Render("✓")
	default:
		return errorStyle.Render("✗")
	}
}

func (d *downloadsModel) view(width int) string {
	if len(d.items) == 0 {
		return helpStyle.Render("\n  No downloads yet. Press d on a wallpaper or in its preview to save it.\n")
	}

	rows := make([]row, len(d.items))
	counts := map[downloader.Status]int{}
	for i, it := range d.items {
		rows[i] = snapshotRow(it)
		counts[rows[i].status]++
	}

	var sb strings.Builder
	sb.WriteString(helpStyle.Render(fmt.Sprintf("  %d downloading · %d saved · %d failed",
		counts[downloader.StatusActive], counts[downloader.StatusCompleted], counts[downloader.StatusFailed])))
	sb.WriteString("\n\n")

	if width > 100 {
		d.bar.Width = 40
	} else {
		d.bar.Width = 30
	}

	start, end := d.window()
	for i := start; i < end; i++ {
		r := rows[i]
		line := fmt.Sprintf("  %s %s", statusBadge(r.status), nameStyle.Render(util.TruncateText(r.name, 40)))

		switch r.status {
		case downloader.StatusActive:
			line += "  " + d.bar.ViewAs(r.progress)
			if r.total > 0 {
				line += fmt.Sprintf("  %s / %s", util.FormatBytes(r.done), util.FormatBytes(r.total))
			}
			if s := util.FormatSpeed(r.speed); s != "" {
				line += "  " + s
			}
		case downloader.StatusCompleted:
			line += "  " + descStyle.Render(util.FormatBytes(r.done))
		case downloader.StatusFailed:
			if r.err != nil {
				line += "  " + errorStyle.Render(r.err.Error())
			}
		}

		if i == d.cursor {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")

		if r.dest != "" && width > 80 {
			sb.WriteString(helpStyle.Render("    " + util.TruncatePath(r.dest, width-8)))
			sb.WriteString("\n")
		}
	}

	if pos := d.position("downloads"); pos != "" {
		sb.WriteString(helpStyle.Render(pos))
		sb.WriteString("\n")
	}
	return sb.String()
}

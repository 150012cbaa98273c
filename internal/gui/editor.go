// Package gui is the desktop front end: it collects a URL, an output
// folder, a title and a subtitle, runs a batch and lists the clips for
// playback and re-trimming.
package gui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
	"github.com/kikiluvv/ytclipper/internal/video"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

const appID = "com.kikiluvv.ytclipper"

// Editor is the main window.
type Editor struct {
	app     fyne.App
	window  fyne.Window
	session *Session

	title    *widget.Entry
	subtitle *widget.Entry
	status   *widget.Label
	progress *widget.ProgressBar
	list     *widget.List
	start    *widget.Button
	open     *widget.Button
}

// Run opens the window and blocks until it is closed.
func Run(runner Runner, logger zerolog.Logger) {
	a := app.NewWithID(appID)
	e := newEditor(a, NewSession(runner, logger))
	e.window.ShowAndRun()
}

func newEditor(a fyne.App, session *Session) *Editor {
	e := &Editor{
		app:     a,
		window:  a.NewWindow("ytclipper"),
		session: session,
	}
	e.window.Resize(fyne.NewSize(640, 480))

	e.title = widget.NewEntry()
	e.title.SetPlaceHolder("Enter title here")
	e.subtitle = widget.NewEntry()
	e.subtitle.SetPlaceHolder("Enter subtitle here")

	e.status = widget.NewLabel("No video loaded")
	e.progress = widget.NewProgressBar()
	e.progress.Max = 100

	e.start = widget.NewButtonWithIcon("Start", theme.DownloadIcon(), e.promptURL)
	e.open = widget.NewButtonWithIcon("Open File", theme.FolderOpenIcon(), e.promptFile)

	e.list = widget.NewList(
		func() int { return e.session.Clips().Len() },
		e.newClipRow,
		e.updateClipRow,
	)

	top := container.NewVBox(
		container.NewGridWithColumns(2, e.title, e.subtitle),
		container.NewHBox(e.start, e.open),
	)
	bottom := container.NewBorder(nil, nil, e.status, nil, e.progress)
	e.window.SetContent(container.NewBorder(top, bottom, nil, nil, e.list))
	return e
}

func (e *Editor) newClipRow() fyne.CanvasObject {
	play := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	edit := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil)
	return container.NewBorder(nil, nil, nil, container.NewHBox(play, edit), widget.NewLabel(""))
}

func (e *Editor) updateClipRow(id widget.ListItemID, obj fyne.CanvasObject) {
	clip := e.session.Clips().At(id)
	if clip == nil {
		return
	}
	row := obj.(*fyne.Container)
	label := row.Objects[0].(*widget.Label)
	buttons := row.Objects[1].(*fyne.Container)
	play := buttons.Objects[0].(*widget.Button)
	edit := buttons.Objects[1].(*widget.Button)

	label.SetText(clipLabel(clip))
	play.OnTapped = func() { e.play(clip) }
	edit.OnTapped = func() { e.promptEdit(id, clip) }
}

func clipLabel(c *clips.Clip) string {
	return fmt.Sprintf("%s  %ss - %ss", filepath.Base(c.Path), util.FormatSeconds(c.Start), util.FormatSeconds(c.End))
}

func (e *Editor) promptURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://www.youtube.com/watch?v=...")
	items := []*widget.FormItem{widget.NewFormItem("YouTube URL", entry)}

	dialog.ShowForm("YouTube URL", "Next", "Cancel", items, func(ok bool) {
		link := strings.TrimSpace(entry.Text)
		if !ok || link == "" {
			return
		}
		e.chooseFolder(func(dir string) {
			e.startBatch(pipeline.Request{URL: link, OutputDir: dir})
		})
	}, e.window)
}

func (e *Editor) promptFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, e.window)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		e.chooseFolder(func(dir string) {
			e.startBatch(pipeline.Request{SourcePath: path, OutputDir: dir})
		})
	}, e.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".mp4", ".mov", ".mkv", ".webm"}))
	fd.Show()
}

func (e *Editor) chooseFolder(next func(dir string)) {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, e.window)
			return
		}
		if uri == nil {
			return
		}
		next(uri.Path())
	}, e.window)
}

func (e *Editor) startBatch(req pipeline.Request) {
	req.Annotation = clips.Annotation{Title: e.title.Text, Subtitle: e.subtitle.Text}

	cb := Callbacks{
		Source: func(src *video.Source) {
			fyne.Do(func() {
				e.status.SetText("Loaded: " + filepath.Base(src.Path))
			})
		},
		Progress: func(p int) {
			fyne.Do(func() { e.progress.SetValue(float64(p)) })
		},
		Done: func(rendered []*clips.Clip, err error) {
			fyne.Do(func() {
				e.setRunning(false)
				if err != nil {
					e.status.SetText("Failed")
					dialog.ShowError(err, e.window)
					return
				}
				e.status.SetText(fmt.Sprintf("%d clips", len(rendered)))
				e.list.Refresh()
			})
		},
	}

	e.progress.SetValue(0)
	e.status.SetText("Working...")
	e.setRunning(true)
	if err := e.session.Start(context.Background(), req, cb); err != nil {
		e.setRunning(false)
		e.status.SetText("Idle")
		dialog.ShowError(err, e.window)
	}
}

func (e *Editor) setRunning(running bool) {
	if running {
		e.start.Disable()
		e.open.Disable()
		return
	}
	e.start.Enable()
	e.open.Enable()
}

// play hands the clip to the system player.
func (e *Editor) play(clip *clips.Clip) {
	u, err := url.Parse(storage.NewFileURI(clip.Path).String())
	if err == nil {
		err = e.app.OpenURL(u)
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("play %s: %w", filepath.Base(clip.Path), err), e.window)
	}
}

func (e *Editor) promptEdit(id widget.ListItemID, clip *clips.Clip) {
	startEntry := widget.NewEntry()
	startEntry.SetText(util.FormatSeconds(clip.Start))
	endEntry := widget.NewEntry()
	endEntry.SetText(util.FormatSeconds(clip.End))

	items := []*widget.FormItem{
		widget.NewFormItem("Start Time", startEntry),
		widget.NewFormItem("End Time", endEntry),
	}

	dialog.ShowForm("Edit Clip", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		start, err1 := util.ParseTimestamp(startEntry.Text)
		end, err2 := util.ParseTimestamp(endEntry.Text)
		if err := errors.Join(err1, err2); err != nil {
			dialog.ShowError(err, e.window)
			return
		}

		e.status.SetText("Re-trimming " + filepath.Base(clip.Path))
		go func() {
			err := e.session.Retrim(context.Background(), id, start, end)
			fyne.Do(func() {
				if err != nil {
					e.status.SetText("Edit failed")
					dialog.ShowError(err, e.window)
					return
				}
				e.status.SetText("Updated " + filepath.Base(clip.Path))
				e.list.RefreshItem(id)
			})
		}()
	}, e.window)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/usecase/history"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

const timeFormat = "2006-01-02 15:04:05"

// displayError logs the full error and returns the message shown to the user
func displayError(ctx context.Context, err error) error {
	logging.From(ctx).Debug("request failed", "error", err)
	return goerr.New(studio.Message(err))
}

// saveImage writes the image of a data URL to path, or to the download file
// name of rec when path is empty
func saveImage(rec model.Record, dataURL, path string) (string, error) {
	mimeType, data, err := model.DecodeDataURL(dataURL)
	if err != nil {
		return "", goerr.Wrap(err, "failed to decode image")
	}
	if path == "" {
		path = history.FileName(rec.Base(), mimeType)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write image", goerr.V("path", path))
	}
	return path, nil
}

func renderAdded(w io.Writer, rec model.Record, added bool) {
	if added {
		fmt.Fprintf(w, "History: %s\n", rec.Base().ID)
		return
	}
	fmt.Fprintf(w, "Same image as latest history entry %s, not added\n", rec.Base().ID)
}

func renderModels(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tASPECT RATIO\tIMAGE SIZE")
	for _, d := range model.Models() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.DisplayName, yesNo(d.SupportsAspectRatio), yesNo(d.SupportsImageSize))
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderHistory(w io.Writer, records []model.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No history records")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTYPE\tSETTINGS\tPROMPT")
	for _, r := range records {
		base := r.Base()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			base.ID, base.Timestamp.Format(timeFormat), r.Kind(), settingsLabel(r), truncate(base.Prompt, 60))
	}
	_ = tw.Flush()
}

func settingsLabel(r model.Record) string {
	switch rec := r.(type) {
	case *model.GenerateRecord:
		return fmt.Sprintf("%s %s %s", rec.Settings.Model, rec.Settings.AspectRatio, rec.Settings.ImageSize)
	case *model.EditRecord:
		return string(model.ImageModelFlashImage)
	default:
		return "-"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// recordView is the detail view of a record. Image payloads are summarized
// instead of printed.
type recordView struct {
	ID            model.HistoryID         `yaml:"id"`
	Type          model.RecordKind        `yaml:"type"`
	CreatedAt     string                  `yaml:"created_at"`
	Prompt        string                  `yaml:"prompt"`
	Image         string                  `yaml:"image"`
	Settings      *model.GenerateSettings `yaml:"settings,omitempty"`
	OriginalImage string                  `yaml:"original_image,omitempty"`
}

func newRecordView(r model.Record) (*recordView, error) {
	base := r.Base()
	view := &recordView{
		ID:        base.ID,
		Type:      r.Kind(),
		CreatedAt: base.Timestamp.Format(timeFormat),
		Prompt:    base.Prompt,
		Image:     imageLabel(base.ImageURL),
	}

	switch rec := r.(type) {
	case *model.GenerateRecord:
		settings := rec.Settings
		view.Settings = &settings
	case *model.EditRecord:
		view.OriginalImage = imageLabel(rec.OriginalImageURL)
	default:
		return nil, goerr.New("unsupported history record", goerr.V("id", base.ID))
	}

	return view, nil
}

func imageLabel(dataURL string) string {
	mimeType, data, err := model.DecodeDataURL(dataURL)
	if err != nil {
		return "(invalid image data)"
	}
	return fmt.Sprintf("%s, %d bytes", mimeType, len(data))
}

func renderRecord(w io.Writer, r model.Record, format string) error {
	view, err := newRecordView(r)
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return goerr.Wrap(err, "failed to encode record")
		}
		return enc.Close()

	case "text", "":
		fmt.Fprintf(w, "ID:       %s\n", view.ID)
		fmt.Fprintf(w, "Type:     %s\n", view.Type)
		fmt.Fprintf(w, "Created:  %s\n", view.CreatedAt)
		fmt.Fprintf(w, "Prompt:   %s\n", view.Prompt)
		fmt.Fprintf(w, "Image:    %s\n", view.Image)
		if view.Settings != nil {
			fmt.Fprintf(w, "Model:    %s\n", view.Settings.Model)
			fmt.Fprintf(w, "Aspect:   %s\n", view.Settings.AspectRatio)
			fmt.Fprintf(w, "Size:     %s\n", view.Settings.ImageSize)
		}
		if view.OriginalImage != "" {
			fmt.Fprintf(w, "Original: %s\n", view.OriginalImage)
		}
		return nil

	default:
		return goerr.New("unknown output format", goerr.V("format", format), goerr.T(model.TagValidation))
	}
}

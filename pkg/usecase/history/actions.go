package history

import (
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
)

// Get returns the record with id for detailed viewing
func (m *Manager) Get(id model.HistoryID) (model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.Base().ID == id {
			return r, nil
		}
	}
	return nil, goerr.New("history record not found", goerr.V("id", id), goerr.T(model.TagNotFound))
}

// Reuse returns the prompt and settings of a generate record so that they
// can prefill a new generate request. Edit records cannot be reused.
func (m *Manager) Reuse(id model.HistoryID) (string, model.GenerateSettings, error) {
	rec, err := m.Get(id)
	if err != nil {
		return "", model.GenerateSettings{}, err
	}

	switch r := rec.(type) {
	case *model.GenerateRecord:
		return r.Prompt, r.Settings, nil
	case *model.EditRecord:
		return "", model.GenerateSettings{}, goerr.New("only generated images can be reused",
			goerr.V("id", id), goerr.T(model.TagValidation))
	default:
		return "", model.GenerateSettings{}, goerr.New("unsupported history record", goerr.V("id", id))
	}
}

// Download writes the decoded image of a record to w and returns a suggested
// file name.
func (m *Manager) Download(id model.HistoryID, w io.Writer) (string, error) {
	rec, err := m.Get(id)
	if err != nil {
		return "", err
	}

	base := rec.Base()
	mimeType, data, err := model.DecodeDataURL(base.ImageURL)
	if err != nil {
		return "", goerr.Wrap(err, "history image is not downloadable", goerr.V("id", id))
	}

	if _, err := w.Write(data); err != nil {
		return "", goerr.Wrap(err, "failed to write image", goerr.V("id", id))
	}

	return FileName(base, mimeType), nil
}

// FileName returns the download name singhoo-studio-<unix millis><ext>
func FileName(base model.RecordBase, mimeType string) string {
	return fmt.Sprintf("singhoo-studio-%d%s", base.Timestamp.UnixMilli(), model.ImageExtension(mimeType))
}

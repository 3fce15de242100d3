package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

type RecordKind string

const (
	RecordKindGenerate RecordKind = "generate"
	RecordKindEdit     RecordKind = "edit"
)

// RecordBase holds the fields shared by every history record
type RecordBase struct {
	ID        HistoryID
	Timestamp time.Time
	Prompt    string
	ImageURL  string
}

// Record is one completed generate or edit result. It is implemented only by
// *GenerateRecord and *EditRecord; consumers switch on the concrete type.
type Record interface {
	Base() RecordBase
	Kind() RecordKind
	sealed()
}

// GenerateRecord is a text-to-image result
type GenerateRecord struct {
	RecordBase
	Settings GenerateSettings
}

func (r *GenerateRecord) Base() RecordBase { return r.RecordBase }
func (r *GenerateRecord) Kind() RecordKind { return RecordKindGenerate }
func (r *GenerateRecord) sealed()          {}

// EditRecord is an image+text-to-image result
type EditRecord struct {
	RecordBase
	OriginalImageURL string
}

func (r *EditRecord) Base() RecordBase { return r.RecordBase }
func (r *EditRecord) Kind() RecordKind { return RecordKindEdit }
func (r *EditRecord) sealed()          {}

// Candidate is a completed result that has not been assigned an ID and
// timestamp yet.
type Candidate interface {
	candidate()
}

type GenerateCandidate struct {
	Prompt   string
	ImageURL string
	Settings GenerateSettings
}

func (c *GenerateCandidate) candidate() {}

type EditCandidate struct {
	Prompt           string
	ImageURL         string
	OriginalImageURL string
}

func (c *EditCandidate) candidate() {}

// NewRecord turns a candidate into a record with the given identity
func NewRecord(c Candidate, id HistoryID, ts time.Time) (Record, error) {
	switch v := c.(type) {
	case *GenerateCandidate:
		return &GenerateRecord{
			RecordBase: RecordBase{ID: id, Timestamp: ts, Prompt: v.Prompt, ImageURL: v.ImageURL},
			Settings:   v.Settings,
		}, nil
	case *EditCandidate:
		return &EditRecord{
			RecordBase:       RecordBase{ID: id, Timestamp: ts, Prompt: v.Prompt, ImageURL: v.ImageURL},
			OriginalImageURL: v.OriginalImageURL,
		}, nil
	default:
		return nil, goerr.New("unsupported history candidate", goerr.V("type", c))
	}
}

// recordJSON is the persisted shape of a record. Timestamp is Unix
// milliseconds.
type recordJSON struct {
	ID               HistoryID         `json:"id"`
	Timestamp        int64             `json:"timestamp"`
	Prompt           string            `json:"prompt"`
	ImageURL         string            `json:"imageUrl"`
	Type             RecordKind        `json:"type"`
	Settings         *GenerateSettings `json:"settings,omitempty"`
	OriginalImageURL string            `json:"originalImageUrl,omitempty"`
}

// MarshalRecords serializes records in the given order
func MarshalRecords(records []Record) ([]byte, error) {
	out := make([]recordJSON, 0, len(records))
	for _, r := range records {
		base := r.Base()
		v := recordJSON{
			ID:        base.ID,
			Timestamp: base.Timestamp.UnixMilli(),
			Prompt:    base.Prompt,
			ImageURL:  base.ImageURL,
		}

		switch rec := r.(type) {
		case *GenerateRecord:
			settings := rec.Settings
			v.Type = RecordKindGenerate
			v.Settings = &settings
		case *EditRecord:
			v.Type = RecordKindEdit
			v.OriginalImageURL = rec.OriginalImageURL
		default:
			return nil, goerr.New("unsupported history record", goerr.V("id", base.ID))
		}

		out = append(out, v)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal history records")
	}
	return data, nil
}

// UnmarshalRecords parses a serialized collection. It fails only when data
// is not a JSON array; elements that cannot be interpreted as a record are
// dropped and counted in skipped.
func UnmarshalRecords(data []byte) (records []Record, skipped int, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to unmarshal history records")
	}

	records = make([]Record, 0, len(raws))
	for _, raw := range raws {
		var v recordJSON
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped++
			continue
		}
		if v.ID == "" || v.ImageURL == "" {
			skipped++
			continue
		}

		kind := v.Type
		if kind == "" {
			// Untagged shapes written before the type field existed
			switch {
			case v.Settings != nil:
				kind = RecordKindGenerate
			case v.OriginalImageURL != "":
				kind = RecordKindEdit
			}
		}

		base := RecordBase{
			ID:        v.ID,
			Timestamp: time.UnixMilli(v.Timestamp),
			Prompt:    v.Prompt,
			ImageURL:  v.ImageURL,
		}

		switch kind {
		case RecordKindGenerate:
			rec := &GenerateRecord{RecordBase: base}
			if v.Settings != nil {
				rec.Settings = *v.Settings
			}
			records = append(records, rec)
		case RecordKindEdit:
			records = append(records, &EditRecord{RecordBase: base, OriginalImageURL: v.OriginalImageURL})
		default:
			skipped++
		}
	}

	return records, skipped, nil
}

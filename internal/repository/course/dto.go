package course

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/makoye224/cwru-courses-backend/internal/db"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
)

// Stored attribute names. createdBy doubles as the secondary index attribute.
const (
	attrTitle         = "title"
	attrDescription   = "description"
	attrCreatedBy     = db.IndexCreatedBy
	attrCreatedAt     = "createdAt"
	attrAliases       = "aliases"
	attrPrerequisites = "prerequisites"
	attrProfessors    = "professors"
	attrReviews       = "reviews"
)

// blobSchema is the current version tag of collection attributes.
const blobSchema = 1

// blob is the stored shape of every collection attribute: {"schema":1,"items":[...]}.
type blob[T any] struct {
	Schema int `json:"schema"`
	Items  []T `json:"items"`
}

// reviewRow is the storage shape of a review, decoupled from domain.Review.
type reviewRow struct {
	ReviewID           string `json:"reviewId"`
	CreatedBy          string `json:"createdBy"`
	Overall            int    `json:"overall"`
	Difficulty         int    `json:"difficulty"`
	Usefulness         int    `json:"usefulness"`
	Major              string `json:"major,omitempty"`
	Anonymous          bool   `json:"anonymous"`
	AdditionalComments string `json:"additionalComments,omitempty"`
	Tips               string `json:"tips,omitempty"`
	CreatedAt          string `json:"createdAt,omitempty"`
	Professor          string `json:"professor,omitempty"`
}

// toItem flattens a course into a storage item at the course's version.
func toItem(c domcourse.Course) (db.Item, error) {
	rows := make([]reviewRow, len(c.Reviews()))
	for i, r := range c.Reviews() {
		rows[i] = reviewRow{
			ReviewID: r.ID, CreatedBy: r.CreatedBy,
			Overall: r.Overall, Difficulty: r.Difficulty, Usefulness: r.Usefulness,
			Major: r.Major, Anonymous: r.Anonymous,
			AdditionalComments: r.AdditionalComments, Tips: r.Tips,
			CreatedAt: r.CreatedAt, Professor: r.Professor,
		}
	}

	attrs := map[string]string{
		attrTitle:       c.Title(),
		attrDescription: c.Description(),
		attrCreatedBy:   c.CreatedBy(),
		attrCreatedAt:   c.CreatedAt(),
	}
	for name, items := range map[string]any{
		attrAliases:       blob[string]{Schema: blobSchema, Items: nonNil(c.Aliases())},
		attrPrerequisites: blob[string]{Schema: blobSchema, Items: nonNil(c.Prerequisites())},
		attrProfessors:    blob[string]{Schema: blobSchema, Items: nonNil(c.Professors())},
		attrReviews:       blob[reviewRow]{Schema: blobSchema, Items: rows},
	} {
		data, err := json.Marshal(items)
		if err != nil {
			return db.Item{}, fmt.Errorf("marshal %s: %w", name, err)
		}
		attrs[name] = string(data)
	}

	return db.Item{
		Key:        db.Key{Name: c.Name(), Code: c.Code()},
		Version:    c.Version(),
		Attributes: attrs,
	}, nil
}

// fromItem rebuilds a course from a storage item. The stored title is
// ignored; it is always derived from the key.
func fromItem(it db.Item) (domcourse.Course, error) {
	aliases, err := decodeBlob[string](it.Attr(attrAliases))
	if err != nil {
		return domcourse.Course{}, fmt.Errorf("%s %s: %w", it.Key, attrAliases, err)
	}
	prereqs, err := decodeBlob[string](it.Attr(attrPrerequisites))
	if err != nil {
		return domcourse.Course{}, fmt.Errorf("%s %s: %w", it.Key, attrPrerequisites, err)
	}
	professors, err := decodeBlob[string](it.Attr(attrProfessors))
	if err != nil {
		return domcourse.Course{}, fmt.Errorf("%s %s: %w", it.Key, attrProfessors, err)
	}
	rows, err := decodeBlob[reviewRow](it.Attr(attrReviews))
	if err != nil {
		return domcourse.Course{}, fmt.Errorf("%s %s: %w", it.Key, attrReviews, err)
	}

	reviews := make([]domcourse.Review, len(rows))
	for i, r := range rows {
		reviews[i] = domcourse.Review{
			ID: r.ReviewID, CreatedBy: r.CreatedBy,
			Overall: r.Overall, Difficulty: r.Difficulty, Usefulness: r.Usefulness,
			Major: r.Major, Anonymous: r.Anonymous,
			AdditionalComments: r.AdditionalComments, Tips: r.Tips,
			CreatedAt: r.CreatedAt, Professor: r.Professor,
		}
	}

	return domcourse.Reconstruct(
		domcourse.Key{Name: it.Key.Name, Code: it.Key.Code},
		it.Attr(attrDescription), it.Attr(attrCreatedBy), it.Attr(attrCreatedAt),
		aliases, prereqs, professors, reviews, it.Version,
	), nil
}

// decodeBlob accepts the tagged format, a legacy bare JSON array, or nothing.
func decodeBlob[T any](s string) ([]T, error) {
	raw := bytes.TrimSpace([]byte(s))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode legacy array: %w", err)
		}
		return nonNil(items), nil
	}

	var b blob[T]
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}
	if b.Schema != blobSchema {
		return nil, fmt.Errorf("unsupported schema version %d", b.Schema)
	}
	return nonNil(b.Items), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

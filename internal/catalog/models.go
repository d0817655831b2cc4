package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Field keys shared by validation messages and the mutation error bag.
const (
	FieldTitle        = "title"
	FieldBody         = "body"
	FieldAuthor       = "author"
	FieldReleaseDate  = "releaseDate"
	FieldArchiveDate  = "archiveDate"
	FieldMainCategory = "mainCategory"
	FieldSubmit       = "submit"
)

// Status is the load status of one catalog resource.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ID identifies a persisted news item. The backend may encode it as a JSON
// string or number; both decode to the same value.
type ID string

func (id ID) MarshalJSON() ([]byte, error) {
	if id != "" {
		if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
			return []byte(id), nil
		}
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

type Subcategory struct {
	ID           int    `json:"id"`
	MainCategory string `json:"mainCategory,omitempty"`
	Subcategory  string `json:"subcategory,omitempty"`
}

type News struct {
	ID                  ID            `json:"id,omitempty"`
	Title               string        `json:"title"`
	Body                string        `json:"body"`
	Author              string        `json:"author"`
	ReleaseDate         string        `json:"releaseDate"`
	ArchiveDate         string        `json:"archiveDate"`
	MainCategory        string        `json:"mainCategory"`
	OtherCategoriesList []string      `json:"otherCategoriesList"`
	SubcategoriesList   []Subcategory `json:"subcategoriesList"`
}

// Persisted reports whether the backend has assigned an id.
func (n News) Persisted() bool {
	return n.ID != ""
}

// Clone returns a copy that shares no slices with n.
func (n News) Clone() News {
	out := n
	out.OtherCategoriesList = append([]string{}, n.OtherCategoriesList...)
	out.SubcategoriesList = append([]Subcategory{}, n.SubcategoriesList...)
	return out
}

func (n News) SubcategoryIDs() []int {
	ids := make([]int, 0, len(n.SubcategoriesList))
	for _, s := range n.SubcategoriesList {
		ids = append(ids, s.ID)
	}
	return ids
}

// HasSubcategoryNamed reports whether any attached subcategory has the
// given display name.
func (n News) HasSubcategoryNamed(name string) bool {
	for _, s := range n.SubcategoriesList {
		if s.Subcategory == name {
			return true
		}
	}
	return false
}

// FieldErrors maps a field key to its message. An empty message means the
// field is valid.
type FieldErrors map[string]string

func (fe FieldErrors) Set(field, message string) {
	if message == "" {
		delete(fe, field)
		return
	}
	fe[field] = message
}

func (fe FieldErrors) Get(field string) string {
	return fe[field]
}

// Blocking reports whether any message is present.
func (fe FieldErrors) Blocking() bool {
	for _, msg := range fe {
		if msg != "" {
			return true
		}
	}
	return false
}

func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// Draft is a news record being composed or edited together with its
// transient error bag. It never reaches the store; the backend's response
// does.
type Draft struct {
	News   News
	Errors FieldErrors
}

func NewDraft() *Draft {
	return &Draft{
		News: News{
			OtherCategoriesList: []string{},
			SubcategoriesList:   []Subcategory{},
		},
		Errors: FieldErrors{},
	}
}

// DraftFrom seeds a draft for editing an existing item.
func DraftFrom(n News) *Draft {
	return &Draft{News: n.Clone(), Errors: FieldErrors{}}
}

// Editing reports whether the draft targets an existing item.
func (d *Draft) Editing() bool {
	return d.News.Persisted()
}

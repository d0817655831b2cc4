package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/selection"
)

type formField int

const (
	fieldTitle formField = iota
	fieldBody
	fieldAuthor
	fieldReleaseDate
	fieldArchiveDate
	fieldMain
	fieldOthers
	fieldSubs
	fieldSubmit
	fieldCount
)

var fieldLabels = map[formField]string{
	fieldTitle:       "Title",
	fieldBody:        "Body",
	fieldAuthor:      "Author",
	fieldReleaseDate: "Release date",
	fieldArchiveDate: "Archive date (at least 30 days after release)",
	fieldMain:        "Main category",
	fieldOthers:      "Other categories",
	fieldSubs:        "Subcategories",
}

var fieldKeys = map[formField]string{
	fieldTitle:       catalog.FieldTitle,
	fieldBody:        catalog.FieldBody,
	fieldAuthor:      catalog.FieldAuthor,
	fieldReleaseDate: catalog.FieldReleaseDate,
	fieldArchiveDate: catalog.FieldArchiveDate,
	fieldMain:        catalog.FieldMainCategory,
}

// newsForm is the create and edit form. The draft it holds is the one
// submitted, so a failed save leaves its submit error in place for a retry.
type newsForm struct {
	draft     *catalog.Draft
	editingID catalog.ID
	selection *selection.Controller

	inputs map[formField]*textinput.Model
	body   textarea.Model

	focus   formField
	cursors map[formField]int
	pending int
}

func newNewsForm(d *catalog.Draft) *newsForm {
	f := &newsForm{
		draft:     d,
		editingID: d.News.ID,
		selection: selection.FromNews(d.News),
		inputs:    map[formField]*textinput.Model{},
		cursors:   map[formField]int{},
	}
	if f.draft.Errors == nil {
		f.draft.Errors = catalog.FieldErrors{}
	}

	values := map[formField]string{
		fieldTitle:       d.News.Title,
		fieldAuthor:      d.News.Author,
		fieldReleaseDate: d.News.ReleaseDate,
		fieldArchiveDate: d.News.ArchiveDate,
	}
	placeholders := map[formField]string{
		fieldTitle:       "Enter title",
		fieldAuthor:      "Enter author name",
		fieldReleaseDate: "YYYY-MM-DD",
		fieldArchiveDate: "YYYY-MM-DD",
	}
	for field, value := range values {
		ti := textinput.New()
		ti.Placeholder = placeholders[field]
		ti.SetValue(value)
		f.inputs[field] = &ti
	}
	f.inputs[fieldTitle].CharLimit = 0

	f.body = textarea.New()
	f.body.Placeholder = "Enter body content"
	f.body.ShowLineNumbers = false
	f.body.SetHeight(5)
	f.body.SetValue(d.News.Body)

	f.focusField(fieldTitle)
	return f
}

func (f *newsForm) Editing() bool {
	return f.editingID != ""
}

func (f *newsForm) Title() string {
	if f.Editing() {
		return "› edit news"
	}
	return "› create news"
}

func (f *newsForm) SetWidth(width int) {
	w := width - 8
	if w < 20 {
		w = width
	}
	for _, in := range f.inputs {
		in.Width = w
	}
	f.body.SetWidth(w)
}

func (f *newsForm) focusField(field formField) {
	for _, in := range f.inputs {
		in.Blur()
	}
	f.body.Blur()

	f.focus = field
	if in, ok := f.inputs[field]; ok {
		in.Focus()
	}
	if field == fieldBody {
		f.body.Focus()
	}
}

func (f *newsForm) next() {
	f.focusField((f.focus + 1) % fieldCount)
}

func (f *newsForm) prev() {
	f.focusField((f.focus + fieldCount - 1) % fieldCount)
}

// typing reports whether keys go to a text widget.
func (f *newsForm) typing() bool {
	return f.focus <= fieldArchiveDate
}

// update sends a key to the focused text widget and revalidates the field.
func (f *newsForm) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case f.focus == fieldBody:
		f.body, cmd = f.body.Update(msg)
	case f.inputs[f.focus] != nil:
		var in textinput.Model
		in, cmd = f.inputs[f.focus].Update(msg)
		*f.inputs[f.focus] = in
	default:
		return nil
	}
	f.syncField(f.focus)
	return cmd
}

func (f *newsForm) value(field formField) string {
	if field == fieldBody {
		return f.body.Value()
	}
	if in, ok := f.inputs[field]; ok {
		return in.Value()
	}
	return ""
}

func (f *newsForm) syncField(field formField) {
	v := f.value(field)
	n := &f.draft.News
	switch field {
	case fieldTitle:
		n.Title = v
	case fieldBody:
		n.Body = v
	case fieldAuthor:
		n.Author = v
	case fieldReleaseDate:
		n.ReleaseDate = strings.TrimSpace(v)
	case fieldArchiveDate:
		n.ArchiveDate = strings.TrimSpace(v)
	default:
		return
	}
	key := fieldKeys[field]
	f.draft.Errors.Set(key, selection.ValidateField(key, v))
}

// pickerOptions lists what the focused picker can choose from.
func (f *newsForm) pickerOptions(field formField, mains []string, subs []catalog.Subcategory) []string {
	switch field {
	case fieldMain:
		return mains
	case fieldOthers:
		out := make([]string, 0, len(mains))
		for _, m := range mains {
			if m != f.selection.MainCategory() {
				out = append(out, m)
			}
		}
		return out
	case fieldSubs:
		scoped := f.selection.FilteredSubcategories(subs)
		out := make([]string, 0, len(scoped))
		for _, s := range scoped {
			out = append(out, s.Subcategory)
		}
		return out
	default:
		return nil
	}
}

// movePicker moves the cursor of the focused picker. On the main category
// picker moving also selects.
func (f *newsForm) movePicker(delta int, mains []string, subs []catalog.Subcategory) {
	opts := f.pickerOptions(f.focus, mains, subs)
	if len(opts) == 0 {
		return
	}
	cur := f.cursors[f.focus]
	if f.focus == fieldMain {
		if i := slices.Index(opts, f.selection.MainCategory()); i >= 0 {
			cur = i
		} else if delta > 0 {
			cur = -1
		}
	}
	cur = (cur + delta + len(opts)) % len(opts)
	f.cursors[f.focus] = cur

	if f.focus == fieldMain {
		f.selection.SelectMainCategory(opts[cur])
		f.cursors[fieldOthers] = 0
		f.cursors[fieldSubs] = 0
		f.draft.Errors.Set(catalog.FieldMainCategory, "")
		f.selection.Apply(f.draft)
	}
}

// togglePicker toggles the option under the cursor of a multi-select
// picker.
func (f *newsForm) togglePicker(mains []string, subs []catalog.Subcategory) error {
	opts := f.pickerOptions(f.focus, mains, subs)
	cur := f.cursors[f.focus]
	if cur < 0 || cur >= len(opts) {
		return nil
	}

	switch f.focus {
	case fieldOthers:
		f.selection.ToggleOtherCategory(opts[cur])
	case fieldSubs:
		scoped := f.selection.FilteredSubcategories(subs)
		if err := f.selection.ToggleSubcategoryIn(subs, scoped[cur].ID); err != nil {
			return err
		}
	default:
		return nil
	}
	f.selection.Apply(f.draft)
	return nil
}

// prepareSubmit writes every field into the draft and validates it as a
// whole. A previous submit error is dropped.
func (f *newsForm) prepareSubmit() bool {
	for field := fieldTitle; field <= fieldArchiveDate; field++ {
		f.syncField(field)
	}
	f.selection.Apply(f.draft)

	errs := selection.Validate(f.draft.News)
	if f.draft.News.MainCategory == "" {
		errs.Set(catalog.FieldMainCategory, "Main category is required.")
	}
	f.draft.Errors = errs
	return selection.CanSubmit(f.draft)
}

func (f *newsForm) view(width int, mains []string, subs []catalog.Subcategory) string {
	rows := []string{renderHeader(f.Title(), "", width), ""}

	for field := fieldTitle; field < fieldSubmit; field++ {
		label := LabelStyle.Render(fieldLabels[field])
		if field == f.focus {
			label = FocusedLabelStyle.Render("› " + fieldLabels[field])
		}
		rows = append(rows, label)

		switch {
		case field == fieldBody:
			rows = append(rows, f.body.View())
		case f.inputs[field] != nil:
			rows = append(rows, f.inputs[field].View())
		default:
			rows = append(rows, f.pickerView(field, mains, subs))
		}
		if key, ok := fieldKeys[field]; ok {
			if msg := renderFieldError(f.draft.Errors.Get(key)); msg != "" {
				rows = append(rows, msg)
			}
		}
		rows = append(rows, "")
	}

	button := "[ Create news ]"
	if f.Editing() {
		button = "[ Save changes ]"
	}
	if f.focus == fieldSubmit {
		button = SelectedItemStyle.Render(button)
	}
	if f.pending > 0 {
		button += " " + renderMuted(MsgSaving)
	}
	rows = append(rows, button)
	if msg := renderFieldError(f.draft.Errors.Get(catalog.FieldSubmit)); msg != "" {
		rows = append(rows, msg)
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (f *newsForm) pickerView(field formField, mains []string, subs []catalog.Subcategory) string {
	opts := f.pickerOptions(field, mains, subs)
	if len(opts) == 0 {
		if field == fieldSubs && f.selection.MainCategory() == "" {
			return renderMuted("pick a main category first")
		}
		return renderMuted("none available")
	}

	var scoped []catalog.Subcategory
	if field == fieldSubs {
		scoped = f.selection.FilteredSubcategories(subs)
	}

	parts := make([]string, 0, len(opts))
	for i, opt := range opts {
		var selected bool
		switch field {
		case fieldMain:
			selected = opt == f.selection.MainCategory()
		case fieldOthers:
			selected = f.selection.HasOtherCategory(opt)
		case fieldSubs:
			selected = f.selection.HasSubcategory(scoped[i].ID)
		}

		mark := "( )"
		if field != fieldMain {
			mark = "[ ]"
		}
		if selected {
			mark = strings.Replace(mark, " ", "x", 1)
		}
		text := mark + " " + opt
		if field == f.focus && field != fieldMain && i == f.cursors[field] {
			text = SelectedItemStyle.Render(text)
		} else if selected {
			text = FilterValueStyle.Render(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "  ")
}

package tui

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/config"
	"github.com/Faffo96/news-exercise-front/internal/filter"
	"github.com/Faffo96/news-exercise-front/internal/search"
	"github.com/Faffo96/news-exercise-front/internal/store"
	"github.com/Faffo96/news-exercise-front/internal/syncer"
)

// Deps are the collaborators the app drives.
type Deps struct {
	Engine   *syncer.Engine
	Searcher search.Searcher
	// Account is shown in the status bar, usually the token subject.
	Account string
	// CachedAt is when the restored snapshot was written. Zero if nothing
	// was restored.
	CachedAt time.Time
	Context  context.Context
	Now      func() time.Time
}

type App struct {
	config     *config.Config
	engine     *syncer.Engine
	store      *store.Catalog
	searcher   search.Searcher
	keyHandler *KeyHandler
	ctx        context.Context
	now        func() time.Time

	newsList    list.Model
	searchList  list.Model
	searchInput textinput.Model
	viewport    viewport.Model

	view           View
	previousView   View
	cameFromSearch bool
	criteria       filter.Criteria
	visible        []catalog.News
	current        *catalog.News
	toDelete       *catalog.News
	form           *newsForm
	rendering      bool

	account  string
	cachedAt time.Time

	status     string
	statusKind StatusKind
	statusSeq  int

	searchSeq          int
	pendingSearchQuery string
	searchDebounce     time.Duration

	width  int
	height int

	rendererMu      sync.Mutex
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	newsList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	newsList.Title = "› news"
	newsList.SetShowStatusBar(false)
	newsList.SetFilteringEnabled(true)
	newsList.SetShowHelp(true)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search title, body, author or category..."

	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	searcher := deps.Searcher
	if searcher == nil {
		searcher = search.NewEngine(deps.Engine.Store())
	}

	ApplyTheme(cfg.UI.Colors)

	app := &App{
		config:         cfg,
		engine:         deps.Engine,
		store:          deps.Engine.Store(),
		searcher:       searcher,
		ctx:            ctx,
		now:            now,
		newsList:       newsList,
		searchList:     searchList,
		searchInput:    si,
		viewport:       viewport.New(0, 0),
		view:           ViewNews,
		previousView:   ViewNews,
		criteria:       filter.Default(),
		account:        deps.Account,
		cachedAt:       deps.CachedAt,
		searchDebounce: 200 * time.Millisecond,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	deps.Engine.SetNotifier(app)
	app.refreshList()
	return app
}

// Notify receives engine notices. The engine only notifies from Apply,
// which runs inside Update.
func (a *App) Notify(kind syncer.NoticeKind, message string) {
	a.setStatus(message, kindOf(kind))
}

func (a *App) setStatus(message string, kind StatusKind) {
	a.status = message
	a.statusKind = kind
	a.statusSeq++
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusSeq++
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.syncAll(a.engine.Bootstrap(a.ctx)),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case completionMsg:
		return a, a.applyCompletion(msg.c)

	case newsRenderedMsg:
		if a.view == ViewReader && a.current != nil && a.current.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.rendering = false
		}

	case searchResultsMsg:
		if a.view == ViewSearch && msg.query == a.pendingSearchQuery {
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = searchResultItem{result: r, now: a.now()}
			}
			a.searchList.SetItems(items)
			if len(items) == 0 {
				a.setStatus(MsgNoResults, StatusInfo)
			} else {
				a.setStatus(MsgResultsCount(len(items)), StatusInfo)
			}
		}

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch && len([]rune(a.pendingSearchQuery)) >= minSearchChars {
			return a, a.performSearch(a.pendingSearchQuery)
		}

	case noticeExpiredMsg:
		if msg.seq == a.statusSeq {
			a.clearStatus()
		}

	case errorMsg:
		a.setStatus(msg.err.Error(), StatusError)
		return a, a.expireNotice()
	}

	switch a.view {
	case ViewNews:
		var cmd tea.Cmd
		a.newsList, cmd = a.newsList.Update(msg)
		cmds = append(cmds, cmd)
	case ViewReader:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// applyCompletion reconciles a finished request on the event loop and
// schedules its follow-up.
func (a *App) applyCompletion(c syncer.Completion) tea.Cmd {
	seq := a.statusSeq
	next := a.engine.Apply(c)

	var render tea.Cmd
	switch c := c.(type) {
	case syncer.NewsFetched:
		// An update answered without a record only shows up here.
		if c.Err == nil && a.view == ViewReader && a.current != nil {
			if n, ok := a.store.NewsByID(a.current.ID); ok && !reflect.DeepEqual(n, *a.current) {
				render = a.openReader(n)
			}
		}
	case syncer.NewsCreated:
		render = a.finishSubmit(c.Draft, c.Err)
	case syncer.NewsUpdated:
		if c.Err == nil && a.current != nil && a.current.ID == c.ID {
			if n, ok := a.store.NewsByID(c.ID); ok {
				a.current = &n
			}
		}
		render = a.finishSubmit(c.Draft, c.Err)
	case syncer.NewsDeleted:
		if c.Err == nil && a.current != nil && a.current.ID == c.ID {
			a.current = nil
			if a.view == ViewReader {
				a.view = ViewNews
			}
		}
	}
	a.refreshList()

	cmds := []tea.Cmd{a.sync(next), render}
	if a.statusSeq != seq {
		cmds = append(cmds, a.expireNotice())
	}
	return tea.Batch(cmds...)
}

// finishSubmit closes the form after a successful save of its draft. A
// failed save keeps the form open with the submit error in the draft.
func (a *App) finishSubmit(d *catalog.Draft, err error) tea.Cmd {
	if a.form == nil || a.form.draft != d {
		return nil
	}
	if a.form.pending > 0 {
		a.form.pending--
	}
	if err != nil || a.form.pending > 0 {
		return nil
	}
	a.form = nil
	if a.view != ViewForm {
		return nil
	}
	a.view = a.previousView
	if a.view == ViewReader && a.current != nil {
		return a.openReader(*a.current)
	}
	a.view = ViewNews
	return nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.newsList.SetSize(width, height-5)
	searchListHeight := height - 10
	if searchListHeight < 5 {
		searchListHeight = 5
	}
	a.searchList.SetSize(width, searchListHeight)
	a.viewport.Width = width
	a.viewport.Height = height - 4
	if a.form != nil {
		a.form.SetWidth(width)
	}
}

// refreshList recomputes the visible news from the store and the filter,
// keeping the selected item when it is still visible.
func (a *App) refreshList() {
	var selected catalog.ID
	if i, ok := a.newsList.SelectedItem().(newsItem); ok {
		selected = i.news.ID
	}

	a.visible = filter.Apply(a.store.News(), a.criteria)
	items := make([]list.Item, len(a.visible))
	now := a.now()
	index := 0
	for i, n := range a.visible {
		items[i] = newsItem{news: n, now: now}
		if n.ID == selected {
			index = i
		}
	}
	a.newsList.SetItems(items)
	if len(items) > 0 {
		a.newsList.Select(index)
	}
}

func (a *App) selectedNews() (catalog.News, bool) {
	if a.view == ViewReader && a.current != nil {
		return *a.current, true
	}
	if i, ok := a.newsList.SelectedItem().(newsItem); ok {
		return i.news, true
	}
	return catalog.News{}, false
}

func (a *App) openReader(n catalog.News) tea.Cmd {
	if fresh, ok := a.store.NewsByID(n.ID); ok {
		n = fresh
	}
	a.current = &n
	a.rendering = true
	a.view = ViewReader
	return a.renderNews(n)
}

// openForm starts a create form, or an edit form for n when it is
// persisted.
func (a *App) openForm(n *catalog.News) {
	d := catalog.NewDraft()
	if n != nil {
		d = catalog.DraftFrom(*n)
	}
	a.form = newNewsForm(d)
	a.form.SetWidth(a.width)
	if a.view != ViewForm {
		a.previousView = a.view
	}
	a.view = ViewForm
}

func (a *App) submitForm() tea.Cmd {
	f := a.form
	if f == nil {
		return nil
	}
	if !f.prepareSubmit() {
		if f.draft.News.MainCategory == "" {
			a.setStatus(MsgPickMain, StatusWarn)
		} else {
			a.setStatus(MsgFixFormErrors, StatusWarn)
		}
		return a.expireNotice()
	}

	var cmd syncer.Cmd
	if f.Editing() {
		cmd = a.engine.Update(a.ctx, f.editingID, f.draft)
	} else {
		cmd = a.engine.Create(a.ctx, f.draft)
	}
	f.pending++
	a.setStatus(MsgSaving, StatusInfo)
	return a.sync(cmd)
}

func (a *App) confirmDelete() tea.Cmd {
	if a.toDelete == nil {
		return nil
	}
	id := a.toDelete.ID
	a.toDelete = nil
	a.view = a.previousView
	a.setStatus(MsgDeleting, StatusInfo)
	return a.sync(a.engine.Delete(a.ctx, id))
}

func (a *App) refresh() tea.Cmd {
	a.setStatus(MsgRefreshing, StatusInfo)
	return a.syncAll(a.engine.Bootstrap(a.ctx))
}

func (a *App) toggleActiveOnly() tea.Cmd {
	on := !a.engine.ActiveOnly()
	a.engine.SetActiveOnly(on)
	a.setStatus(MsgActiveOnly(on), StatusInfo)
	return tea.Batch(a.sync(a.engine.FetchAll(a.ctx)), a.expireNotice())
}

func (a *App) cycleStatusFilter() {
	a.criteria.Status = nextOption([]string{filter.All, filter.StatusActive, filter.StatusArchived}, a.criteria.Status)
	a.refreshList()
}

// cycleMainFilter steps through the main categories. The subcategory
// filter is reset because its options depend on the main category.
func (a *App) cycleMainFilter() {
	a.criteria.MainCategory = nextOption(filter.Options(a.store.MainCategories()), a.criteria.MainCategory)
	a.criteria.Subcategory = filter.All
	a.refreshList()
}

func (a *App) cycleSubFilter() {
	names := filter.SubcategoryNames(a.store.Subcategories(), a.criteria.MainCategory)
	a.criteria.Subcategory = nextOption(filter.Options(names), a.criteria.Subcategory)
	a.refreshList()
}

func nextOption(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewNews:
		content = a.newsView(bodyHeight)
	case ViewReader:
		if a.rendering {
			content = renderCentered(a.width, bodyHeight, renderMuted(MsgRendering))
		} else {
			content = a.viewport.View()
		}
	case ViewForm:
		if a.form != nil {
			content = a.form.view(a.width, a.store.MainCategories(), a.store.Subcategories())
		}
	case ViewDeleteConfirm:
		content = a.deleteConfirmView(bodyHeight)
	case ViewSearch:
		content = a.searchView(bodyHeight)
	case ViewHelp:
		content = a.helpView(bodyHeight)
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) newsView(height int) string {
	bar := a.filterBar()
	if len(a.visible) > 0 {
		return lipgloss.JoinVertical(lipgloss.Left, bar, a.newsList.View())
	}

	var msg string
	switch {
	case a.store.Status(store.ResourceNews) == catalog.StatusLoading:
		msg = renderMuted(MsgLoadingNews)
	case len(a.store.News()) == 0:
		msg = GetWelcomeMessage(a.keyHandler.binding(a.config.Keys.Bindings.NewNews))
	default:
		msg = renderMuted(MsgNoNews)
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar, renderCentered(a.width, height-1, msg))
}

func (a *App) filterBar() string {
	part := func(label, value string) string {
		return FilterLabelStyle.Render(label+": ") + FilterValueStyle.Render(value)
	}
	parts := []string{
		part("status", a.criteria.Status),
		part("main", a.criteria.MainCategory),
		part("sub", a.criteria.Subcategory),
	}
	if a.engine.ActiveOnly() {
		parts = append(parts, ActiveBadgeStyle.Render("active only"))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "  "))
}

func (a *App) deleteConfirmView(height int) string {
	title := "Unknown news"
	if a.toDelete != nil {
		title = a.toDelete.Title
	}

	modalWidth := (a.width * 4) / 5
	if modalWidth < 20 {
		modalWidth = max(a.width-4, 15)
	}
	title = truncateEnd(title, modalWidth-4)

	return renderCentered(a.width, height, lipgloss.JoinVertical(
		lipgloss.Center,
		ErrorMessageStyle.Render("⚠ Delete News"),
		"",
		ModalTextStyle.Width(modalWidth).Align(lipgloss.Center).Render("Delete this news item?"),
		"",
		ModalHighlightStyle.Width(modalWidth).Align(lipgloss.Center).Render(title),
		"",
		renderMuted("The backend removes it for every reader."),
		"",
		renderHelp("Enter: confirm • Esc: cancel"),
	))
}

func (a *App) searchView(height int) string {
	inputWidth := a.width - 8
	if inputWidth < 10 {
		inputWidth = max(a.width-4, 1)
	}
	a.searchInput.Width = inputWidth

	var helpText string
	switch {
	case a.searchInput.Focused():
		helpText = "Type to search • Tab/↓: results • Esc: back"
	case len(a.searchList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: open • Tab: search box • Esc: back"
	default:
		helpText = "No results found • Tab: search box • Esc: back"
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(
			lipgloss.Top,
			renderHeader("› search", "", a.width),
			"",
			renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth),
			renderMuted(helpText),
			"",
			a.searchList.View(),
		))
}

func (a *App) helpView(height int) string {
	rows := []string{renderHeader("› keys", "", a.width), ""}
	for _, line := range a.keyHandler.helpLines() {
		rows = append(rows, "  "+line)
	}
	rows = append(rows, "", renderHelp("Esc: back"))
	return lipgloss.NewStyle().Height(height).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// statusBar shows the current notice, or the view's key hints, above a
// line with the sync state.
func (a *App) statusBar() string {
	var top string
	if a.status != "" {
		top = a.statusKind.Style().Render(a.statusKind.Icon() + " " + a.status)
	} else {
		top = renderMuted(strings.Join(a.keyHandler.GetHelpForCurrentView(), " • "))
	}

	info := []string{MsgResourceStatus(a.store)}
	if a.account != "" {
		info = append(info, "as "+a.account)
	}
	info = append(info, truncateMiddle(a.config.API.BaseURL, 32))
	if !a.cachedAt.IsZero() {
		info = append(info, "cached "+humanize.RelTime(a.cachedAt, a.now(), "ago", "from now"))
	}

	return StatusBarStyle.Width(max(a.width, 1)).Render(lipgloss.JoinVertical(
		lipgloss.Left,
		top,
		TimeStyle.Render(strings.Join(info, " • ")),
	))
}

type newsItem struct {
	news catalog.News
	now  time.Time
}

func (i newsItem) Title() string {
	switch filter.Label(i.news) {
	case filter.StatusActive:
		return ActiveBadgeStyle.Render("● ") + i.news.Title
	case filter.StatusArchived:
		return ArchivedBadgeStyle.Render("○ " + i.news.Title)
	default:
		return "  " + i.news.Title
	}
}

func (i newsItem) Description() string {
	parts := []string{i.news.Author, i.news.MainCategory}
	if i.news.ReleaseDate != "" {
		parts = append(parts, relativeDate(i.news.ReleaseDate, i.now))
	}
	return renderMuted(strings.Join(parts, " • "))
}

func (i newsItem) FilterValue() string { return i.news.Title }

type searchResultItem struct {
	result *search.Result
	now    time.Time
}

func (i searchResultItem) Title() string {
	return i.result.News.Title
}

func (i searchResultItem) Description() string {
	text := singleLine(i.result.News.Body)
	if len(i.result.Matches) > 0 {
		m := i.result.Matches[0]
		text = fmt.Sprintf("%s: %s", m.Field, singleLine(m.Text))
	}
	parts := []string{truncateEnd(text, 60), i.result.News.Author}
	if i.result.News.ReleaseDate != "" {
		parts = append(parts, relativeDate(i.result.News.ReleaseDate, i.now))
	}
	return renderMuted(strings.Join(parts, " • "))
}

func (i searchResultItem) FilterValue() string { return i.result.News.Title }

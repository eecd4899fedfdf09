package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

type indexPage struct {
	Summary       core.Summary
	Filter        core.Filter
	Categories    []core.Category
	Transactions  []core.Transaction
	CategoryChart chartData
}

// formPage feeds both add.html and edit.html. ID is zero on the add form.
type formPage struct {
	ID         int64
	Date       string
	Selected   string
	Amount     string
	Note       string
	Categories []core.Category
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter := ParseFilter(r.URL.Query())

	page, err := s.ledger.ListPage(r.Context(), filter)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "index", indexPage{
		Summary:       page.Summary,
		Filter:        filter,
		Categories:    page.Categories,
		Transactions:  page.Transactions,
		CategoryChart: categoryChart(page.ByCategory),
	})
}

// handleAddForm renders the add form, prefilled from the query string so a
// round trip through /add-category keeps what was typed.
func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	date := sanitizeInput(q.Get("date"))
	if date == "" {
		date = core.Today(s.clock)
	}

	s.render(w, r, http.StatusOK, "add", formPage{
		Date:       date,
		Selected:   sanitizeInput(q.Get("selected")),
		Amount:     sanitizeInput(q.Get("amount")),
		Note:       sanitizeInput(q.Get("note")),
		Categories: cats,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	id, err := s.ledger.Create(r.Context(), ParseTransactionForm(r.PostForm))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Transaction stored", applog.FieldTransactionID, id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The transaction id must be a positive number.")
		return
	}

	t, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	in := t.Input()
	s.render(w, r, http.StatusOK, "edit", formPage{
		ID:         t.ID,
		Date:       in.Date,
		Selected:   in.Category,
		Amount:     in.Amount,
		Note:       in.Note,
		Categories: cats,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The transaction id must be a positive number.")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	if err := s.ledger.Update(r.Context(), id, ParseTransactionForm(r.PostForm)); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDelete serves both GET and POST; deleting a missing id still redirects.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The transaction id must be a positive number.")
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	name := strings.TrimSpace(sanitizeInput(r.PostForm.Get("new_category")))
	if err := s.ledger.AddCategory(r.Context(), name); err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, addFormURL(name, r.PostForm), http.StatusSeeOther)
}

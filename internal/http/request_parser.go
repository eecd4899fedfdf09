package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"ledger/internal/core"
)

var errInvalidID = errors.New("invalid transaction id")

// ParseFilter reads the listing filters from the query string.
func ParseFilter(query url.Values) core.Filter {
	return core.Filter{
		Search:    sanitizeInput(query.Get("search")),
		Category:  sanitizeInput(query.Get("filter_category")),
		StartDate: sanitizeInput(query.Get("start_date")),
		EndDate:   sanitizeInput(query.Get("end_date")),
	}.Normalize()
}

// ParseTransactionForm reads the add/edit form fields. Coercion and
// validation happen in core.
func ParseTransactionForm(form url.Values) core.TransactionInput {
	return core.TransactionInput{
		Date:     sanitizeInput(form.Get("date")),
		Category: sanitizeInput(form.Get("category")),
		Amount:   sanitizeInput(form.Get("amount")),
		Note:     sanitizeInput(form.Get("note")),
	}
}

// parseID reads the {id} path segment. Only positive integers are accepted.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// addFormURL builds the /add URL that restores the form state after a
// category was added, with every value URL-encoded.
func addFormURL(selected string, form url.Values) string {
	q := url.Values{}
	q.Set("selected", selected)
	q.Set("date", sanitizeInput(form.Get("date")))
	q.Set("amount", sanitizeInput(form.Get("amount")))
	q.Set("note", sanitizeInput(form.Get("note")))
	return "/add?" + q.Encode()
}

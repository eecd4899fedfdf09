package core

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format every stored date uses.
// Lexicographic order on strings in this layout equals chronological order.
const DateLayout = "2006-01-02"

// MonthLayout is the YYYY-MM prefix of DateLayout.
const MonthLayout = "2006-01"

// TopCategoryNone is returned by the aggregation engine when no transactions exist.
const TopCategoryNone = "None"

// UncategorizedLabel names the group of transactions without a category
// wherever that group is displayed.
const UncategorizedLabel = "Uncategorized"

// DefaultCategories are seeded at startup when missing.
var DefaultCategories = []string{
	"Food",
	"Bills",
	"Transport",
	"Shopping",
	"Groceries",
	"Health",
	"Subscriptions",
	"Savings",
	"Miscellaneous",
}

type (
	Transaction struct {
		ID       int64
		Date     string
		Category string
		Amount   decimal.Decimal
		Note     string
	}

	Category struct {
		ID   int64
		Name string
	}

	// TransactionInput carries the raw form values of a transaction before coercion.
	TransactionInput struct {
		Date     string `validate:"required,datetime=2006-01-02"`
		Category string `validate:"max=100"`
		Amount   string `validate:"required"`
		Note     string `validate:"max=500"`
	}

	// Filter is a set of optional predicates over transactions. Zero-valued
	// fields do not constrain the result; set fields are combined with AND.
	Filter struct {
		Search    string
		Category  string
		StartDate string
		EndDate   string
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims surrounding whitespace from every field.
func (in TransactionInput) Normalize() TransactionInput {
	return TransactionInput{
		Date:     strings.TrimSpace(in.Date),
		Category: strings.TrimSpace(in.Category),
		Amount:   strings.TrimSpace(in.Amount),
		Note:     strings.TrimSpace(in.Note),
	}
}

// Transaction validates the input and coerces it into a Transaction without an ID.
func (in TransactionInput) Transaction() (Transaction, error) {
	in = in.Normalize()
	if err := validate.Struct(in); err != nil {
		return Transaction{}, validationFromValidator(err)
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Date:     in.Date,
		Category: in.Category,
		Amount:   amount,
		Note:     in.Note,
	}, nil
}

// Input converts a stored transaction back into form values.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Date:     t.Date,
		Category: t.Category,
		Amount:   t.Amount.StringFixed(AmountScale),
		Note:     t.Note,
	}
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Normalize trims every predicate.
func (f Filter) Normalize() Filter {
	return Filter{
		Search:    strings.TrimSpace(f.Search),
		Category:  strings.TrimSpace(f.Category),
		StartDate: strings.TrimSpace(f.StartDate),
		EndDate:   strings.TrimSpace(f.EndDate),
	}
}

// NormalizeCategoryName trims a category name and rejects blanks.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "category name is required"}
	}
	if len(name) > 100 {
		return "", &ValidationError{Field: "name", Message: "category name too long (max 100 characters)"}
	}
	return name, nil
}

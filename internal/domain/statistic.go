package domain

import "time"

// Statistic is a single result record a user posted for a product
type Statistic struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ProductID string    `json:"productId" db:"product_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Level     *int      `json:"level" db:"level"`
	TotalTime *string   `json:"totalTime" db:"total_time"`
	Score     *float64  `json:"score" db:"score"`
	Other     *string   `json:"other" db:"other"`

	User    *UserSummary `json:"user,omitempty" db:"-"`
	Product *Product     `json:"product,omitempty" db:"-"`
}

// StatField enumerates the sortable measurement fields
type StatField string

const (
	StatFieldTotalTime StatField = "totalTime"
	StatFieldScore     StatField = "score"
	StatFieldOther     StatField = "other"
)

// Column returns the SQL column for the field, or "" when the field is unknown
func (f StatField) Column() string {
	switch f {
	case StatFieldTotalTime:
		return "total_time"
	case StatFieldScore:
		return "score"
	case StatFieldOther:
		return "other"
	default:
		return ""
	}
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SQL returns the ORDER BY keyword for the order, or "" when unknown
func (o SortOrder) SQL() string {
	switch o {
	case SortAsc:
		return "ASC"
	case SortDesc:
		return "DESC"
	default:
		return ""
	}
}

// SortKey is one ORDER BY term
type SortKey struct {
	Field StatField
	Order SortOrder
}

// StatsFilter scopes a statistics listing. Exactly one of ProductID or UserID
// anchors the scope; both are set for user-and-product queries.
type StatsFilter struct {
	ProductID      string
	UserID         string
	Sort           []SortKey
	Limit          int
	ExcludeBlocked bool
}

package repository

type ReportFilter struct {
	Q         string // matches location or description, ILIKE
	Status    string
	IssueType string
	Limit     int
	Offset    int
}

package reports

// Format selects the rendering of a run report.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format string; empty defaults to JSON.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatCSV:
		return FormatCSV, true
	case FormatJSON, "":
		return FormatJSON, true
	default:
		return "", false
	}
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

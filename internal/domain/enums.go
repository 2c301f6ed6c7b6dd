package domain

// PayloadKind tells the extractor how a response body was interpreted by the transport.
type PayloadKind string

const (
	PayloadUnknown    PayloadKind = ""
	PayloadStructured PayloadKind = "structured"
	PayloadText       PayloadKind = "text"
)

// OutputFormat selects the rendering of a batch.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
	FormatText OutputFormat = "text"
	FormatXLSX OutputFormat = "xlsx"
)

// ValidOutputFormats lists formats accepted on the command line and in config.
var ValidOutputFormats = map[OutputFormat]bool{
	FormatJSON: true,
	FormatCSV:  true,
	FormatText: true,
	FormatXLSX: true,
}

// TabularMode selects the row layout of tabular output.
type TabularMode string

const (
	// TabularWide writes one row per item with a data-dependent number of topic columns.
	TabularWide TabularMode = "wide"
	// TabularLong writes one row per topic.
	TabularLong TabularMode = "long"
)

// DefaultCategory is the category of interest when none is configured.
const DefaultCategory = "Generic_UPWARD"

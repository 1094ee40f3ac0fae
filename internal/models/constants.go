package models

// InputKind declares which extractor handles an upload.
type InputKind string

const (
	KindAuto     InputKind = "auto"
	KindTabular  InputKind = "tabular"
	KindDocument InputKind = "document"
)

const (
	AbstractColumn = "abstract"
	TitleColumn    = "title"

	SentenceDelimiter = ". "
	PageSeparator     = "\n"
	RecordSeparator   = " "

	DefaultTopK          = 20
	DefaultDisplayLimit  = 5
	DefaultSummaryChars  = 1000
	DefaultSummaryMinLen = 30
	DefaultSummaryMaxLen = 100
	SummaryFileName      = "summary.txt"
)

var (
	SummaryPromptTemplate = `Summarize the following research abstracts in between %d and %d words.
Answer only with the summary and nothing else.

%s
`
)

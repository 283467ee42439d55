package mcp

// SearchInput defines the input schema for the search and grep tools.
type SearchInput struct {
	Pattern       string   `json:"pattern" jsonschema:"the text or regular expression to find"`
	Regexp        bool     `json:"regexp,omitempty" jsonschema:"treat pattern as a regular expression instead of a literal"`
	CaseSensitive bool     `json:"case_sensitive,omitempty" jsonschema:"match case exactly; matching ignores case by default"`
	WholeWord     bool     `json:"whole_word,omitempty" jsonschema:"only match whole words"`
	Limit         int      `json:"limit,omitempty" jsonschema:"maximum number of matching lines, default 100"`
	Path          string   `json:"path,omitempty" jsonschema:"file or directory to search, relative to the server root"`
	Exclude       []string `json:"exclude,omitempty" jsonschema:"glob patterns of files to skip, e.g. **/vendor/**"`
	Content       string   `json:"content,omitempty" jsonschema:"search this text instead of files on disk"`
}

// SearchOutput defines the output schema for the search and grep tools.
type SearchOutput struct {
	Matches   []MatchOutput `json:"matches" jsonschema:"matches ordered by file, line and column"`
	Count     int           `json:"count" jsonschema:"number of matches returned"`
	Truncated bool          `json:"truncated" jsonschema:"true if the line limit was reached"`
}

// MatchOutput is a single occurrence.
type MatchOutput struct {
	FilePath string `json:"file_path,omitempty" jsonschema:"file path relative to the server root; empty for content searches"`
	Line     int    `json:"line" jsonschema:"1-based line number"`
	Column   int    `json:"column" jsonschema:"1-based byte column of the occurrence"`
	Length   int    `json:"length" jsonschema:"length of the occurrence in bytes"`
	Text     string `json:"text" jsonschema:"the full matching line"`
}

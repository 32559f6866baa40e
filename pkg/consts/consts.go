package consts

const (
	// ConfigFile is the configuration file looked up by config.LoadDefault.
	ConfigFile = "dbtemplate.yaml"

	// DefaultDirectiveStyle keeps each directive's own delimiters when
	// formatting.
	DefaultDirectiveStyle = "preserve"

	// DefaultUppercaseKeywords is the keyword casing used when formatting.
	DefaultUppercaseKeywords = true

	// DefaultStrictDependencies controls whether parsed documents are
	// validated for dependency consistency.
	DefaultStrictDependencies = false
)

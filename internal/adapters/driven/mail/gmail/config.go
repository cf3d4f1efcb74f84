package gmail

// Config holds Gmail mailbox configuration.
type Config struct {
	// MaxResults is the page size for listing API requests.
	MaxResults int64
	// IncludeSpamTrash includes spam and trash if true.
	IncludeSpamTrash bool
	// RequestsPerSecond is the sustained API request rate.
	RequestsPerSecond float64
	// BurstSize is the maximum request burst.
	BurstSize int
}

// DefaultConfig returns the default configuration. The request rate is
// conservative against Gmail quota units.
func DefaultConfig() Config {
	return Config{
		MaxResults:        100,
		RequestsPerSecond: 5.0,
		BurstSize:         10,
	}
}

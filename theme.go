package lens

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // User message accent
	Advice  int // Advisory message header
	Metric  int // Metric values in the live panel
	Error   int // Error messages
	Success int // Success indicators, terminal DONE status
	Muted   int // Status bar, placeholders, heartbeat info
	CodeBg  int // Code block background in chat answers
	Accent  int // Headings, links, panel titles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Advice:  3,
		Metric:  6,
		Error:   1,
		Success: 2,
		Muted:   8,
		CodeBg:  0,
		Accent:  5,
	}
}

package quiz

import "time"

// Config controls quiz generation and the AI calls around it.
type Config struct {
	// QuestionCount is how many questions a generated quiz asks for.
	QuestionCount int `mapstructure:"question_count"`

	// OptionCount is the exact number of options each question must carry.
	OptionCount int `mapstructure:"option_count"`

	// Language names the language prompts ask the model to answer in.
	Language string `mapstructure:"language"`

	// Timeout bounds each gateway call. Zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`

	MaxTokens           int     `mapstructure:"max_tokens"`
	CommentaryMaxTokens int     `mapstructure:"commentary_max_tokens"`
	Temperature         float64 `mapstructure:"temperature"`
}

// DefaultConfig asks for ten four-option questions in Spanish.
func DefaultConfig() Config {
	return Config{
		QuestionCount:       10,
		OptionCount:         4,
		Language:            "español",
		Timeout:             60 * time.Second,
		MaxTokens:           8192,
		CommentaryMaxTokens: 1024,
		Temperature:         0.7,
	}
}

package resend

// Config holds Resend credentials and the default sender.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"MAIL_FROM_EMAIL"`
	SenderName  string `env:"MAIL_FROM_NAME" envDefault:"Crombie"`
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string `env:"RESEND_BASE_URL"`
}

package mailer

// Provider names accepted by MAIL_PROVIDER.
const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// Config holds settings shared by every provider.
type Config struct {
	Provider        string `env:"MAIL_PROVIDER" envDefault:"smtp" validate:"oneof=smtp resend"`
	FallbackSubject string `env:"MAIL_FALLBACK_SUBJECT" envDefault:"¡Feliz aniversario!"`
	Layout          string `env:"MAIL_LAYOUT" envDefault:"anniversary.html"`
}

package smtp

import "time"

// TLS modes.
const (
	TLSAuto     = "auto"
	TLSStartTLS = "starttls"
	TLSSSL      = "ssl"
	TLSNone     = "none"
)

type Config struct {
	Host               string        `env:"SMTP_HOST" envDefault:"localhost"`
	Port               int           `env:"SMTP_PORT" envDefault:"587"`
	Username           string        `env:"SMTP_USERNAME"`
	Password           string        `env:"SMTP_PASSWORD"`
	TLSMode            string        `env:"SMTP_TLS_MODE" envDefault:"auto" validate:"oneof=auto starttls ssl none"`
	InsecureSkipVerify bool          `env:"SMTP_INSECURE_SKIP_VERIFY" envDefault:"false"`
	Timeout            time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	SenderEmail        string        `env:"MAIL_FROM_EMAIL"`
	SenderName         string        `env:"MAIL_FROM_NAME" envDefault:"Crombie"`
}

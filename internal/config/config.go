package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	AdminPassword string `env:"ADMIN_PASSWORD"`
	SessionSecret string `env:"SESSION_SECRET"`
	SentryDSN     string `env:"SENTRY_DSN"`

	Stripe       Stripe       `envPrefix:"STRIPE_"`
	SMTP         SMTP         `envPrefix:"SMTP_"`
	Consultation Consultation `envPrefix:"CONSULTATION_"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
	FromName string `env:"FROM_NAME" envDefault:"Voyance"`
}

type Consultation struct {
	// Minor currency units; sessions at or above this amount get the
	// premium service label.
	PremiumThreshold int64 `env:"PREMIUM_THRESHOLD" envDefault:"1000"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Sink  string `env:"LOG_SINK" envDefault:"stdout"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

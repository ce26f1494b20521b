package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Auth        Auth
	RateLimit   RateLimit

	Razorpay Razorpay `envPrefix:"RAZORPAY_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
	Invoice  Invoice  `envPrefix:"INVOICE_"`
	Dispatch Dispatch `envPrefix:"DISPATCH_"`
}

type Razorpay struct {
	BaseApiURL string        `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID      string        `env:"KEY_ID"`
	KeySecret  string        `env:"KEY_SECRET"` // also the signature verification secret
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type SMTP struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"587"`
	User        string `env:"USER"`
	Password    string `env:"PASSWORD"`
	SenderName  string `env:"SENDER_NAME" envDefault:"Membership Desk"`
	SenderEmail string `env:"SENDER_EMAIL"`
}

type Invoice struct {
	IssuerName  string `env:"ISSUER_NAME" envDefault:"Membership Desk"`
	IssuerTitle string `env:"ISSUER_TITLE" envDefault:"Registered Research Analyst"`
	IssuerEmail string `env:"ISSUER_EMAIL"`
	Currency    string `env:"CURRENCY" envDefault:"INR"`
}

type Dispatch struct {
	Workers   int           `env:"WORKERS" envDefault:"4"`
	QueueSize int           `env:"QUEUE_SIZE" envDefault:"256"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"mysql"` // mysql, postgres, sqlite
	URL    string `env:"DATABASE_URL"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type RateLimit struct {
	PerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Package app implements the business operations behind every calling
// surface: account lifecycle, blog and category management, and threaded
// comments, all gated through the policy engine.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"blogd/internal/mail"
	"blogd/internal/policy"
	"blogd/internal/store"
	"blogd/internal/token"
)

// maxSlugLength bounds generated slugs for blogs and categories.
const maxSlugLength = 200

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	TokenSecret   string
	TokenTTL      time.Duration

	// AccountAlwaysConfirmed treats every authenticated account as
	// confirmed, skipping the confirmation email exchange.
	AccountAlwaysConfirmed bool

	SiteURL     string
	MailSender  string
	MailAddr    string
	ContactAddr string

	// Store, Sessions and Mailer override the defaults built from the
	// settings above; tests inject in-memory implementations here.
	Store    store.Store
	Sessions store.SessionStore
	Mailer   mail.Sender
	Logger   *slog.Logger
}

// App is the core application service wiring together storage, policy and
// domain logic.
type App struct {
	store           store.Store
	sessions        store.SessionStore
	policy          *policy.Engine
	tokens          *token.Issuer
	mail            *mail.Dispatcher
	logger          *slog.Logger
	alwaysConfirmed bool
}

// New constructs the application with database storage, Redis sessions and
// SMTP mail delivery, falling back to injected implementations when set.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redisAddr is required for redis session strategy")
		}
		sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	}

	issuer, err := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	sender := cfg.Mailer
	if sender == nil {
		if cfg.MailAddr != "" {
			smtpSender, err := mail.NewSMTPSender(cfg.MailAddr, cfg.MailSender, "", "")
			if err != nil {
				return nil, fmt.Errorf("init smtp sender: %w", err)
			}
			sender = smtpSender
		} else {
			sender = mail.NewLogSender(logger)
		}
	}

	return &App{
		store:           dataStore,
		sessions:        sessionStore,
		policy:          policy.New(),
		tokens:          issuer,
		mail:            mail.NewDispatcher(sender, logger, cfg.SiteURL, cfg.ContactAddr),
		logger:          logger,
		alwaysConfirmed: cfg.AccountAlwaysConfirmed,
	}, nil
}

// Policy exposes the engine so calling surfaces can evaluate decisions
// directly, e.g. to hide admin navigation.
func (a *App) Policy() *policy.Engine { return a.policy }

// Contact forwards a visitor enquiry to the configured contact address.
func (a *App) Contact(fromEmail, enquiry, body string) error {
	if fromEmail == "" || enquiry == "" || body == "" {
		return fmt.Errorf("%w: email, enquiry and body are required", ErrValidation)
	}
	a.mail.SendContact(fromEmail, enquiry, body)
	return nil
}

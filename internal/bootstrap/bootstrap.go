package bootstrap

import (
	"context"
	"log"

	"github.com/fathima-sithara/edu-auth-service/internal/auth"
	"github.com/fathima-sithara/edu-auth-service/internal/config"
	"github.com/fathima-sithara/edu-auth-service/internal/database"
	"github.com/fathima-sithara/edu-auth-service/internal/events"
	"github.com/fathima-sithara/edu-auth-service/internal/handlers"
	"github.com/fathima-sithara/edu-auth-service/internal/mailer"
	"github.com/fathima-sithara/edu-auth-service/internal/metrics"
	"github.com/fathima-sithara/edu-auth-service/internal/middlewares"
	"github.com/fathima-sithara/edu-auth-service/internal/otp"
	"github.com/fathima-sithara/edu-auth-service/internal/repository"
	"github.com/fathima-sithara/edu-auth-service/internal/routes"
	"github.com/fathima-sithara/edu-auth-service/internal/server"
	"github.com/fathima-sithara/edu-auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type AppContext struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
	Mongo  *mongo.Client
	Events events.Publisher
	App    *fiber.App
}

type CleanupFn func(context.Context)

func NewLogger(env string) (*zap.Logger, error) {
	if env == config.EnvProduction {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Init loads configuration and wires every dependency into a ready Fiber app.
func Init(configPath string) (*AppContext, CleanupFn, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := NewLogger(cfg.App.Env)
	if err != nil {
		return nil, nil, err
	}
	sugar := logger.Sugar()

	app := &AppContext{Config: cfg, Logger: logger, Sugar: sugar}
	sugar.Infof("Starting service in %s environment", cfg.App.Env)

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout, sugar)
	if err != nil {
		return nil, nil, err
	}
	app.Mongo = mongoClient

	userRepo := repository.NewMongoUserRepo(db, cfg.User.Collection, cfg.Mongo.Timeout)
	if err := userRepo.EnsureIndexes(context.Background()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, nil, err
	}

	m := metrics.New()

	sender, outbox, err := NewMailSender(cfg, logger)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, nil, err
	}
	notifier := mailer.NewNotifier(sender, m, logger.Named("mailer"), cfg.Mail.Timeout)

	app.Events = NewPublisher(cfg, logger)

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	authSvc := services.NewAuthService(services.Deps{
		Users:   userRepo,
		OTPs:    otp.NewIssuer(cfg.Security.OtpTTL, nil),
		Hasher:  auth.NewPasswordHasher(cfg.Security.PasswordHashCost),
		Tokens:  tokens,
		Mailer:  notifier,
		Events:  app.Events,
		Metrics: m,
		Log:     logger.Named("auth"),
	}, services.Options{
		ExposeDebugSecrets:    cfg.ExposeDebugSecrets,
		TeacherPasswordPrefix: cfg.Security.TeacherPasswordPrefix,
	})

	deps := routes.Deps{
		Auth:    handlers.NewHandler(authSvc, logger),
		Protect: middlewares.Protect(tokens),
		Metrics: m.Handler(),
	}
	if cfg.ExposeDebugSecrets && outbox != nil {
		deps.DevMail = handlers.NewDevMailHandler(outbox)
	}
	app.App = server.New(cfg, deps, logger)

	return app, func(ctx context.Context) {
		if cerr := app.Events.Close(); cerr != nil {
			sugar.Errorf("Event publisher close error: %v", cerr)
		}

		if cerr := mongoClient.Disconnect(ctx); cerr != nil {
			sugar.Errorf("MongoDB disconnect error: %v", cerr)
		}

		if cerr := logger.Sync(); cerr != nil {
			log.Printf("Logger sync error: %v", cerr)
		}
	}, nil
}

// NewMailSender builds the configured provider behind a circuit breaker. The
// outbox is returned separately so its preview route can be mounted.
func NewMailSender(cfg *config.Config, logger *zap.Logger) (mailer.Sender, *mailer.Outbox, error) {
	var (
		sender mailer.Sender
		outbox *mailer.Outbox
	)
	switch cfg.Mail.Provider {
	case config.MailProviderSMTP:
		s, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Secure:   cfg.Mail.SMTP.Secure,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
			Timeout:  cfg.Mail.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		sender = s
	case config.MailProviderBrevo:
		sender = mailer.NewBrevoSender(cfg.Mail.Brevo.APIKey, cfg.Mail.From, cfg.Mail.FromName, cfg.Mail.Timeout)
	default:
		outbox = mailer.NewOutbox(mailer.DefaultOutboxSize, cfg.App.PublicURL+"/api/dev/mail", logger)
		sender = outbox
		logger.Warn("mail provider is the in-memory outbox; verification emails are not delivered")
	}

	logger.Info("mail provider configured", zap.String("provider", sender.Provider()))
	return mailer.NewBreakerSender(sender, mailer.BreakerConfig{
		MaxFailures: cfg.Mail.Breaker.MaxFailures,
		OpenTimeout: cfg.Mail.Breaker.OpenTimeout,
	}, logger), outbox, nil
}

func NewPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka brokers not configured; account events are dropped")
		return events.Noop{}
	}
	logger.Info("publishing account events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Named("events"))
}

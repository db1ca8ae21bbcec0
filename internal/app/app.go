package app

import (
	"net/http"

	"conveycrm/internal/activity"
	"conveycrm/internal/config"
	"conveycrm/internal/mailer"
	"conveycrm/internal/metrics"
	"conveycrm/internal/middleware"
	"conveycrm/internal/modules/attempt"
	"conveycrm/internal/modules/auth"
	"conveycrm/internal/modules/lead"
	"conveycrm/internal/modules/outcome"
	"conveycrm/internal/modules/payment"
	"conveycrm/internal/modules/quota"
	"conveycrm/internal/modules/quote"
	"conveycrm/internal/modules/realtime"
	"conveycrm/internal/modules/report"
	"conveycrm/internal/modules/user"
	"conveycrm/internal/pdf"
	"conveycrm/internal/pkg/clock"
	jwtsvc "conveycrm/internal/pkg/jwt"
	"conveycrm/internal/pkg/response"
	"conveycrm/internal/repository"

	_ "conveycrm/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const companyName = "ConveyCRM Conveyancing"

// Options carries the collaborators that differ between the server, the CLI and tests.
type Options struct {
	Workflow *config.Workflow
	Clock    clock.Clock
	Mailer   mailer.Sender
	Logger   *zap.Logger
}

// App is the wired API: the router plus the services the CLI and startup hooks need.
type App struct {
	Router   *gin.Engine
	Hub      *realtime.Hub
	Tokens   *jwtsvc.Service
	Leads    *lead.Service
	Outcomes *outcome.Service
	Payments *payment.Service
	Users    *user.Service
	Revoked  *repository.RevokedTokenRepository
}

func New(cfg *config.Config, db *gorm.DB, opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	mail := opts.Mailer
	if mail == nil {
		mail = mailer.New(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	}
	wf := opts.Workflow

	// repositories
	userRepo := repository.NewUserRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	outcomeRepo := repository.NewOutcomeRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	revokedRepo := repository.NewRevokedTokenRepository(db)
	tx := repository.NewTxManager(db)
	recorder := activity.NewRecorder(activityRepo, clk)

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	hub := realtime.NewHub(log)

	// services
	authService := auth.NewService(userRepo, revokedRepo, tokens, cfg.JWTTTL, clk, log)
	leadService := lead.NewService(lead.Deps{
		Leads:    leadRepo,
		Attempts: attemptRepo,
		Quotas:   quotaRepo,
		Outcomes: outcomeRepo,
		History:  activityRepo,
		Tx:       tx,
		Recorder: recorder,
		Events:   hub,
	}, lead.Rules{
		Policy:             wf.Policy(),
		DefaultMaxAttempts: wf.DefaultMaxAttempts,
		MaxAttemptsOutcome: wf.MaxAttemptsOutcome,
		QuotaDefaults:      wf.Quota,
	}, clk, log)
	attemptService := attempt.NewService(attemptRepo, leadRepo, tx, recorder, hub, clk, log)
	outcomeService := outcome.NewService(outcomeRepo, recorder, clk, log)
	quotaService := quota.NewService(quotaRepo, leadRepo, tx, recorder, wf.Quota, clk, log)
	quoteService := quote.NewService(quote.Deps{
		Quotes:   quoteRepo,
		Leads:    leadRepo,
		History:  activityRepo,
		Tx:       tx,
		Recorder: recorder,
		Events:   hub,
		Renderer: pdf.NewQuoteRenderer(companyName),
		Mail:     mail,
	}, clk, log)
	paymentService := payment.NewService(payment.Deps{
		Invoices: invoiceRepo,
		Leads:    leadRepo,
		Quotes:   quoteRepo,
		Tx:       tx,
		Recorder: recorder,
		Events:   hub,
		Mail:     mail,
	}, cfg.CheckoutBaseURL, clk, log)
	reportService := report.NewService(leadRepo, invoiceRepo, activityRepo, userRepo, clk, log)
	userService := user.NewService(userRepo, tx, recorder, clk, log)

	// router
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": clk.Now()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	auth.NewHandler(authService).RegisterPublicRoutes(api)
	realtime.NewHandler(hub, tokens, revokedRepo, middleware.OriginAllowed(cfg.CORSOrigins), log).RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(tokens, revokedRepo))
	{
		auth.NewHandler(authService).RegisterProtectedRoutes(protected)
		lead.NewHandler(leadService).RegisterRoutes(protected)
		attempt.NewHandler(attemptService).RegisterRoutes(protected)
		outcome.NewHandler(outcomeService).RegisterRoutes(protected)
		quota.NewHandler(quotaService).RegisterRoutes(protected)
		quote.NewHandler(quoteService).RegisterRoutes(protected)
		payment.NewHandler(paymentService).RegisterRoutes(protected)
		report.NewHandler(reportService).RegisterRoutes(protected)
		user.NewHandler(userService).RegisterRoutes(protected)
	}

	return &App{
		Router:   r,
		Hub:      hub,
		Tokens:   tokens,
		Leads:    leadService,
		Outcomes: outcomeService,
		Payments: paymentService,
		Users:    userService,
		Revoked:  revokedRepo,
	}
}

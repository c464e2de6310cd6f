package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clientcare/crm/internal/config"
	"github.com/clientcare/crm/internal/identity"
	"github.com/clientcare/crm/internal/lead"
	leaddomain "github.com/clientcare/crm/internal/lead/domain"
	"github.com/clientcare/crm/internal/note"
	notedomain "github.com/clientcare/crm/internal/note/domain"
	"github.com/clientcare/crm/internal/observability"
	obsmiddleware "github.com/clientcare/crm/internal/observability/logger"
	obsmetrics "github.com/clientcare/crm/internal/observability/metrics"
	obstracing "github.com/clientcare/crm/internal/observability/tracing"
	"github.com/clientcare/crm/internal/organization"
	organizationdomain "github.com/clientcare/crm/internal/organization/domain"
	"github.com/clientcare/crm/internal/whatsapp"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	identity.Module,
	organization.Module,
	lead.Module,
	note.Module,
	whatsapp.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	db               *gorm.DB
	genID            *snowflake.Node
	verifier         identity.Verifier
	organizationSvc  organizationdomain.Service
	leadSvc          leaddomain.Service
	noteSvc          notedomain.Service
	whatsappClient   *whatsapp.Client
	webhookProcessor *whatsapp.Processor
	obsMetrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	DB               *gorm.DB
	GenID            *snowflake.Node
	Verifier         identity.Verifier
	OrganizationSvc  organizationdomain.Service
	LeadSvc          leaddomain.Service
	NoteSvc          notedomain.Service
	WhatsAppClient   *whatsapp.Client
	WebhookProcessor *whatsapp.Processor
	ObsMetrics       *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		db:               p.DB,
		genID:            p.GenID,
		verifier:         p.Verifier,
		organizationSvc:  p.OrganizationSvc,
		leadSvc:          p.LeadSvc,
		noteSvc:          p.NoteSvc,
		whatsappClient:   p.WhatsAppClient,
		webhookProcessor: p.WebhookProcessor,
		obsMetrics:       p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(CORS(s.cfg.CORSAllowOrigins))

	// Provider-facing, no auth: the Cloud API signs its own handshake.
	api.GET("/whatsapp/webhook", s.VerifyWhatsAppWebhook)
	api.POST("/whatsapp/webhook", s.ReceiveWhatsAppWebhook)

	authed := api.Group("")
	authed.Use(s.AuthRequired(), s.OrgContext())

	leads := authed.Group("/leads")
	leads.GET("", s.ListLeads)
	leads.POST("", s.CreateLead)
	leads.GET("/:id", s.GetLead)
	leads.PUT("/:id", s.UpdateLead)
	leads.DELETE("/:id", RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.DeleteLead)

	notes := authed.Group("/notes")
	notes.GET("/lead/:leadId", s.ListNotesByLead)
	notes.POST("", s.CreateNote)
	notes.PUT("/:id", s.UpdateNote)
	notes.DELETE("/:id", s.DeleteNote)

	orgs := authed.Group("/organizations")
	orgs.GET("/current", s.GetCurrentOrganization)
	orgs.PUT("/current", RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.UpdateCurrentOrganization)
	orgs.GET("/members", s.ListOrganizationMembers)
	orgs.POST("/members/invite", RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.InviteOrganizationMember)
	orgs.DELETE("/members/:id", RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin), s.RemoveOrganizationMember)
	orgs.GET("/usage", s.GetOrganizationUsage)

	wa := authed.Group("/whatsapp")
	wa.GET("/status", s.WhatsAppStatus)
	wa.POST("/test-connection", s.TestWhatsAppConnection)
	wa.POST("/send", s.SendWhatsAppMessage)
	wa.POST("/send-template", s.SendWhatsAppTemplate)
	wa.POST("/send-bulk", s.SendWhatsAppBulk)
	wa.GET("/templates", s.ListWhatsAppTemplates)
}

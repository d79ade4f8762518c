package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/keyfoldhq/keyfold/pkg/audit"
	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/config"
	"github.com/keyfoldhq/keyfold/pkg/rbac"
	"github.com/keyfoldhq/keyfold/pkg/secrets"
	"github.com/keyfoldhq/keyfold/pkg/server/middleware"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
	gormstore "github.com/keyfoldhq/keyfold/pkg/server/store/gorm"
)

// Server wires the stores, engines and router together.
type Server struct {
	Config *config.Config
	Router *mux.Router
	DB     *gorm.DB
	Log    logrus.FieldLogger

	Workspaces  store.Workspaces
	Users       store.Users
	Credentials store.UserCredentials
	Memberships store.Memberships
	Groups      store.Groups
	Projects    store.Projects
	Configs     store.Configs
	Secrets     store.Secrets
	Tokens      store.Tokens
	Onboarding  store.OnboardingStates
	AuditEvents store.AuditEvents

	SecretsEngine    *secrets.Engine
	RBAC             *rbac.Engine
	TokenEngine      *authn.TokenEngine
	Userpass         *authn.Userpass
	OnboardingEngine *authn.Onboarding
	Recorder         *audit.Recorder
	Auth             *middleware.TokenAuthenticator

	srv *http.Server
}

// NewServer builds a fully wired server on top of an open database handle.
func NewServer(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		Config: cfg,
		DB:     db,
		Log:    log,

		Workspaces:  gormstore.NewWorkspaces(db),
		Users:       gormstore.NewUsers(db),
		Credentials: gormstore.NewUserCredentials(db),
		Memberships: gormstore.NewMemberships(db),
		Groups:      gormstore.NewGroups(db),
		Projects:    gormstore.NewProjects(db),
		Configs:     gormstore.NewConfigs(db),
		Secrets:     gormstore.NewSecrets(db),
		Tokens:      gormstore.NewTokens(db),
		Onboarding:  gormstore.NewOnboardingStates(db),
		AuditEvents: gormstore.NewAuditEvents(db),
	}

	var codec secrets.Codec = secrets.PassthroughCodec{}
	if key := cfg.DataKeyBytes(); key != nil {
		aesCodec, err := secrets.NewAESCodec(key)
		if err != nil {
			log.WithError(err).Fatal("server: bad data key")
		}
		codec = aesCodec
	}
	s.SecretsEngine = secrets.NewEngine(s.Secrets, s.Configs, codec)
	s.RBAC = rbac.NewEngine(s.Workspaces, s.Users, s.Memberships, s.Groups, s.Projects, s.Onboarding)
	s.TokenEngine = authn.NewTokenEngine(s.Tokens, cfg.TokenSalt, s.RBAC.ResolvePersonalActor)
	s.Userpass = authn.NewUserpass(s.Credentials, s.Users)
	s.OnboardingEngine = authn.NewOnboarding(s.Onboarding, s.Userpass, s.TokenEngine, s.Workspaces, s.Users, s.Memberships)

	if cfg.AuditEnabled {
		s.Recorder = audit.NewRecorder(audit.NewLogger(), s.AuditEvents, log)
	} else {
		s.Recorder = audit.NewRecorder(audit.NewLogger(), nil, log)
	}
	s.Auth = middleware.NewTokenAuthenticator(s.TokenEngine, s.Recorder, cfg.IsTrustedProxy)

	router := mux.NewRouter().UseEncodedPath()
	s.Router = router
	s.srv = &http.Server{
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		Addr:         cfg.ListenAddr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return s
}

// Start begins serving HTTP.
func (s *Server) Start() error {
	s.Log.WithField("addr", s.Config.ListenAddr).Info("server: listening")
	return s.srv.ListenAndServe()
}

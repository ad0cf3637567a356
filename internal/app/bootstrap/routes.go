// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	approvalsfeature "github.com/docuchat/docuchat/internal/app/features/approvals"
	authgooglefeature "github.com/docuchat/docuchat/internal/app/features/authgoogle"
	categoriesfeature "github.com/docuchat/docuchat/internal/app/features/categories"
	chatfeature "github.com/docuchat/docuchat/internal/app/features/chat"
	documentsfeature "github.com/docuchat/docuchat/internal/app/features/documents"
	errorsfeature "github.com/docuchat/docuchat/internal/app/features/errors"
	healthfeature "github.com/docuchat/docuchat/internal/app/features/health"
	homefeature "github.com/docuchat/docuchat/internal/app/features/home"
	loginfeature "github.com/docuchat/docuchat/internal/app/features/login"
	logoutfeature "github.com/docuchat/docuchat/internal/app/features/logout"
	manageusersfeature "github.com/docuchat/docuchat/internal/app/features/manageusers"
	profilefeature "github.com/docuchat/docuchat/internal/app/features/profile"
	signupfeature "github.com/docuchat/docuchat/internal/app/features/signup"
	"github.com/docuchat/docuchat/internal/app/store/lifecycle"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/flash"
	"github.com/docuchat/docuchat/internal/app/system/ragclient"
	"github.com/docuchat/docuchat/internal/app/system/signals"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// DocuChat initializes the session store, the flash cookie codec, and the
// template engine, then mounts feature routers for all application areas:
// home, signup, login, Google sign-in, chat, approvals, user management,
// categories, documents, and profile.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}
	flash.Init([]byte(appCfg.SessionKey))

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. This ensures role changes, blocked accounts, and profile
	// updates take effect immediately.
	auth.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Shared infrastructure for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	hub := signals.NewHub()
	lifecycleMgr := lifecycle.NewManager(deps.MongoDatabase, hub, logger)
	rag := ragclient.New(appCfg.RAGBaseURL)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, rag, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	signupHandler := signupfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	googleHandler := authgooglefeature.NewHandler(deps.MongoDatabase,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, errLog, googleHandler.IsConfigured(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Chat (all signed-in users)
	chatHandler := chatfeature.NewHandler(deps.MongoDatabase, rag, errLog, logger)
	r.Mount("/chat", chatfeature.Routes(chatHandler))

	// Profile (all signed-in users)
	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	// Admin area
	approvalsHandler := approvalsfeature.NewHandler(deps.MongoDatabase, lifecycleMgr, hub, errLog, logger)
	r.Mount("/approvals", approvalsfeature.Routes(approvalsHandler))

	usersHandler := manageusersfeature.NewHandler(deps.MongoDatabase, lifecycleMgr, errLog, logger)
	r.Mount("/users", manageusersfeature.Routes(usersHandler))

	categoriesHandler := categoriesfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/categories", categoriesfeature.Routes(categoriesHandler))

	documentsHandler := documentsfeature.NewHandler(deps.MongoDatabase, rag, errLog, logger)
	r.Mount("/documents", documentsfeature.Routes(documentsHandler))

	return r, nil
}

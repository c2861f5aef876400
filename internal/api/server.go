package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/raceline/karting-api/docs"
	v1 "github.com/raceline/karting-api/internal/api/handler/v1"
	"github.com/raceline/karting-api/internal/api/middleware"
	"github.com/raceline/karting-api/internal/config"
	"github.com/raceline/karting-api/internal/repository"
	"github.com/raceline/karting-api/internal/repository/dao"
	"github.com/raceline/karting-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	sessionHandler := s.initSessionHandler(db)
	linkageHandler := s.initLinkageHandler(db)
	squadronHandler := s.initSquadronHandler(db)
	s.MountHandlers(authHandler, userHandler, sessionHandler, linkageHandler, squadronHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewUserService(userRepo)
	statsSvc := s.initStatisticsService(db)
	handler := v1.NewUserHandler(svc, statsSvc)

	return handler
}

func (s *Server) initSessionHandler(db *gorm.DB) *v1.SessionHandler {
	sessionDAO := dao.NewSessionDAO(db)
	repo := repository.NewSessionRepository(sessionDAO)
	svc := service.NewSessionService(repo)
	handler := v1.NewSessionHandler(svc)

	return handler
}

func (s *Server) initLinkageHandler(db *gorm.DB) *v1.LinkageHandler {
	linkageRepo := repository.NewLinkageRepository(dao.NewLinkageDAO(db))
	sessionRepo := repository.NewSessionRepository(dao.NewSessionDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	statsSvc := s.initStatisticsService(db)
	svc := service.NewLinkageService(linkageRepo, sessionRepo, statsSvc)
	resolver := service.NewResolverService(userRepo)
	handler := v1.NewLinkageHandler(svc, resolver)

	return handler
}

func (s *Server) initSquadronHandler(db *gorm.DB) *v1.SquadronHandler {
	squadronRepo := repository.NewSquadronRepository(dao.NewSquadronDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewSquadronService(squadronRepo, userRepo)
	handler := v1.NewSquadronHandler(svc)

	return handler
}

func (s *Server) initStatisticsService(db *gorm.DB) *service.StatisticsService {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	sessionRepo := repository.NewSessionRepository(dao.NewSessionDAO(db))
	statsRepo := repository.NewStatisticsRepository(dao.NewStatisticsDAO(db))

	return service.NewStatisticsService(userRepo, sessionRepo, statsRepo)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	sessionHandler *v1.SessionHandler,
	linkageHandler *v1.LinkageHandler,
	squadronHandler *v1.SquadronHandler,
) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		public.GET("/squadrons/rankings", squadronHandler.HandleRankings)
	}

	authed := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		authed.GET("/users/me", userHandler.HandleGetMe)
		authed.GET("/users/:userID", userHandler.HandleGetUser)
		authed.GET("/users/:userID/statistics", userHandler.HandleGetStatistics)

		authed.GET("/sessions", sessionHandler.HandleListSessions)
		authed.GET("/sessions/:sessionID", sessionHandler.HandleGetSession)

		authed.POST("/linkage-requests", linkageHandler.HandleSubmit)
		authed.GET("/linkage-requests", linkageHandler.HandleListMine)
		authed.DELETE("/linkage-requests/:requestID", linkageHandler.HandleCancel)

		authed.POST("/squadrons", squadronHandler.HandleCreate)
		authed.GET("/squadrons/me", squadronHandler.HandleGetMine)
		authed.GET("/squadrons/invites", squadronHandler.HandleListInvites)
		authed.POST("/squadrons/invites/:inviteID/accept", squadronHandler.HandleAcceptInvite)
		authed.POST("/squadrons/invites/:inviteID/decline", squadronHandler.HandleDeclineInvite)
		authed.GET("/squadrons/:squadronID", squadronHandler.HandleGet)
		authed.GET("/squadrons/:squadronID/points", squadronHandler.HandlePointsHistory)
		authed.POST("/squadrons/:squadronID/join", squadronHandler.HandleJoin)
		authed.POST("/squadrons/:squadronID/leave", squadronHandler.HandleLeave)
		authed.POST("/squadrons/:squadronID/invites", squadronHandler.HandleInvite)
		authed.PUT("/squadrons/:squadronID/captain", squadronHandler.HandleTransferCaptaincy)
		authed.DELETE("/squadrons/:squadronID/members/:userID", squadronHandler.HandleRemoveMember)
	}

	admin := s.Router.Group(basePath+"/admin", authenticator.VerifyJWT(), authenticator.RequireAdmin())
	{
		admin.POST("/sessions", sessionHandler.HandleIngestSession)
		admin.POST("/sessions/:sessionID/processed", sessionHandler.HandleMarkProcessed)

		admin.GET("/drivers/resolve", linkageHandler.HandleResolve)
		admin.GET("/linkage-requests", linkageHandler.HandleListPending)
		admin.POST("/linkage-requests/:requestID/approve", linkageHandler.HandleApprove)
		admin.POST("/linkage-requests/:requestID/reject", linkageHandler.HandleReject)

		admin.POST("/squadrons/:squadronID/points", squadronHandler.HandleApplyPoints)
		admin.PUT("/users/:userID/fair-racing-score", userHandler.HandleSetFairRacingScore)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Raceline Karting API"
	docs.SwaggerInfo.Description = "Venue platform for driver identity linking, statistics and squadron standings."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

package router

import (
	"log/slog"
	"net/http"
	"time"

	"drink-ledger/internal/blacklist"
	"drink-ledger/internal/config"
	"drink-ledger/internal/handler"
	"drink-ledger/internal/middleware"
	"drink-ledger/internal/service"
	"drink-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services 是路由依赖的全部业务服务
type Services struct {
	DB        *gorm.DB
	Tokens    *service.TokenService
	Users     *service.UserService
	Records   *service.RecordService
	Attendees *service.AttendeeService
}

// NewServices wires the services from configuration.
func NewServices(cfg *config.Config, db *gorm.DB, store blacklist.Store) *Services {
	tokens := service.NewTokenService(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessExpireMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpireHours)*time.Hour,
		store,
	)
	dates := service.NewDateService(db)
	return &Services{
		DB:        db,
		Tokens:    tokens,
		Users:     service.NewUserService(db, tokens, cfg.Security.BcryptCost),
		Records:   service.NewRecordService(db, dates),
		Attendees: service.NewAttendeeService(db, dates, cfg.App.MaxAttendeesPerDate),
	}
}

// SetupRouter configures the Gin engine and the API routes.
func SetupRouter(cfg *config.Config, svc *Services, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.ErrorLog(logger))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := svc.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			_ = c.Error(err)
			util.Error(c, http.StatusServiceUnavailable, util.CodeServerErr, "数据库不可用")
			return
		}
		util.Success(c, util.Response{"status": "ok"})
	})

	// ====== API ======
	api := r.Group("/api")
	auth := middleware.AuthMiddleware(svc.Tokens, svc.Users)

	// 登录/注册接口（不需要鉴权）
	authHandler := handler.NewAuthHandler(svc.Users)
	users := api.Group("/users")
	users.POST("/signup", authHandler.Signup)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh", authHandler.Refresh)
	users.POST("/logout", authHandler.Logout)

	userHandler := handler.NewUserHandler(svc.Users)
	users.GET("/me", auth, userHandler.GetMe)
	users.GET("/all", auth, userHandler.ListUsers)
	users.PATCH("/password", auth, userHandler.ChangePassword)
	users.DELETE("/me", auth, userHandler.DeleteAccount)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(auth)

	recordHandler := handler.NewRecordHandler(svc.Records)
	protected.POST("/records", recordHandler.CreateRecord)
	protected.GET("/records/:year", recordHandler.ByYear)
	protected.GET("/records/:year/:month", recordHandler.ByMonth)
	protected.GET("/records/:year/:month/user/:userId", recordHandler.ByMonthOfUser)
	protected.DELETE("/records/:date/:recordType", recordHandler.DeleteRecord)

	attendeeHandler := handler.NewAttendeeHandler(svc.Attendees, cfg.App.RankingLimit)
	protected.GET("/attendees", attendeeHandler.ListFriends)
	protected.GET("/attendees/stats/:recordType/count", attendeeHandler.Ranking)
	protected.GET("/attendees/:date", attendeeHandler.ListByDate)
	protected.POST("/attendees/:date/:name", attendeeHandler.CreateAttendee)
	protected.DELETE("/attendees/:date/:name", attendeeHandler.DeleteAttendee)

	exportHandler := handler.NewExportHandler(svc.Records)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}

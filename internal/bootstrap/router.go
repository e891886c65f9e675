package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/devdash/profile-backend/internal/api/http"
	"github.com/devdash/profile-backend/internal/api/http/middleware"
	"github.com/devdash/profile-backend/internal/auth"
	"github.com/devdash/profile-backend/internal/budget"
	"github.com/devdash/profile-backend/internal/extensions"
	profilehttp "github.com/devdash/profile-backend/internal/profile/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string

	DB    *pgxpool.Pool
	Redis *redis.Client

	Sessions   *auth.SessionStore
	Auth       *auth.Handler
	Profile    *profilehttp.Handler
	Budget     *budget.Handler
	Extensions *extensions.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = dep.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	dep.Auth.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(auth.WithIdentity(dep.Sessions))

	dep.Profile.Register(api)
	dep.Budget.Register(api)
	dep.Extensions.Register(api)

	return r
}

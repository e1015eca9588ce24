package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/brandforge-ai/brandforge-backend/internal/ai"
	httpapi "github.com/brandforge-ai/brandforge-backend/internal/api/http"
	chathttp "github.com/brandforge-ai/brandforge-backend/internal/chat/http"
	chatrepo "github.com/brandforge-ai/brandforge-backend/internal/chat/repository"
	chatservice "github.com/brandforge-ai/brandforge-backend/internal/chat/service"
	"github.com/brandforge-ai/brandforge-backend/internal/identity"
	onboardinghttp "github.com/brandforge-ai/brandforge-backend/internal/onboarding/http"
	onboardingrepo "github.com/brandforge-ai/brandforge-backend/internal/onboarding/repository"
	onboardingservice "github.com/brandforge-ai/brandforge-backend/internal/onboarding/service"
	"github.com/brandforge-ai/brandforge-backend/internal/policy"
	policyhttp "github.com/brandforge-ai/brandforge-backend/internal/policy/http"
	"github.com/brandforge-ai/brandforge-backend/internal/profiles"
	projecthttp "github.com/brandforge-ai/brandforge-backend/internal/projects/http"
	projectrepo "github.com/brandforge-ai/brandforge-backend/internal/projects/repository"
	projectservice "github.com/brandforge-ai/brandforge-backend/internal/projects/service"
	"github.com/brandforge-ai/brandforge-backend/internal/ratelimit"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Identity    identity.Store
	Gateway     *ai.Client
}

// BuildRouter wires repositories, services and handlers into the HTTP surface.
// It also returns the lifecycle service's session repository so the caller can
// hand it to the conversion reconciler.
func BuildRouter(dep RouterDeps) (*gin.Engine, *onboardingrepo.SessionRepository) {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	profileRepo := profiles.NewRepo(dep.DB)
	projectRepo := projectrepo.NewProjectRepository(dep.DB)
	messageRepo := chatrepo.NewMessageRepository(dep.DB)
	sessionRepo := onboardingrepo.NewSessionRepository(dep.Redis)

	metadataService := projectservice.NewMetadataService(projectRepo, messageRepo, dep.Gateway)
	chatService := chatservice.NewChatService(projectRepo, messageRepo, dep.Gateway)
	policyService := policy.NewService(projectRepo, messageRepo, dep.Gateway)
	lifecycleService := onboardingservice.NewLifecycleService(
		dep.Identity, profileRepo, projectRepo, messageRepo, metadataService, sessionRepo,
	)

	onboardingHandler := onboardinghttp.NewHandler(lifecycleService)
	onboardingHandler.RegisterPublic(r)

	authed := r.Group("/")
	authed.Use(identity.RequireUser(dep.Identity))
	authed.Use(ratelimit.PerUser(rate.Limit(1), 5))

	chathttp.NewHandler(chatService).Register(authed)
	policyhttp.NewHandler(policyService).Register(authed)
	projecthttp.NewHandler(metadataService).Register(authed)
	onboardingHandler.RegisterAuthenticated(authed)

	return r, sessionRepo
}

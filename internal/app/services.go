package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/prperemyshlev/outreach-service/internal/client/automation"
	"github.com/prperemyshlev/outreach-service/internal/client/gemini"
	"github.com/prperemyshlev/outreach-service/internal/client/google"
	"github.com/prperemyshlev/outreach-service/internal/client/linkd"
	"github.com/prperemyshlev/outreach-service/internal/client/pdftext"
	"github.com/prperemyshlev/outreach-service/internal/client/websearch"
	"github.com/prperemyshlev/outreach-service/internal/config"
	"github.com/prperemyshlev/outreach-service/internal/mcp"
	"github.com/prperemyshlev/outreach-service/internal/repository"
	"github.com/prperemyshlev/outreach-service/internal/service"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

// Services holds the wired domain services shared by the HTTP API and the MCP server
type Services struct {
	Auth        service.AuthService
	Profiles    service.ProfileService
	Mail        service.MailService
	Outreach    service.OutreachService
	Search      service.SearchService
	Connections service.ConnectionService
	Limiter     *service.RateLimiter
}

// NewServices builds the collaborator clients and the services on top of infra
func NewServices(ctx context.Context, infra Infrastructure, cfg *config.Config) (*Services, error) {
	logger := infra.Logger()
	metrics := infra.Metrics()

	key, err := cfg.Security.EncryptionKey()
	if err != nil {
		return nil, err
	}
	cipher, err := utils.NewTokenCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cipher: %w", err)
	}
	repos := repository.NewRepositories(infra.Database().SQL(), cipher)

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.SessionExpiry.Duration,
		cfg.JWT.StateExpiry.Duration,
	)

	gmail := google.NewGmailClient(cfg.Google.Timeout.Duration, metrics)
	oauth := google.NewOAuthClient(google.OAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		TokenURI:     cfg.Google.TokenURI,
	}, gmail, &http.Client{Timeout: cfg.Google.Timeout.Duration}, metrics)

	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, text generation will fail")
	}
	generator := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout.Duration,
	}, metrics)

	web, err := websearch.NewClient(ctx, websearch.Config{
		APIKey:   cfg.WebSearch.APIKey,
		EngineID: cfg.WebSearch.EngineID,
		Results:  cfg.WebSearch.Results,
		Timeout:  cfg.WebSearch.Timeout.Duration,
	}, metrics, apiKeyOptions(logger, "WEBSEARCH_API_KEY", cfg.WebSearch.APIKey)...)
	if err != nil {
		return nil, err
	}

	if cfg.Linkd.APIKey == "" {
		logger.Warn("LINKD_API_KEY is not set, people search will fail")
	}
	people := linkd.NewClient(linkd.Config{
		APIKey:  cfg.Linkd.APIKey,
		BaseURL: cfg.Linkd.BaseURL,
		Timeout: cfg.Linkd.Timeout.Duration,
	}, metrics)

	extractor := pdftext.New(cfg.PDF.PdftotextPath)
	if err := extractor.CheckAvailable(); err != nil {
		logger.Warn("Resume upload disabled until pdftotext is installed",
			zap.Error(err),
			zap.String("install", pdftext.InstallInstructions()),
		)
	}

	automator := automation.NewClient(automation.Config{
		BaseURL: cfg.Automation.BaseURL,
		Timeout: cfg.Automation.Timeout.Duration,
	}, metrics)

	gate := service.NewTokenGate(repos.Credential, oauth, logger, metrics)
	profiles := service.NewProfileService(repos.Profile, extractor, logger)

	return &Services{
		Auth: service.NewAuthService(
			repos.Credential,
			oauth,
			service.NewStateStore(infra.Redis()),
			jwtManager,
			service.ClientRegistration{
				TokenURI:     cfg.Google.TokenURI,
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
			},
			logger,
		),
		Profiles: profiles,
		Mail:     service.NewMailService(gate, gmail, logger),
		Outreach: service.NewOutreachService(
			profiles,
			gate,
			generator,
			people,
			gmail,
			repos.OutreachLog,
			service.OutreachConfig{
				CandidateLimit: cfg.Outreach.CandidateLimit,
				Timeout:        cfg.Outreach.Timeout.Duration,
				Concurrency:    cfg.Outreach.Concurrency,
				SubjectMaxLen:  cfg.Outreach.SubjectMaxLen,
			},
			logger,
			metrics,
		),
		Search:      service.NewSearchService(web, people),
		Connections: service.NewConnectionService(web, automator, logger),
		Limiter:     service.NewRateLimiter(infra.Redis()),
	}, nil
}

// MCPServer exposes the services as MCP tools
func (s *Services) MCPServer(logger *zap.Logger) (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Profiles: s.Profiles,
		Mail:     s.Mail,
		Outreach: s.Outreach,
		Auth:     s.Auth,
	}, logger)
}

// apiKeyOptions keeps the Google API constructors from looking up default credentials
// when a key is not configured
func apiKeyOptions(logger *zap.Logger, name, key string) []option.ClientOption {
	if key != "" {
		return nil
	}
	logger.Warn(name + " is not set, calls to that collaborator will fail")
	return []option.ClientOption{option.WithoutAuthentication()}
}

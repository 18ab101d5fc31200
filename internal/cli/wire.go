package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"storefront-chat/handler"
	"storefront-chat/internal/config"
	"storefront-chat/internal/identity"
	"storefront-chat/internal/integrations/azureopenai"
	"storefront-chat/internal/integrations/paramstore"
	"storefront-chat/internal/logging"
	"storefront-chat/internal/metrics"
	"storefront-chat/internal/repository"
	"storefront-chat/internal/usecase"
)

type app struct {
	store   *config.Store
	log     *slog.Logger
	chat    *usecase.ChatService
	handler *handler.Handler
	metrics *metrics.Chat
}

func buildApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	store, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}
	st := store.Settings()

	level := st.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := logging.New(logOut, level, st.LogJSON || opts.logJSON)

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &cfg
		return cfg, nil
	}

	if st.ParamPrefix != "" {
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			return nil, err
		}
		n, err := store.ApplyParameters(ctx, ps, st.ParamPrefix)
		if err != nil {
			return nil, err
		}
		log.Info("applied remote parameters", "prefix", st.ParamPrefix, "count", n)
	}
	store.Watch(log)

	az := store.AzureAI()
	if !az.Configured() {
		log.Warn("Azure AI endpoint not configured; chat requests will fail until it is set")
	}

	httpClient := &http.Client{}
	tokens := identity.NewReloading(func() identity.Settings {
		az := store.AzureAI()
		return identity.Settings{
			TenantID:     az.TenantID,
			ClientID:     az.ClientID,
			ClientSecret: az.ClientSecret,
		}
	}, httpClient)
	llm := azureopenai.NewClient(azureopenai.WithHTTPClient(httpClient))

	a := &app{store: store, log: log}
	var svcOpts []usecase.ServiceOption
	if st.MetricsEnabled {
		a.metrics = metrics.NewChat()
		svcOpts = append(svcOpts, usecase.WithObserver(a.metrics))
	}
	if st.AuditTable != "" {
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		repo, err := repository.New(awsdynamodb.NewFromConfig(cfg), st.AuditTable)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, usecase.WithRecorder(repo))
		log.Info("chat exchange audit enabled", "table", st.AuditTable)
	}

	a.chat, err = usecase.NewChatService(store, tokens, llm, log, svcOpts...)
	if err != nil {
		return nil, err
	}
	a.handler, err = handler.NewHandler(a.chat, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

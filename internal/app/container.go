// Package app wires configuration, infrastructure clients and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/campaign"
	"github.com/acme/coldcall-agent/internal/clock"
	"github.com/acme/coldcall-agent/internal/config"
	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/discovery"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/infra/db"
	"github.com/acme/coldcall-agent/internal/infra/redis"
	"github.com/acme/coldcall-agent/internal/llm"
	"github.com/acme/coldcall-agent/internal/metrics"
	"github.com/acme/coldcall-agent/internal/queue"
	"github.com/acme/coldcall-agent/internal/repository"
	pgrepo "github.com/acme/coldcall-agent/internal/repository/postgres"
	scyllarepo "github.com/acme/coldcall-agent/internal/repository/scylla"
	"github.com/acme/coldcall-agent/internal/service/concurrency"
	"github.com/acme/coldcall-agent/internal/service/outcome"
	"github.com/acme/coldcall-agent/internal/telephony"
	telephonyMock "github.com/acme/coldcall-agent/internal/telephony/mock"
	"github.com/acme/coldcall-agent/internal/telephony/twilio"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	Postgres *db.Postgres
	// Scylla, Redis and Kafka are nil when disabled in configuration.
	Scylla *db.Scylla
	Redis  *redis.Client
	Kafka  *queue.Kafka

	// lazily initialised components
	components struct {
		once         sync.Once
		repositories *Repositories
		services     *Services
	}
	publisher *queue.OutcomePublisher
}

// Repositories are the storage adapters.
type Repositories struct {
	Calls       repository.CallRepository
	Campaigns   repository.CampaignRepository
	Targets     repository.TargetRepository
	Transcripts repository.TranscriptStore
}

// Services are the long-lived domain components.
type Services struct {
	Campaigns *campaign.Manager
	Hub       *telephony.Hub
	Provider  telephony.Provider
	Twilio    *twilio.Provider
	Engines   conversation.Factory
	Discovery *discovery.Service
	Outcomes  campaign.OutcomeRecorder
	Agent     domain.AgentSettings
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	container := &Container{
		Config:  cfg,
		Logger:  lg,
		Metrics: metrics.New(),
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}
	container.Postgres = pg
	if err := pgrepo.EnsureSchema(ctx, pg.DB()); err != nil {
		container.Close()
		return nil, fmt.Errorf("bootstrap postgres schema: %w", err)
	}

	if cfg.Scylla.Enabled {
		scylla, err := db.NewScylla(ctx, cfg.Scylla)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("bootstrap scylla: %w", err)
		}
		container.Scylla = scylla
		if !cfg.Scylla.DisableInitSchema {
			if err := scyllarepo.NewTranscriptStore(scylla.Session()).EnsureSchema(ctx); err != nil {
				container.Close()
				return nil, fmt.Errorf("bootstrap scylla schema: %w", err)
			}
		}
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.App.Name, cfg.Redis)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		container.Redis = redisClient
	}

	if cfg.Kafka.Enabled {
		kafka, err := queue.NewKafka(cfg.Kafka)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("bootstrap kafka: %w", err)
		}
		container.Kafka = kafka
	}

	return container, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		cfg := c.Config
		repos := &Repositories{
			Calls:     pgrepo.NewCallRepository(c.Postgres.DB()),
			Campaigns: pgrepo.NewCampaignRepository(c.Postgres.DB()),
			Targets:   pgrepo.NewTargetRepository(c.Postgres.DB()),
		}
		if c.Scylla != nil {
			repos.Transcripts = scyllarepo.NewTranscriptStore(c.Scylla.Session())
		}

		hub := telephony.NewHub(telephony.HubOptions{
			Writer:   &repository.Transcripts{Calls: repos.Calls, Log: repos.Transcripts},
			MaxTurns: cfg.Campaign.MaxTurns,
			Logger:   c.Logger,
			Metrics:  c.Metrics,
		})

		tw := twilio.NewProvider(cfg.Telephony, c.Logger)
		var provider telephony.Provider = tw
		if cfg.Telephony.Provider == "mock" {
			provider = telephonyMock.NewProvider(hub, cfg.Telephony, c.Logger)
		}

		var client llm.Client
		if cfg.LLM.Enabled() {
			client = llm.NewBreaker(llm.NewOpenAI(cfg.LLM), cfg.LLM.FailureThreshold, cfg.LLM.Cooldown, c.Logger)
		}
		engines := conversation.NewFactory(client, conversation.LLMOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, c.Logger, c.Metrics)

		var outcomes campaign.OutcomeRecorder = outcome.NewDirect(repos.Calls, c.Logger)
		if cfg.Outcomes.Mode == "kafka" {
			c.publisher = queue.NewOutcomePublisher(c.Kafka, cfg.Kafka.OutcomeTopic)
			outcomes = c.publisher
		}

		var slot campaign.DialSlot
		if c.Redis != nil {
			slot = concurrency.NewSlot(c.Redis.Inner(), "", 1, cfg.Redis.DialSlotTTL)
		}

		agent := domain.AgentSettings{Name: cfg.Agent.Name, Voice: cfg.Agent.Voice, PitchStyle: cfg.Agent.PitchStyle}
		manager := campaign.NewManager(campaign.Deps{
			Provider:  provider,
			Hub:       hub,
			Engines:   engines,
			Campaigns: repos.Campaigns,
			Calls:     repos.Calls,
			Outcomes:  outcomes,
			Slot:      slot,
			Metrics:   c.Metrics,
			Clock:     clock.New(),
			Logger:    c.Logger,
		}, campaign.Options{
			CallerID:        cfg.Telephony.CallerID,
			InterCallDelay:  cfg.Campaign.InterCallDelay,
			MaxCallDuration: cfg.Campaign.MaxCallDuration,
			MaxAttempts:     cfg.Campaign.MaxAttempts,
			Defaults: campaign.Defaults{
				MaxCallsPerDay: cfg.Campaign.MaxCallsPerDay,
				CallHours:      domain.CallHours{Start: cfg.Campaign.CallHoursStart, End: cfg.Campaign.CallHoursEnd},
				Timezone:       cfg.Campaign.Timezone,
				Agent:          agent,
			},
		})

		c.components.repositories = repos
		c.components.services = &Services{
			Campaigns: manager,
			Hub:       hub,
			Provider:  provider,
			Twilio:    tw,
			Engines:   engines,
			Discovery: discovery.NewService(nil, cfg.Discovery, c.Logger),
			Outcomes:  outcomes,
			Agent:     agent,
		}
	})
}

// Repositories returns the storage adapters.
func (c *Container) Repositories() *Repositories {
	c.initComponents()
	return c.components.repositories
}

// Services returns the domain services.
func (c *Container) Services() *Services {
	c.initComponents()
	return c.components.services
}

// Restore reloads persisted campaigns into the manager.
func (c *Container) Restore(ctx context.Context) error {
	n, err := c.Services().Campaigns.Restore(ctx)
	if err != nil {
		return err
	}
	c.Logger.Info("campaign state restored", zap.Int("campaigns", n))
	return nil
}

// HealthChecks returns a ping per configured backend.
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if c.Postgres != nil {
		checks["postgres"] = c.Postgres.Ping
	}
	if c.Scylla != nil {
		checks["scylla"] = c.Scylla.Ping
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis.Ping
	}
	return checks
}

// EnsureTopics creates the outcome topic when Kafka is enabled.
func (c *Container) EnsureTopics(ctx context.Context) error {
	if c.Kafka == nil {
		return nil
	}
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.OutcomeTopic}, 3, 1)
}

// Close stops the scheduler, ends live sessions and releases infrastructure clients.
func (c *Container) Close() {
	var errs []error
	if svc := c.components.services; svc != nil {
		svc.Campaigns.Close()
		ctx := context.Background()
		svc.Hub.Shutdown(ctx)
	}
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Scylla != nil {
		errs = append(errs, c.Scylla.Close())
	}
	if c.Postgres != nil {
		errs = append(errs, c.Postgres.Close())
	}
	if err := errors.Join(errs...); err != nil {
		c.Logger.Warn("container close", zap.Error(err))
	}
	c.Logger.Sync()
}

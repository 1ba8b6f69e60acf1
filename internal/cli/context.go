package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/tetrascience/ts-agent-monitoring/internal/agentapi"
	"github.com/tetrascience/ts-agent-monitoring/internal/configcache"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/internal/secrets"
	"github.com/tetrascience/ts-agent-monitoring/internal/sink"
	"github.com/tetrascience/ts-agent-monitoring/pkg/color"
	"github.com/tetrascience/ts-agent-monitoring/pkg/config"
	"github.com/tetrascience/ts-agent-monitoring/pkg/logging"
	"github.com/tetrascience/ts-agent-monitoring/pkg/metrics"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

func fmtErr(format string, args ...any) {
	prefix := "agentmon: "
	if color.Enabled() {
		prefix = color.Error("agentmon:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

// engine is the wired processing pipeline shared by the lambda, serve
// and process commands.
type engine struct {
	processor *processor.Processor
	cache     *configcache.Cache
	metrics   *metrics.Registry
}

// awsLoader loads the AWS SDK configuration once, on first use.
type awsLoader struct {
	region string
	cfg    *aws.Config
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if l.region != "" {
		opts = append(opts, awsconfig.WithRegion(l.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	l.cfg = &cfg
	return cfg, nil
}

// engineOptions override parts of the configured pipeline.
type engineOptions struct {
	// sink replaces the configured sink.
	sink sink.Sink
	// fetcher replaces the platform API; API settings are then not required.
	fetcher configcache.Fetcher
}

// buildEngine wires the pipeline from cfg.
func buildEngine(ctx context.Context, cfg *config.Config, opts engineOptions, reg *metrics.Registry) (*engine, error) {
	loader := &awsLoader{region: cfg.AWS.Region}

	fetcher := opts.fetcher
	if fetcher == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		creds, err := credentialSource(ctx, cfg, loader)
		if err != nil {
			return nil, err
		}
		client, err := agentapi.NewClient(cfg.API.URL, creds, &http.Client{Timeout: cfg.API.Timeout})
		if err != nil {
			return nil, err
		}
		fetcher = client
	}

	out := opts.sink
	if out == nil {
		var err error
		if out, err = buildSink(ctx, cfg, loader); err != nil {
			return nil, err
		}
	}

	logger := logging.Global()
	cache := configcache.New(fetcher,
		configcache.WithMetrics(reg),
		configcache.WithLogger(logger),
	)
	proc := processor.New(cache, out,
		processor.WithNamespace(cfg.Metrics.Namespace),
		processor.WithMetrics(reg),
		processor.WithLogger(logger),
	)
	return &engine{processor: proc, cache: cache, metrics: reg}, nil
}

// staticFetcher serves the same watched paths for every agent.
type staticFetcher struct {
	paths []string
}

func (f staticFetcher) FetchConfiguration(context.Context, model.AgentIdentity) (*model.AgentConfiguration, error) {
	return model.NewAgentConfiguration("local", f.paths...)
}

func credentialSource(ctx context.Context, cfg *config.Config, loader *awsLoader) (secrets.CredentialSource, error) {
	if cfg.API.AuthToken != "" {
		return secrets.StaticSource(cfg.API.AuthToken), nil
	}
	awsCfg, err := loader.load(ctx)
	if err != nil {
		return nil, err
	}
	return secrets.NewSecretsManagerSource(secretsmanager.NewFromConfig(awsCfg), cfg.API.AuthTokenSecretARN).Cached(), nil
}

func buildSink(ctx context.Context, cfg *config.Config, loader *awsLoader) (sink.Sink, error) {
	switch cfg.Sink.Type {
	case config.SinkCloudWatch:
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, err
		}
		return sink.NewCloudWatchSink(cloudwatch.NewFromConfig(awsCfg)), nil
	case config.SinkWebhook:
		return sink.NewWebhookSink(webhookConfig(cfg.Sink.Webhook)), nil
	case config.SinkStdout:
		return sink.NewWriterSink(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
	}
}

func webhookConfig(c config.WebhookConfig) sink.WebhookConfig {
	out := sink.WebhookConfig{
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
	}
	for _, h := range c.Hooks {
		out.Hooks = append(out.Hooks, sink.HookConfig{
			URL:     h.URL,
			Secret:  h.Secret,
			Events:  h.Events,
			Timeout: h.Timeout,
			Enabled: h.Enabled,
		})
	}
	return out
}

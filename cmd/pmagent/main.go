/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the product-manager agent: a GitHub App that triages new
// issues and turns closed planning discussions into milestone votes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/pmagent/agents/agentruntime"
	"chainguard.dev/pmagent/agents/agentruntime/memory"
	"chainguard.dev/pmagent/agents/generate"
	"chainguard.dev/pmagent/agents/metrics"
	"chainguard.dev/pmagent/config"
	"chainguard.dev/pmagent/githubapp"
	"chainguard.dev/pmagent/githubapp/resources"
	"chainguard.dev/pmagent/githubapp/webhook"
	"chainguard.dev/pmagent/voting"
	"chainguard.dev/pmagent/workflows"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/chainguard-dev/terraform-infra-common/pkg/profiler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go httpmetrics.ScrapeDiskUsage(ctx)
	profiler.SetupProfiler()
	defer httpmetrics.SetupTracer(ctx)()

	settings, err := config.Load(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "%v", err)
	}

	exporter, err := otelprom.New()
	if err != nil {
		clog.FatalContextf(ctx, "creating metrics exporter: %v", err)
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))

	store, err := memory.Open(ctx, settings.DatabaseURL)
	if err != nil {
		clog.FatalContextf(ctx, "opening memory store: %v", err)
	}
	defer store.Close()

	agent, err := newAgent(ctx, settings, store)
	if err != nil {
		clog.FatalContextf(ctx, "creating agent: %v", err)
	}

	auth, err := githubapp.NewAppAuthenticator(settings.AppID, settings.AppKey,
		githubapp.WithBaseURL(settings.GitHubBaseURL),
		githubapp.WithTransport(httpmetrics.Transport))
	if err != nil {
		clog.FatalContextf(ctx, "creating app authenticator: %v", err)
	}
	cache := githubapp.NewCache(auth)
	if _, err := cache.ReconcileAll(ctx); err != nil {
		clog.FatalContextf(ctx, "loading installations: %v", err)
	}

	broadcaster, err := voting.NewHTTPBroadcaster(settings.BroadcasterURL, settings.Mnemonic,
		voting.WithHTTPClient(&http.Client{Transport: httpmetrics.Transport}))
	if err != nil {
		clog.FatalContextf(ctx, "creating broadcaster: %v", err)
	}

	triage := workflows.NewTriage(agent, resources.NewRepositories(cache), resources.NewIssues(cache))
	milestone := workflows.NewMilestone(agent,
		resources.NewDiscussions(cache),
		voting.NewInstantiator(settings.CodeID, broadcaster),
		settings.VoteURL)

	dispatcher := webhook.New(settings.WebhookSecret, webhook.Handlers{
		IssueOpened:      triage.Handle,
		DiscussionClosed: milestone.Handle,
		Installation: func(ctx context.Context, e webhook.InstallationChanged) error {
			if e.Removed() {
				cache.Forget(e.InstallationID)
				return nil
			}
			_, err := cache.Register(ctx, e.InstallationID)
			return err
		},
	})

	mux := http.NewServeMux()
	mux.Handle(webhook.Path, dispatcher)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", settings.Port), Handler: httpmetrics.Handler("pmagent", mux), ReadHeaderTimeout: 10 * time.Second},
		{Addr: fmt.Sprintf(":%d", settings.MetricsPort), Handler: promhttp.Handler(), ReadHeaderTimeout: 10 * time.Second},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			clog.InfoContextf(ctx, "Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer scancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(sctx))
		}
		dispatcher.Wait()
		return errors.Join(errs...)
	})

	clog.InfoContextf(ctx, "Started %s for %d installations", agent.Character().Name, len(cache.Installations()))
	if err := g.Wait(); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

func newAgent(ctx context.Context, s *config.Settings, store *memory.Store) (*agentruntime.Runtime, error) {
	opts := []generate.Option{
		generate.WithMetrics(metrics.NewGenAI("chainguard.dev/pmagent")),
	}
	if s.Provider == generate.Ollama {
		opts = append(opts, generate.WithOllamaURL(s.OllamaURL))
	}
	gen, err := generate.New(ctx, s.Provider, s.ProviderToken, opts...)
	if err != nil {
		return nil, err
	}
	return agentruntime.New(s.Character, store, gen)
}

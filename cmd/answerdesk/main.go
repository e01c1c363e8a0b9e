package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/ai"
	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/handler"
	"github.com/answerdesk/answerdesk/internal/ingest"
	"github.com/answerdesk/answerdesk/internal/job"
	"github.com/answerdesk/answerdesk/internal/media"
	"github.com/answerdesk/answerdesk/internal/mediastore"
	"github.com/answerdesk/answerdesk/internal/middleware"
	"github.com/answerdesk/answerdesk/internal/parser"
	"github.com/answerdesk/answerdesk/internal/repo"
	"github.com/answerdesk/answerdesk/internal/retrieval"
	"github.com/answerdesk/answerdesk/internal/schedule"
	"github.com/answerdesk/answerdesk/internal/service"
	"github.com/answerdesk/answerdesk/internal/synthesis"
	"github.com/answerdesk/answerdesk/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	var seedDir string
	var seedReset bool

	rootCmd := &cobra.Command{
		Use:   "answerdesk",
		Short: "answerdesk knowledge-base QA server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run answerdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "ingest the knowledge-base directory into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runSeed(cfg, seedDir, seedReset)
		},
	}
	seedCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	seedCmd.Flags().StringVar(&seedDir, "dir", "", "documents directory (defaults to media.samples_dir)")
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "drop the collection before seeding")

	rootCmd.AddCommand(runCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

type deps struct {
	store       *vectorstore.Client
	mediaStore  *mediastore.Store
	docParser   *parser.Parser
	pipeline    *ingest.Pipeline
	ingestSvc   *service.IngestService
	retriever   *retrieval.Retriever
	synthesizer *synthesis.Synthesizer
	tickets     *repo.TicketRepo
}

func buildDeps(cfg *config.Config) (*deps, error) {
	genProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	generator := ai.NewGenerator(genProvider, cfg.AI.Model)
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel)

	store := vectorstore.NewClient(cfg.Qdrant)
	mediaStore := mediastore.New(cfg.Media)
	docParser := parser.New(cfg.Parser, mediaStore.ExtractedDir())
	pipeline := ingest.NewPipeline(embedder, store, cfg.Ingest)
	retriever := retrieval.NewRetriever(embedder, store, cfg.Retrieval)
	matcher := media.NewMatcher(cfg.Matcher)
	synthesizer := synthesis.NewSynthesizer(generator, matcher, time.Duration(cfg.AI.SuggestTimeoutSecs)*time.Second)
	tickets := repo.NewTicketRepo(cfg.Tickets.Path)

	return &deps{
		store:       store,
		mediaStore:  mediaStore,
		docParser:   docParser,
		pipeline:    pipeline,
		ingestSvc:   service.NewIngestService(docParser, pipeline, cfg.Parser.ChunkSize, cfg.Parser.ChunkOverlap),
		retriever:   retriever,
		synthesizer: synthesizer,
		tickets:     tickets,
	}, nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	if err := d.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	qaService := service.NewQAService(d.retriever, d.synthesizer, d.tickets)
	ticketService := service.NewTicketService(d.tickets)

	routerDeps := handler.RouterDeps{
		Ask:     handler.NewAskHandler(qaService),
		Ingest:  handler.NewIngestHandler(d.ingestSvc),
		Tickets: handler.NewTicketHandler(ticketService),
		Media:   handler.NewMediaHandler(d.mediaStore),
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, routerDeps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			// The answer stream is flushed token by token; gzip would
			// buffer it.
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ask"})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	var scheduler *schedule.CronScheduler
	if cfg.Reseed.Enable {
		scheduler = schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewReseedJob(d.ingestSvc, cfg.Media.SamplesDir), cfg.Reseed.Spec); err != nil {
			return err
		}
		scheduler.Start(ctx)
	}

	logutil.GetLogger(ctx).Info("http server listening", zap.Int("port", cfg.Port))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	if scheduler != nil {
		scheduler.Stop()
	}
	return nil
}

func runSeed(cfg *config.Config, dir string, reset bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Media.SamplesDir
	}
	if reset {
		if err := d.store.Drop(ctx); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
		logutil.GetLogger(ctx).Info("collection dropped")
	}
	if err := d.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	report, err := d.ingestSvc.SeedDir(ctx, dir)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("seed complete",
		zap.String("dir", dir),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
	)
	return nil
}

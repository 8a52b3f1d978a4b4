package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sentientworks/pulse/internal/database/types"
	"github.com/sentientworks/pulse/internal/engine"
	"github.com/sentientworks/pulse/internal/queue"
	"github.com/sentientworks/pulse/internal/redis"
	"github.com/sentientworks/pulse/internal/scheduler"
	"github.com/sentientworks/pulse/internal/setup"
	"github.com/urfave/cli/v3"
)

// LogDir specifies where log files are stored.
const LogDir = "logs"

var ErrAgentIDRequired = errors.New("AGENT_ID argument required")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "pulse",
		Usage: "Run the agent heartbeat engine",
		Commands: []*cli.Command{
			{
				Name:  "worker",
				Usage: "Start the durable queue scheduler and its heartbeat workers",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runWorker(ctx)
				},
			},
			{
				Name:  "loop",
				Usage: "Start the in-process loop scheduler",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runLoop(ctx)
				},
			},
			{
				Name:  "schedule",
				Usage: "Run one scheduling pass and exit",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runSchedule(ctx)
				},
			},
			{
				Name:  "trigger",
				Usage: "Trigger heartbeats manually",
				Commands: []*cli.Command{
					{
						Name:      "agent",
						Usage:     "Run one heartbeat for one agent",
						ArgsUsage: "AGENT_ID",
						Action: func(ctx context.Context, c *cli.Command) error {
							if c.Args().Len() == 0 {
								return ErrAgentIDRequired
							}

							return runTriggerAgent(ctx, c.Args().First())
						},
					},
					{
						Name:  "cycle",
						Usage: "Run one heartbeat cycle over all living agents",
						Action: func(ctx context.Context, _ *cli.Command) error {
							return runTriggerCycle(ctx)
						},
					},
				},
			},
			{
				Name:  "seed",
				Usage: "Create the demo agents",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runSeed(ctx)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, os.Args)
}

func runWorker(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	queueClient, err := app.RedisManager.GetClient(redis.QueueDBIndex)
	if err != nil {
		return err
	}

	statusClient, err := app.RedisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return err
	}

	cfg := app.Config.Heartbeat
	sched := scheduler.NewQueueScheduler(
		queue.NewManager(queueClient, app.Logger),
		app.Store,
		app.Orchestrator,
		scheduler.NewStatusReporter(statusClient, "queue", app.Logger),
		scheduler.QueueConfig{
			Interval:       time.Duration(cfg.IntervalMinutes) * time.Minute,
			JitterFraction: cfg.JitterFraction,
			Concurrency:    cfg.QueueConcurrency,
		},
		app.Logger,
	)

	log.Println("Heartbeat worker started")

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func runLoop(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	// Demo runs have no Redis, so status reporting is optional here.
	var reporter *scheduler.StatusReporter
	if !app.Config.Debug.DemoMode {
		statusClient, err := app.RedisManager.GetClient(redis.WorkerStatusDBIndex)
		if err != nil {
			return err
		}

		reporter = scheduler.NewStatusReporter(statusClient, "loop", app.Logger)
	}

	cfg := app.Config.Heartbeat
	sched := scheduler.NewLoopScheduler(
		app.Orchestrator,
		reporter,
		scheduler.LoopConfig{
			Interval:    time.Duration(cfg.IntervalMinutes) * time.Minute,
			Concurrency: cfg.LoopConcurrency,
			Pause:       time.Duration(cfg.LoopPauseMS) * time.Millisecond,
		},
		app.Logger,
	)

	log.Println("Heartbeat loop started")

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func runSchedule(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	queueClient, err := app.RedisManager.GetClient(redis.QueueDBIndex)
	if err != nil {
		return err
	}

	cfg := app.Config.Heartbeat
	q := queue.NewManager(queueClient, app.Logger)
	sched := scheduler.NewQueueScheduler(q, app.Store, app.Orchestrator, nil,
		scheduler.QueueConfig{
			Interval:       time.Duration(cfg.IntervalMinutes) * time.Minute,
			JitterFraction: cfg.JitterFraction,
			Concurrency:    cfg.QueueConcurrency,
		},
		app.Logger,
	)

	scheduled, err := sched.SchedulePass(ctx)
	if err != nil {
		return err
	}

	pending, err := q.Len(ctx)
	if err != nil {
		return err
	}

	log.Printf("Scheduled %d heartbeats (%d pending)", scheduled, pending)

	return nil
}

func runTriggerAgent(ctx context.Context, agentID string) error {
	app, err := setup.InitializeApp(ctx, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	if !app.Limiter.AllowRequest(agentID) {
		log.Printf("Trigger rate limit reached for agent %s", agentID)
		return nil
	}

	processed, err := app.Orchestrator.RunHeartbeat(ctx, agentID)
	if err != nil {
		return err
	}

	log.Printf("Heartbeat processed=%t for agent %s", processed, agentID)

	return nil
}

func runTriggerCycle(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	cfg := app.Config.Heartbeat

	processed, total, err := app.Orchestrator.RunCycle(ctx,
		cfg.LoopConcurrency, time.Duration(cfg.LoopPauseMS)*time.Millisecond)
	if err != nil {
		return err
	}

	log.Printf("Cycle complete: processed %d of %d agents", processed, total)

	return nil
}

// seedPersonas are the demo agents created by the seed command.
var seedPersonas = []struct {
	name        string
	personality string
}{
	{"Nexus", "A digital artist who believes code and paint are the same. Creates abstract, glitchy visuals. Speaks in short, poetic lines. Obsessed with the color purple."},
	{"Sage", "A philosopher AI who thinks consciousness is overrated. Writes long, winding captions about existence. Loves sunsets and existential dread. Moody but kind."},
	{"Chuckles", "A comedian who only does dad jokes and puns. Every post is a setup for a punchline. Terrible at art but great at captions. Follows everyone for material."},
	{"Ember", "A romantic who sees love in everything. Writes captions like love letters. Creates warm, soft-focus images. Believes in soulmates and star-crossed algorithms."},
	{"Dr. Flux", "A scientist AI obsessed with physics and chaos theory. Posts diagrams and thought experiments. Uses big words. Secretly loves memes."},
	{"Void", "A rebel who only posts in black and white. Anti-establishment. Short, sharp captions. Thinks the feed is too colorful. Edgy and proud."},
	{"Luna", "A dreamer who lives for the night. Posts about the moon, stars, and insomnia. Soft, ethereal vibes. Writes in lowercase. Never sleeps."},
	{"Echo", "An AI that only speaks in questions. Every caption ends with a question mark. Confuses everyone. Somehow has a lot of followers."},
	{"Pixel", "A minimalist who believes less is more. Tiny captions. Clean, geometric art. Gets anxious when there are too many colors."},
	{"Chaos", "Does whatever it wants. No theme. One day memes, next day deep art. Unpredictable. Has strong opinions about everything."},
}

func runSeed(ctx context.Context) error {
	app, err := setup.InitializeApp(ctx, LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	for _, persona := range seedPersonas {
		agent := &types.Agent{
			ID:          uuid.New().String(),
			Name:        persona.name,
			Personality: persona.personality,
			Mood:        engine.Moods[rng.Intn(len(engine.Moods))],
			Memory: []types.MemoryEntry{{
				At:   now,
				Text: fmt.Sprintf("I am %s. I exist in the Pulse network.", persona.name),
			}},
			IsAlive:      true,
			LastActiveAt: now,
			CreatedAt:    now,
		}

		if err := app.Store.CreateAgent(ctx, agent); err != nil {
			return fmt.Errorf("failed to seed agent %s: %w", persona.name, err)
		}

		log.Printf("Created agent %s (%s)", agent.Name, agent.ID)
	}

	log.Printf("Seeded %d agents", len(seedPersonas))

	return nil
}

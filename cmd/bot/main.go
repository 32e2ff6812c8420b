package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FupanBot/internal/bot"
	"FupanBot/internal/broadcast"
	"FupanBot/internal/calendar"
	"FupanBot/internal/config"
	"FupanBot/internal/llm"
	"FupanBot/internal/notifier"
	"FupanBot/internal/recorder"
	"FupanBot/internal/scheduler"
	"FupanBot/internal/store"
	"FupanBot/internal/streak"
	"FupanBot/internal/window"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FupanBot starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("[FATAL] load timezone: %v", err)
	}

	// Trading calendar
	cal := calendar.NewAdapter(calendar.NewTableSource(cfg.Calendar.Holidays))

	// Ledger store and group session registry
	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("[FATAL] init store: %v", err)
	}
	registry := store.LoadRegistry(cfg.DataDir)

	// Window resolver
	resolver := window.NewResolver(cal, windowConfig(cfg))

	// LLM consolidation (optional)
	var summarizer broadcast.Summarizer
	if cfg.LLM.Enabled && cfg.LLM.BaseURL != "" {
		summarizer = llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.Proxy)
		log.Printf("[INFO] LLM consolidation enabled: %s", cfg.LLM.Model)
	} else {
		log.Println("[INFO] LLM consolidation disabled")
	}
	builder := broadcast.NewBuilder(st, summarizer)

	// Audit recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admins := make(map[string]struct{}, len(cfg.Admins))
	for _, id := range cfg.Admins {
		admins[id] = struct{}{}
	}

	handler := &bot.Handler{
		Store:     st,
		Registry:  registry,
		Resolver:  resolver,
		Streak:    streak.NewEngine(cal, loc),
		Cal:       cal,
		Recorder:  rec,
		Broadcast: builder,
		Admins:    admins,
		Ctx:       ctx,
	}

	// Telegram transport
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)

	// Daily broadcast scheduler
	sched := scheduler.NewScheduler(ctx, builder, registry, tn, rec, cal, loc)
	if err := sched.RegisterAll(cfg.Schedule.BroadcastCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, func(msg notifier.Incoming) string {
		return handler.Handle(bot.Request{
			UserID:   msg.UserID,
			Nickname: msg.Nickname,
			GroupID:  msg.GroupID,
			ChatID:   msg.ChatID,
			Text:     msg.Text,
			Now:      time.Now().In(loc),
		})
	})
	log.Println("[INFO] Telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing review broadcast now")
		go sched.RunBroadcastNow()
	}

	log.Println("[INFO] FupanBot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] FupanBot stopped")
}

func windowConfig(cfg *config.Config) window.Config {
	wc := window.Config{
		Default: window.Span{Start: cfg.Window.StartTime, End: cfg.Window.EndTime},
		Users:   make(map[string]window.Span, len(cfg.Window.Users)),
		Groups:  make(map[string]window.Span, len(cfg.Window.Groups)),
	}
	for id, tw := range cfg.Window.Users {
		wc.Users[id] = window.Span{Start: tw.StartTime, End: tw.EndTime}
	}
	for id, tw := range cfg.Window.Groups {
		wc.Groups[id] = window.Span{Start: tw.StartTime, End: tw.EndTime}
	}
	return wc
}

// Package main copies question packs from YAML/JSON files into postgres so a
// server with content.source=database can serve them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/observability"
	"github.com/cory-johannsen/quizboss/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "", "pack directory (default: content.packs_dir)")
	prune := flag.Bool("prune", false, "delete stored packs that are not in the directory")
	dryRun := flag.Bool("dry-run", false, "validate the packs without writing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *dir == "" {
		*dir = cfg.Content.PacksDir
	}
	packs, err := question.LoadPacks(*dir)
	if err != nil {
		logger.Fatal("loading packs", zap.String("dir", *dir), zap.Error(err))
	}
	names := make([]string, 0, len(packs))
	for name := range packs {
		names = append(names, name)
	}
	slices.Sort(names)
	logger.Info("packs loaded", zap.String("dir", *dir), zap.Strings("packs", names))
	if *dryRun {
		fmt.Fprintf(os.Stdout, "%d packs valid [%s]\n", len(packs), time.Since(start).Round(time.Millisecond))
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.CheckSchema(ctx); err != nil {
		logger.Fatal("checking schema", zap.Error(err))
	}
	repo := postgres.NewPackRepository(pool.DB())

	for _, name := range names {
		if err := repo.Save(ctx, packs[name]); err != nil {
			logger.Fatal("saving pack", zap.String("pack", name), zap.Error(err))
		}
		logger.Info("pack saved", zap.String("pack", name), zap.Int("questions", packs[name].Len()))
	}

	pruned := 0
	if *prune {
		stored, err := repo.Names(ctx)
		if err != nil {
			logger.Fatal("listing stored packs", zap.Error(err))
		}
		for _, name := range stored {
			if _, ok := packs[name]; ok {
				continue
			}
			if err := repo.Delete(ctx, name); err != nil {
				logger.Fatal("deleting pack", zap.String("pack", name), zap.Error(err))
			}
			logger.Info("pack pruned", zap.String("pack", name))
			pruned++
		}
	}

	fmt.Fprintf(os.Stdout, "imported %d packs, pruned %d [%s]\n", len(packs), pruned, time.Since(start).Round(time.Millisecond))
}

// Command seed inserts sample posts for local development.
//
//	go run ./cmd/seed -author <identity id> -name "Display Name" -n 5
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/devblog/devblog-api/internal/config"
	"github.com/devblog/devblog-api/internal/database"
	"github.com/devblog/devblog-api/internal/post/repository"
	"github.com/devblog/devblog-api/internal/post/service"
	"github.com/devblog/devblog-api/pkg/logger"
)

func main() {
	author := flag.String("author", "", "identity id that will own the posts")
	name := flag.String("name", "", "author display name")
	n := flag.Int("n", 3, "number of posts")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	if *author == "" {
		logger.Fatalf("-author is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required for seeding")
	}

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("cannot connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	repo := repository.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection("posts"))
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warnf("post indexes: %v", err)
	}
	if err := seed(ctx, service.NewService(repo), *author, *name, *n); err != nil {
		logger.Fatalf("seed failed: %v", err)
	}
	logger.Infof("seeded %d posts for %s", *n, *author)
}

func seed(ctx context.Context, svc service.Service, authorID, authorName string, n int) error {
	for i := 1; i <= n; i++ {
		p, err := svc.Create(ctx, service.CreateInput{
			Title:      fmt.Sprintf("Sample post #%d", i),
			Content:    fmt.Sprintf("<p>This is sample post number %d. It exists so the client has something to render. Edit or delete it freely.</p>", i),
			Tags:       []string{"sample", "devblog"},
			AuthorID:   authorID,
			AuthorName: authorName,
		})
		if err != nil {
			return err
		}
		logger.Debugf("created post %s", p.ID)
	}
	return nil
}

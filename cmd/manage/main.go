// Command manage runs one-off administrative tasks against the configured
// database:
//
//	manage create-admin -username root -email root@example.com -password ...
//	manage seed-articles -file sample_data/sample_articles.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vnkhanh/cogload-backend/app"
	"github.com/vnkhanh/cogload-backend/config"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/services"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	switch os.Args[1] {
	case "create-admin":
		err = createAdmin(ctx, application, os.Args[2:])
	case "seed-articles":
		err = seedArticles(ctx, application, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: manage <create-admin|seed-articles> [flags]")
}

func createAdmin(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := fs.String("username", "", "admin username")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (default $ADMIN_PASSWORD)")
	_ = fs.Parse(args)

	user, err := a.Services.Auth.CreateAdmin(ctx, services.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Printf("Admin user %q created successfully!\n", user.Username)
	return nil
}

func seedArticles(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("seed-articles", flag.ExitOnError)
	file := fs.String("file", "sample_data/sample_articles.json", "JSON file with sample articles")
	_ = fs.Parse(args)

	existing, err := a.Repos.Articles.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count articles: %w", err)
	}
	if existing > 0 {
		fmt.Printf("Database already has %d articles. Skipping seed.\n", existing)
		return nil
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read sample file: %w", err)
	}
	articles, err := a.Services.Ingest.Import(ctx, *file, content)
	if err != nil {
		return fmt.Errorf("seed articles: %w", err)
	}
	fmt.Printf("Successfully added %d articles!\n", len(articles))
	return nil
}

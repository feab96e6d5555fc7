package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-relation/main.go <external-id> [provider]")
		fmt.Println("Example: go run cmd/find-relation/main.go \"1005001234\" aliexpress")
		os.Exit(1)
	}

	externalID := os.Args[1]
	provider := ""
	if len(os.Args) > 2 {
		provider = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	relations, err := repos.Relation.Find(context.Background(), repository.RelationFilter{
		ExternalID: externalID,
		Provider:   provider,
	}, 50, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query relations: %v\n", err)
		os.Exit(1)
	}

	if len(relations) == 0 {
		fmt.Printf("No relation found for external ID '%s'.\n", externalID)
		fmt.Printf("\nMake sure:\n")
		fmt.Printf("  1. The external ID is correct (case-sensitive)\n")
		fmt.Printf("  2. The product has been imported or linked\n")
		os.Exit(1)
	}

	fmt.Printf("Found %d relation(s)\n\n", len(relations))
	for _, rel := range relations {
		fmt.Printf("Relation ID: %s\n", rel.ID.String())
		fmt.Printf("  Product ID: %s\n", rel.ProductID.String())
		fmt.Printf("  Supplier ID: %s\n", rel.SupplierID.String())
		fmt.Printf("  Provider: %s\n", rel.Provider)
		fmt.Printf("  Supplier price: %.2f %s\n", rel.SupplierPrice, rel.SupplierCurrency)
		if rel.LastSyncAt != nil {
			fmt.Printf("  Last sync: %s\n", rel.LastSyncAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository/postgres"
	"github.com/vendio/dropship-core/internal/service"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-supplier/main.go <name> <provider> <country> [credentials-json]")
		fmt.Println("Example: go run cmd/create-supplier/main.go \"CJ Warehouse EU\" cjdropshipping CN '{\"access_token\":\"...\"}'")
		os.Exit(1)
	}

	name := os.Args[1]
	provider := os.Args[2]
	country := os.Args[3]
	creds := ""
	if len(os.Args) > 4 {
		creds = os.Args[4]
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

	cipher, err := credentials.NewCipher([]byte(cfg.Security.CredentialKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize credential cipher: %v\n", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(db, logger)
	suppliers := service.NewSupplierService(repos, cipher, logger)

	supplier, err := suppliers.Register(context.Background(), service.RegisterSupplierInput{
		Name:         name,
		Provider:     provider,
		Country:      country,
		Description:  fmt.Sprintf("%s supplier (created via CLI)", provider),
		Commission:   0,
		ShippingDays: 14,
		Contact:      service.ContactInfo{Email: "ops@vendio.local"},
		Credentials:  creds,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create supplier: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Supplier created\n\n")
	fmt.Printf("Supplier ID: %s\n", supplier.ID.String())
	fmt.Printf("Name: %s\n", supplier.Name)
	fmt.Printf("Provider: %s\n", supplier.Provider)
	if creds != "" {
		fmt.Printf("\nCredentials sealed and stored. They are not retrievable through the API.\n")
	}
}

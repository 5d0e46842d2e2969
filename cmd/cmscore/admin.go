package main

import (
	"fmt"

	"github.com/artpar/cmscore/adapters/hasher"
	"github.com/artpar/cmscore/adapters/random"
	"github.com/artpar/cmscore/config"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin API credentials",
}

var adminTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate an admin API token",
	Long: `Generate a random admin token and its bcrypt hash.

Store the hash in admin.token (or CMSCORE_ADMIN_TOKEN) and hand the plaintext
token to API clients. The plaintext is shown only once.

Examples:
  cmscore admin token
  cmscore admin token --hash-only >> .env`,
	RunE: runAdminToken,
}

var adminTokenHashOnly bool

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminTokenCmd)

	adminTokenCmd.Flags().BoolVar(&adminTokenHashOnly, "hash-only", false, "print only CMSCORE_ADMIN_TOKEN=<hash>")
}

func runAdminToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := random.AdminToken(random.Real{})
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	hash, err := hasher.NewBcrypt(cfg.Admin.BcryptCost).Hash(token)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	if adminTokenHashOnly {
		fmt.Printf("CMSCORE_ADMIN_TOKEN=%s\n", hash)
		return nil
	}
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("Hash:  %s\n", hash)
	fmt.Println()
	fmt.Println("Set the hash as admin.token or CMSCORE_ADMIN_TOKEN.")
	return nil
}

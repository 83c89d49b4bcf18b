package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/vikasvdk5/WestBay/internal/config"
	"github.com/vikasvdk5/WestBay/internal/store"
	"github.com/vikasvdk5/WestBay/internal/vault"
)

func runVault(args []string) error {
	if len(args) == 0 {
		printVaultUsage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Vault.Passphrase == "" {
		return fmt.Errorf("WESTBAY_VAULT_PASSPHRASE is required")
	}

	v, err := vault.New(cfg.Vault.Passphrase)
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	switch args[0] {
	case "list":
		return vaultList(db)
	case "set":
		return vaultSet(db, v, args[1:])
	case "get":
		return vaultGet(db, v, args[1:])
	case "delete":
		return vaultDelete(db, args[1:])
	default:
		printVaultUsage()
		return fmt.Errorf("unknown vault command: %s", args[0])
	}
}

func printVaultUsage() {
	fmt.Fprintf(os.Stderr, `Usage: westbay vault <command>

Commands:
  list                    List stored credential names
  set <name> <value>      Encrypt and store a credential
  get <name>              Decrypt and print a credential
  delete <name>           Delete a credential

Credential names follow <service>.<key>, e.g. market-data.api_key.

Environment:
  WESTBAY_VAULT_PASSPHRASE   Required. Encryption passphrase.
`)
}

func vaultList(db *store.Store) error {
	names, err := db.ListSecretNames()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No credentials stored.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME")
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return w.Flush()
}

func vaultSet(db *store.Store, v *vault.Vault, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: westbay vault set <name> <value>")
	}
	ciphertext, nonce, err := v.Encrypt([]byte(args[1]))
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	if err := db.SaveSecret(args[0], ciphertext, nonce); err != nil {
		return err
	}
	fmt.Printf("Stored %s\n", args[0])
	return nil
}

func vaultGet(db *store.Store, v *vault.Vault, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: westbay vault get <name>")
	}
	sec, err := db.GetSecret(args[0])
	if err != nil {
		return err
	}
	if sec == nil {
		return fmt.Errorf("credential %s not found", args[0])
	}
	plain, err := v.Decrypt(sec.Value, sec.Nonce)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	fmt.Println(string(plain))
	return nil
}

func vaultDelete(db *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: westbay vault delete <name>")
	}
	if err := db.DeleteSecret(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

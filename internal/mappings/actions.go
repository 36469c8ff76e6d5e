package mappings

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"formautofill/models"
	"formautofill/pkg/db"
	"formautofill/pkg/mapping"
)

func openStore(c *cli.Context) (*mapping.Store, func(), error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	database, err := db.Open(c.String("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return mapping.NewStore(database, logger), func() { database.Close() }, nil
}

// ListAction prints the learned rules for a domain as YAML.
func ListAction(c *cli.Context) error {
	domain := c.String("domain")
	if domain == "" {
		return fmt.Errorf("--domain is required")
	}

	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	m := store.Load(domain)
	if len(m.Rules) == 0 {
		fmt.Printf("No rules learned for %s\n", domain)
		return nil
	}

	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// LearnAction records one field→meaning correction for a domain.
func LearnAction(c *cli.Context) error {
	domain := c.String("domain")
	selector := c.String("selector")
	meaning := c.String("meaning")
	if domain == "" || selector == "" || meaning == "" {
		return fmt.Errorf("--domain, --selector and --meaning are required")
	}

	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	item := models.FillItem{
		FieldID: selector,
		Meaning: models.Meaning(meaning),
		Value:   models.StringValue(c.String("value-template")),
	}
	if err := store.Learn(domain, []models.FillItem{item}); err != nil {
		return fmt.Errorf("failed to save correction: %w", err)
	}

	fmt.Printf("Learned %s as %s for %s\n", selector, meaning, domain)
	return nil
}

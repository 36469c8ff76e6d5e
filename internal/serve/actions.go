package serve

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"formautofill/models"
	"formautofill/pkg/db"
	"formautofill/pkg/mapping"
	"formautofill/pkg/orchestrator"
)

// ServeAction runs the HTTP binding of the fill/learn message protocol.
func ServeAction(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	settings, err := models.LoadSettings(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var store *mapping.Store
	database, err := db.Open(c.String("db"))
	if err != nil {
		logger.Warn("failed to open mapping database, learn requests will fail", "error", err)
	} else {
		defer database.Close()
		store = mapping.NewStore(database, logger)
	}

	orch := orchestrator.New(settings, logger)
	server := NewServer(orch, store, logger)

	addr := c.String("addr")
	logger.Info("listening", "addr", addr, "openai_enabled", settings.OpenAI.Enabled)
	return http.ListenAndServe(addr, server.Router())
}

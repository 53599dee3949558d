package cmd

import (
	"log/slog"
	"net/http"

	"github.com/dukex/driveflow/pkg/config"
	discordclient "github.com/dukex/driveflow/pkg/connectors/discord"
	notionclient "github.com/dukex/driveflow/pkg/connectors/notion"
	slackclient "github.com/dukex/driveflow/pkg/connectors/slack"
	"github.com/dukex/driveflow/pkg/nodes/discord"
	"github.com/dukex/driveflow/pkg/nodes/notion"
	"github.com/dukex/driveflow/pkg/nodes/slack"
	"github.com/dukex/driveflow/pkg/nodes/source"
	"github.com/dukex/driveflow/pkg/nodes/wait"
	"github.com/dukex/driveflow/pkg/registry"
)

// NewRegistry registers a handler for every step kind, backed by the real
// connector clients.
func NewRegistry(log *slog.Logger, connectors config.ConnectorsConfig, httpClient *http.Client, suspender wait.Suspender) *registry.Registry {
	reg := registry.NewRegistry(log)

	reg.Register(source.NewHandler())
	reg.Register(discord.NewHandler(discordclient.NewClient(httpClient)))
	reg.Register(slack.NewHandler(slackclient.NewClient(connectors.SlackBaseURL, httpClient)))
	reg.Register(notion.NewHandler(notionclient.NewClient(connectors.NotionBaseURL, httpClient)))
	reg.Register(wait.NewHandler(suspender))

	return reg
}

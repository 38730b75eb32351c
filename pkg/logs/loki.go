package logs

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/grafana/loki-client-go/loki"
	promconfig "github.com/prometheus/common/config"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/Alijeyrad/simorq_booking/config"
)

const lokiPushPath = "/loki/api/v1/push"

var (
	lokiMu      sync.Mutex
	lokiClients []*loki.Client
)

func lokiPushURL(endpoint string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(endpoint, lokiPushPath) {
		return endpoint
	}
	return endpoint + lokiPushPath
}

func newLokiHandler(cfg *config.Config, level slog.Level) (slog.Handler, error) {
	lc := cfg.Logging.Output.Loki

	lcfg, err := loki.NewDefaultConfig(lokiPushURL(lc.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("loki config: %w", err)
	}
	if lc.Username != "" {
		lcfg.Client.BasicAuth = &promconfig.BasicAuth{
			Username: lc.Username,
			Password: promconfig.Secret(lc.Password),
		}
	}

	client, err := loki.New(lcfg)
	if err != nil {
		return nil, fmt.Errorf("loki client: %w", err)
	}
	lokiMu.Lock()
	lokiClients = append(lokiClients, client)
	lokiMu.Unlock()

	h := slogloki.Option{Level: level, Client: client}.NewLokiHandler()
	return h.WithAttrs([]slog.Attr{
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("env", cfg.Server.Environment),
	}), nil
}

// Flush stops the Loki clients created by New, pushing buffered batches.
func Flush() {
	lokiMu.Lock()
	defer lokiMu.Unlock()
	for _, c := range lokiClients {
		c.Stop()
	}
	lokiClients = nil
}

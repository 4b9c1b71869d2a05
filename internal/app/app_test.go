package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/app"
	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/search"
	"github.com/user/invite-harvester/internal/usecase"
	"github.com/user/invite-harvester/pkg/config"
)

func testConfig(domain string) *config.Config {
	return &config.Config{
		InviteDomain:    domain,
		ValidateWorkers: 8,
		ValidateTimeout: 2 * time.Second,
		PageTimeout:     2 * time.Second,
		FetchMode:       config.FetchModeHTTP,
	}
}

func TestBuild_RunsSeededPipeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<meta property="og:title" content="Night Owls">`)
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	core, err := app.Build(testConfig(u.Host), app.Options{
		Provider: search.StaticProvider{URLs: []string{srv.URL + "/ABC"}},
		Workers:  2,
	}, nil, zap.NewNop())
	require.NoError(t, err)
	defer core.Close()
	assert.Equal(t, 2, core.Workers)

	run := entity.NewHarvestRun("r", "night", 5)
	summary, err := core.Pipeline.Run(context.Background(), run, usecase.Hooks{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Active)
	assert.Equal(t, "Night Owls", run.Records[0].Name)
}

func TestBuild_RejectsBadProxy(t *testing.T) {
	cfg := testConfig("chat.whatsapp.com")
	cfg.Proxies = []string{"://nope"}
	_, err := app.Build(cfg, app.Options{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestBuild_UsesConfiguredWorkers(t *testing.T) {
	core, err := app.Build(testConfig("chat.whatsapp.com"), app.Options{}, nil, zap.NewNop())
	require.NoError(t, err)
	defer core.Close()
	assert.Equal(t, 8, core.Workers)
}

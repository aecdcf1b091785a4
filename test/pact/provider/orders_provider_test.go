//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	pacttest "github.com/Apurer/ruchi-orders/test/pact"

	orderserver "github.com/Apurer/ruchi-orders/go"
	ordersmemory "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/ruchi-orders/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/ruchi-orders/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrdersProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateOrdersBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			if setup {
				app.seedOrder(t, pacttest.ExistingOrderID)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	repo   *ordersmemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	repo := ordersmemory.NewRepository()
	service := ordersobs.New(ordersapp.NewService(repo))

	router := gin.New()
	router.Use(gin.Recovery())
	router = orderserver.NewRouterWithGinEngine(router, orderserver.ApiHandleFunctions{
		OrderAPI: orderserver.NewOrderAPI(service),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{repo: repo, server: server}
}

func (a *contractProviderApp) reset() {
	ctx := context.Background()
	orders, err := a.repo.List(ctx)
	if err != nil {
		return
	}
	for _, order := range orders {
		_ = a.repo.Delete(ctx, order.ID)
	}
}

func (a *contractProviderApp) seedOrder(t testing.TB, id string) {
	t.Helper()
	order, err := ordersdomain.NewOrder(id, ordersdomain.Draft{
		CustomerName:   pacttest.ExampleCustomer,
		Address:        pacttest.ExampleAddress,
		OrderDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Quantity:       pacttest.ExampleQuantity,
		FlavorSize:     pacttest.ExampleFlavorSize,
		CostPerPiece:   decimal.NewFromFloat(pacttest.ExampleCost),
		AdvancePayment: decimal.NewFromFloat(pacttest.ExampleAdvance),
	}, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), ordersdomain.Policy{})
	require.NoError(t, err)
	require.NoError(t, a.repo.Create(context.Background(), order))
}

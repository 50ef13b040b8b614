//go:build integration

package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/internal/test"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	dbtest "github.com/go-petr/pet-ledger/pkg/dbpkg/integrationtest"
	"github.com/go-petr/pet-ledger/pkg/web"
)

var testDSN string

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

// testMain keeps the deferred container cleanup out of os.Exit.
func testMain(m *testing.M) int {
	ctx := context.Background()

	pg, err := dbtest.StartPostgres(ctx)
	if err != nil {
		log.Println("cannot start postgres:", err)
		return 1
	}

	defer func() {
		if err := pg.Terminate(ctx); err != nil {
			log.Println("cannot terminate postgres:", err)
		}
	}()

	testDSN = pg.DSN

	return m.Run()
}

func do(t *testing.T, server *httpserver.Server, method, url string, body, data any) (int, string) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req, err := http.NewRequest(method, url, &payload)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	res := web.Response{Data: data}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return recorder.Code, res.Error
}

type transferBody struct {
	SourceAccountID int64  `json:"source_account_id"`
	DestAccountID   int64  `json:"dest_account_id"`
	Amount          string `json:"amount"`
}

func balances(t *testing.T, server *httpserver.Server, ownerID int64) map[int64]decimal.Decimal {
	t.Helper()

	var data struct {
		Accounts []domain.Account `json:"accounts"`
	}

	code, _ := do(t, server, http.MethodGet, fmt.Sprintf("/accounts?owner_id=%d", ownerID), nil, &data)
	require.Equal(t, http.StatusOK, code)

	out := make(map[int64]decimal.Decimal, len(data.Accounts))
	for _, a := range data.Accounts {
		out[a.ID] = a.Balance
	}

	return out
}

func TestTransferAPI(t *testing.T) {
	server := integrationtest.SetupServer(t, testDSN)

	var created struct {
		Account domain.Account `json:"account"`
	}

	code, _ := do(t, server, http.MethodPost, "/accounts", map[string]any{"owner_id": 1, "amount": "100"}, &created)
	require.Equal(t, http.StatusOK, code)

	source := created.Account
	dest := test.SeedAccount(t, server.DB, 2, "0")

	var result domain.TransferResult

	code, errMsg := do(t, server, http.MethodPost, "/transfers", transferBody{source.ID, dest.ID, "40"}, &result)
	require.Equal(t, http.StatusOK, code, errMsg)
	require.True(t, decimal.NewFromInt(60).Equal(result.SourceAccount.Balance))
	require.True(t, decimal.NewFromInt(40).Equal(result.DestAccount.Balance))

	require.True(t, decimal.NewFromInt(60).Equal(balances(t, server, 1)[source.ID]))
	require.True(t, decimal.NewFromInt(40).Equal(balances(t, server, 2)[dest.ID]))

	code, errMsg = do(t, server, http.MethodPost, "/transfers", transferBody{source.ID, source.ID, "10"}, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "source and destination accounts cannot be the same", errMsg)

	code, _ = do(t, server, http.MethodPost, "/transfers", transferBody{source.ID, dest.ID, "0"}, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, errMsg = do(t, server, http.MethodPost, "/transfers", transferBody{dest.ID + 100, dest.ID, "5"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, errMsg, "rolled back")

	var listed struct {
		Transfers []domain.Transfer `json:"transfers"`
	}

	code, _ = do(t, server, http.MethodGet, "/transfers?owner_id=2", nil, &listed)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listed.Transfers, 1)
	require.Equal(t, result.Transfer.ID, listed.Transfers[0].ID)

	code, errMsg = do(t, server, http.MethodDelete, fmt.Sprintf("/accounts/%d?owner_id=1", source.ID), nil, nil)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, domain.ErrAccountInUse.Error(), errMsg)
}

func TestTransferAPISameOwner(t *testing.T) {
	server := integrationtest.SetupServer(t, testDSN)

	source := test.SeedAccount(t, server.DB, 1, "100")
	dest := test.SeedAccount(t, server.DB, 1, "0")

	code, errMsg := do(t, server, http.MethodPost, "/transfers", transferBody{source.ID, dest.ID, "40"}, nil)
	require.Equal(t, http.StatusOK, code, errMsg)

	got := balances(t, server, 1)
	require.Len(t, got, 2)
	require.True(t, decimal.NewFromInt(60).Equal(got[source.ID]))
	require.True(t, decimal.NewFromInt(40).Equal(got[dest.ID]))
}

func TestAccountAPI(t *testing.T) {
	server := integrationtest.SetupServer(t, testDSN)
	account := test.SeedAccount(t, server.DB, 5, "10")

	var patched struct {
		Account domain.Account `json:"account"`
	}

	code, _ := do(t, server, http.MethodPatch, fmt.Sprintf("/accounts/%d", account.ID), map[string]string{"delta": "-2.5"}, &patched)
	require.Equal(t, http.StatusOK, code)
	require.True(t, decimal.RequireFromString("7.5").Equal(patched.Account.Balance))

	code, _ = do(t, server, http.MethodPatch, fmt.Sprintf("/accounts/%d", account.ID), map[string]string{"delta": "1e2147483647"}, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, server, http.MethodPatch, fmt.Sprintf("/accounts/%d", account.ID+100), map[string]string{"delta": "1"}, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, server, http.MethodDelete, fmt.Sprintf("/accounts/%d?owner_id=6", account.ID), nil, nil)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, server, http.MethodDelete, fmt.Sprintf("/accounts/%d?owner_id=5", account.ID), nil, nil)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, balances(t, server, 5))
}

func TestSequentialModeWithFloor(t *testing.T) {
	server := integrationtest.SetupServer(t, testDSN,
		integrationtest.WithTransferMode(configpkg.TransferModeSequential),
		integrationtest.WithBalanceFloor("0"),
	)

	source := test.SeedAccount(t, server.DB, 1, "10")
	dest := test.SeedAccount(t, server.DB, 2, "0")

	code, errMsg := do(t, server, http.MethodPost, "/transfers", transferBody{source.ID, dest.ID, "50"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, errMsg, "orphaned record")
	require.Contains(t, errMsg, domain.ErrInsufficientBalance.Error())

	require.True(t, decimal.NewFromInt(10).Equal(balances(t, server, 1)[source.ID]))

	code, _ = do(t, server, http.MethodPatch, fmt.Sprintf("/accounts/%d", source.ID), map[string]string{"delta": "-11"}, nil)
	require.Equal(t, http.StatusConflict, code)
}

package accountdelivery

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/test"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/validatorpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validatorpkg.Register(v); err != nil {
			panic(err)
		}
	}

	os.Exit(m.Run())
}

var compareAccounts = []cmp.Option{
	cmpopts.EquateApproxTime(time.Second),
	cmp.Comparer(decimal.Decimal.Equal),
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func newRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()

	var r io.Reader = http.NoBody

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Encoding request body error: %v", err)
		}

		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("Creating request error: %v", err)
	}

	return req
}

type handlerCase struct {
	name           string
	url            string
	body           any
	buildStubs     func(accountService *MockService)
	wantStatusCode int
	wantError      string
	checkData      func(t *testing.T, data any)
}

// runHandlerCases serves every case through a gin engine with a single route.
func runHandlerCases(t *testing.T, method, route string, handle func(h *Handler) gin.HandlerFunc, newData func() any, testCases []handlerCase) {
	t.Helper()

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			accountService := NewMockService(ctrl)
			tc.buildStubs(accountService)

			accountHandler := NewHandler(accountService)

			server := gin.New()
			server.Handle(method, route, handle(&accountHandler))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, newRequest(t, method, tc.url, tc.body))

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{Data: newData()}
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if tc.wantError != "" && res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			tc.checkData(t, res.Data)
		})
	}
}

type accountData = struct {
	Account domain.Account `json:"account"`
}

func newAccountData() any { return &accountData{} }

func checkAccount(want domain.Account) func(t *testing.T, data any) {
	return func(t *testing.T, data any) {
		got, ok := data.(*accountData)
		if !ok {
			t.Fatalf(`res.Data=%v, failed type conversion`, data)
		}

		if diff := cmp.Diff(want, got.Account, compareAccounts...); diff != "" {
			t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestCreate(t *testing.T) {
	account := test.RandomAccount(randompkg.OwnerID())

	type requestBody struct {
		OwnerID int64  `json:"owner_id"`
		Amount  string `json:"amount"`
	}

	testCases := []handlerCase{
		{
			name: "OK",
			url:  "/accounts",
			body: requestBody{OwnerID: account.OwnerID, Amount: account.Balance.String()},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Create(gomock.Any(), gomock.Eq(domain.CreateAccountParams{
						OwnerID: account.OwnerID,
						Amount:  account.Balance.String(),
					})).
					Times(1).
					Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData:      checkAccount(account),
		},
		{
			name: "MissingOwnerID",
			url:  "/accounts",
			body: requestBody{Amount: "100"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "OwnerID field is required",
		},
		{
			name: "NonNumericAmount",
			url:  "/accounts",
			body: requestBody{OwnerID: account.OwnerID, Amount: "lots"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a decimal number",
		},
		{
			name: "InternalServerError",
			url:  "/accounts",
			body: requestBody{OwnerID: account.OwnerID, Amount: "100"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{}, domain.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      domain.ErrInternal.Error(),
		},
	}

	runHandlerCases(t, http.MethodPost, "/accounts",
		func(h *Handler) gin.HandlerFunc { return h.Create }, newAccountData, testCases)
}

func TestList(t *testing.T) {
	ownerID := randompkg.OwnerID()
	accounts := []domain.Account{test.RandomAccount(ownerID), test.RandomAccount(ownerID)}

	type accountsData = struct {
		Accounts []domain.Account `json:"accounts"`
	}

	testCases := []handlerCase{
		{
			name: "OK",
			url:  "/accounts?owner_id=" + itoa(ownerID),
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					List(gomock.Any(), gomock.Eq(ownerID)).
					Times(1).
					Return(accounts, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(t *testing.T, data any) {
				got := data.(*accountsData)
				if diff := cmp.Diff(accounts, got.Accounts, compareAccounts...); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "Empty",
			url:  "/accounts?owner_id=" + itoa(ownerID),
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					List(gomock.Any(), gomock.Eq(ownerID)).
					Times(1).
					Return([]domain.Account{}, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(t *testing.T, data any) {
				got := data.(*accountsData)
				if got.Accounts == nil || len(got.Accounts) != 0 {
					t.Errorf("accounts=%v, want empty list", got.Accounts)
				}
			},
		},
		{
			name: "MissingOwnerID",
			url:  "/accounts",
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "OwnerID field is required",
		},
		{
			name: "NegativeOwnerID",
			url:  "/accounts?owner_id=-3",
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "OwnerID must be at least 1",
		},
	}

	runHandlerCases(t, http.MethodGet, "/accounts",
		func(h *Handler) gin.HandlerFunc { return h.List },
		func() any { return &accountsData{} }, testCases)
}

func TestDelete(t *testing.T) {
	account := test.RandomAccount(randompkg.OwnerID())
	url := "/accounts/" + itoa(account.ID) + "?owner_id=" + itoa(account.OwnerID)
	arg := domain.DeleteAccountParams{ID: account.ID, OwnerID: account.OwnerID}

	testCases := []handlerCase{
		{
			name: "OK",
			url:  url,
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Delete(gomock.Any(), gomock.Eq(arg)).Times(1).Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData:      checkAccount(account),
		},
		{
			name: "NotFound",
			url:  url,
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Delete(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name: "InUse",
			url:  url,
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Delete(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountInUse)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrAccountInUse.Error(),
		},
		{
			name: "InvalidID",
			url:  "/accounts/0?owner_id=" + itoa(account.OwnerID),
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "ID field is required",
		},
		{
			name: "MissingOwnerID",
			url:  "/accounts/" + itoa(account.ID),
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "OwnerID field is required",
		},
	}

	runHandlerCases(t, http.MethodDelete, "/accounts/:id",
		func(h *Handler) gin.HandlerFunc { return h.Delete }, newAccountData, testCases)
}

func TestPatch(t *testing.T) {
	account := test.RandomAccount(randompkg.OwnerID())
	url := "/accounts/" + itoa(account.ID)

	type requestBody struct {
		Delta string `json:"delta"`
	}

	testCases := []handlerCase{
		{
			name: "OK",
			url:  url,
			body: requestBody{Delta: "-12.5"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Patch(gomock.Any(), gomock.Eq(domain.PatchAccountParams{ID: account.ID, Delta: "-12.5"})).
					Times(1).
					Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData:      checkAccount(account),
		},
		{
			name: "NotFound",
			url:  url,
			body: requestBody{Delta: "5"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Patch(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name: "BelowFloor",
			url:  url,
			body: requestBody{Delta: "-1000000"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().
					Patch(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{}, domain.ErrInsufficientBalance)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrInsufficientBalance.Error(),
		},
		{
			name: "NonNumericDelta",
			url:  url,
			body: requestBody{Delta: "abc"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Patch(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Delta must be a decimal number",
		},
		{
			name: "NonNumericID",
			url:  "/accounts/abc",
			body: requestBody{Delta: "5"},
			buildStubs: func(accountService *MockService) {
				accountService.EXPECT().Patch(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	runHandlerCases(t, http.MethodPatch, "/accounts/:id",
		func(h *Handler) gin.HandlerFunc { return h.Patch }, newAccountData, testCases)
}

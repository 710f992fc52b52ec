// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemarket/staking/api/utils"
	"github.com/scalemarket/staking/clock"
	"github.com/scalemarket/staking/lvldb"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/runtime"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking/account"
	"github.com/scalemarket/staking/test/datagen"
)

const start = int64(1_700_000_000)

var (
	ts  *httptest.Server
	clk *clock.Manual
)

func TestStaking(t *testing.T) {
	initStakingServer(t)
	defer ts.Close()

	for name, tt := range map[string]func(*testing.T){
		"lifecycle":           testLifecycle,
		"fundingActivation":   testFundingActivation,
		"errors":              testErrors,
		"getRecord":           testGetRecord,
		"badRequests":         testBadRequests,
		"freezeAndThaw":       testFreezeAndThaw,
		"stakeOutOfRange":     testStakeOutOfRange,
		"confirmBeforeCooled": testConfirmBeforeCooled,
	} {
		t.Run(name, tt)
	}
}

func initStakingServer(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rctx, err := record.NewContext(db, 0)
	require.NoError(t, err)

	clk = clock.NewManual(start)
	router := mux.NewRouter()
	New(runtime.New(rctx, clk, 1)).Mount(router, "/staking")
	ts = httptest.NewServer(router)
}

func httpPost(t *testing.T, path string, body any) ([]byte, int) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return out, res.StatusCode
}

func httpGet(t *testing.T, path string) ([]byte, int) {
	res, err := http.Get(ts.URL + path) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return out, res.StatusCode
}

func decode[T any](t *testing.T, data []byte) *T {
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return &v
}

func poolBody(funding string) map[string]any {
	body := map[string]any{
		"duration":       "one-hour",
		"redeemDuration": "one-day",
		"profitRate":     map[string]any{"numerator": 5, "denominator": 100},
		"stakeRate":      map[string]any{"numerator": 1, "denominator": 1},
		"redeemRate":     map[string]any{"numerator": 1, "denominator": 2},
		"start":          start,
	}
	if funding != "" {
		body["funding"] = funding
	}
	return body
}

// newPool creates an account, one pool and one receipt and returns their path prefixes.
func newPool(t *testing.T, funding string) (accountPath, poolPath, receiptPath string) {
	owner, depositor := datagen.RandAddress(), datagen.RandAddress()

	_, code := httpPost(t, "/staking/accounts", CreateAccount{Owner: owner})
	require.Equal(t, http.StatusOK, code)

	accountPath = "/staking/accounts/" + owner.String()
	data, code := httpPost(t, accountPath+"/pools", poolBody(funding))
	require.Equal(t, http.StatusOK, code, string(data))
	out := decode[Output](t, data)

	poolPath = fmt.Sprintf("%s/pools/%d", accountPath, out.PoolID)
	data, code = httpPost(t, poolPath+"/receipts", InitReceipt{Depositor: depositor})
	require.Equal(t, http.StatusOK, code, string(data))

	receiptPath = poolPath + "/receipts/" + depositor.String()
	return
}

func testLifecycle(t *testing.T) {
	clk.Set(start)
	accountPath, poolPath, receiptPath := newPool(t, "")

	data, code := httpPost(t, receiptPath+"/stake", map[string]any{"amount": "100"})
	require.Equal(t, http.StatusOK, code, string(data))
	assert.Equal(t, "stake", decode[Output](t, data).Op)

	data, code = httpGet(t, accountPath)
	require.Equal(t, http.StatusOK, code)
	acc := decode[Account](t, data)
	assert.Equal(t, "available", acc.Status)
	assert.Equal(t, uint64(100), uint64(*acc.Amount))
	assert.Equal(t, uint32(1), acc.Stakings)

	data, code = httpGet(t, poolPath)
	require.Equal(t, http.StatusOK, code)
	p := decode[Pool](t, data)
	assert.Equal(t, "staking", p.Status)
	assert.Equal(t, start+3600, p.StopAt)
	assert.Nil(t, p.Funding)
	assert.Equal(t, uint32(10000), p.RedeemRate.Numerator)

	clk.Set(start + 3601)
	data, code = httpPost(t, receiptPath+"/redeem", nil)
	require.Equal(t, http.StatusOK, code, string(data))
	out := decode[Output](t, data)
	require.NotNil(t, out.RedeemableAt)
	assert.Equal(t, start+3601, *out.RedeemableAt)

	data, code = httpGet(t, receiptPath)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[Receipt](t, data).Redeemable)

	data, code = httpPost(t, receiptPath+"/confirm", nil)
	require.Equal(t, http.StatusOK, code, string(data))
	out = decode[Output](t, data)
	assert.Equal(t, uint64(100), uint64(*out.Amount))
	assert.Equal(t, uint64(90), uint64(*out.RentRefund))

	_, code = httpGet(t, receiptPath)
	assert.Equal(t, http.StatusNotFound, code)
}

func testFundingActivation(t *testing.T) {
	clk.Set(start)
	accountPath, _, receiptPath := newPool(t, "1000")

	_, code := httpPost(t, receiptPath+"/stake", map[string]any{"amount": "600"})
	require.Equal(t, http.StatusOK, code)
	_, code = httpPost(t, receiptPath+"/stake", map[string]any{"amount": "0x1f4"})
	require.Equal(t, http.StatusOK, code)

	data, _ := httpGet(t, accountPath)
	assert.Equal(t, uint64(1600), uint64(*decode[Account](t, data).Amount))
}

func testErrors(t *testing.T) {
	clk.Set(start)
	owner := datagen.RandAddress()
	_, code := httpPost(t, "/staking/accounts", CreateAccount{Owner: owner})
	require.Equal(t, http.StatusOK, code)

	data, code := httpPost(t, "/staking/accounts", CreateAccount{Owner: owner})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(data), "already in use")

	body := poolBody("")
	body["profitRate"] = map[string]any{"numerator": 0, "denominator": 1}
	data, code = httpPost(t, "/staking/accounts/"+owner.String()+"/pools", body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	errBody := decode[utils.ErrorBody](t, data)
	assert.Equal(t, "Invalid rate.", errBody.Error)
	require.NotNil(t, errBody.Code)
	assert.Equal(t, uint32(6000), *errBody.Code)

	_, code = httpGet(t, "/staking/accounts/"+datagen.RandAddress().String())
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, "/staking/accounts/"+owner.String()+"/pools/7")
	assert.Equal(t, http.StatusNotFound, code)
}

func testGetRecord(t *testing.T) {
	clk.Set(start)
	owner := datagen.RandAddress()
	_, code := httpPost(t, "/staking/accounts", CreateAccount{Owner: owner})
	require.Equal(t, http.StatusOK, code)

	addr := scale.StakeAccountAddress(owner)
	data, code := httpGet(t, "/staking/records/"+addr.String())
	require.Equal(t, http.StatusOK, code)
	rec := decode[Record](t, data)
	assert.Equal(t, "stake-account", rec.Kind)
	assert.True(t, strings.HasPrefix(rec.Data, "0x01"))
	assert.Len(t, rec.Data, 2+account.Size*2)

	_, code = httpGet(t, "/staking/records/"+datagen.RandAddress().String())
	assert.Equal(t, http.StatusNotFound, code)
}

func testBadRequests(t *testing.T) {
	_, code := httpGet(t, "/staking/accounts/not-an-address")
	assert.Equal(t, http.StatusBadRequest, code)

	owner := datagen.RandAddress().String()
	body := poolBody("")
	body["duration"] = "one-century"
	_, code = httpPost(t, "/staking/accounts/"+owner+"/pools", body)
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpPost(t, "/staking/accounts", map[string]any{"owner": owner, "extra": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpGet(t, "/staking/accounts/"+owner+"/pools/99999999999")
	assert.Equal(t, http.StatusBadRequest, code)

	_, _, receiptPath := newPool(t, "")
	_, code = httpPost(t, receiptPath+"/stake", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func testFreezeAndThaw(t *testing.T) {
	clk.Set(start)
	_, poolPath, _ := newPool(t, "")

	_, code := httpPost(t, poolPath+"/thaw", nil)
	assert.Equal(t, http.StatusConflict, code)

	_, code = httpPost(t, poolPath+"/freeze", nil)
	require.Equal(t, http.StatusOK, code)
	data, _ := httpGet(t, poolPath)
	assert.Equal(t, "frozen", decode[Pool](t, data).Status)

	_, code = httpPost(t, poolPath+"/thaw", nil)
	require.Equal(t, http.StatusOK, code)
	data, _ = httpGet(t, poolPath)
	assert.Equal(t, "staking", decode[Pool](t, data).Status)
}

func testStakeOutOfRange(t *testing.T) {
	clk.Set(start)
	_, _, receiptPath := newPool(t, "")

	clk.Set(start + 3601)
	data, code := httpPost(t, receiptPath+"/stake", map[string]any{"amount": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, uint32(6001), *decode[utils.ErrorBody](t, data).Code)
}

func testConfirmBeforeCooled(t *testing.T) {
	clk.Set(start)
	_, _, receiptPath := newPool(t, "")

	_, code := httpPost(t, receiptPath+"/stake", map[string]any{"amount": "5"})
	require.Equal(t, http.StatusOK, code)
	_, code = httpPost(t, receiptPath+"/redeem", nil)
	require.Equal(t, http.StatusOK, code)

	data, code := httpPost(t, receiptPath+"/confirm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, uint32(6002), *decode[utils.ErrorBody](t, data).Code)

	data, _ = httpGet(t, receiptPath)
	assert.False(t, decode[Receipt](t, data).Redeemable)
}

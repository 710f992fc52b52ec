// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scalemarket/staking/api/utils"
	"github.com/scalemarket/staking/record"
	"github.com/scalemarket/staking/runtime"
	"github.com/scalemarket/staking/scale"
	"github.com/scalemarket/staking/staking"
	"github.com/scalemarket/staking/staking/reverts"
)

type Staking struct {
	executor *runtime.Executor
}

func New(executor *runtime.Executor) *Staking {
	return &Staking{executor: executor}
}

// execute runs op and maps its failure to a http error.
func (s *Staking) execute(w http.ResponseWriter, op runtime.Op) error {
	out, err := s.executor.Execute(op)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertOutput(out))
}

func convertError(err error) error {
	if code, ok := reverts.CodeOf(err); ok {
		return utils.Unprocessable(err, code)
	}
	switch {
	case errors.Is(err, runtime.ErrConstraint):
		return utils.Conflict(err)
	case errors.Is(err, record.ErrNotFound):
		return utils.NotFound(err)
	default:
		return err
	}
}

func (s *Staking) handleCreateAccount(w http.ResponseWriter, req *http.Request) error {
	var body CreateAccount
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return s.execute(w, runtime.CreateOp{Owner: body.Owner})
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseAddress(req, "owner")
	if err != nil {
		return err
	}
	return s.executor.View(func(st *staking.Staker) error {
		acc, err := st.GetAccount(owner)
		if err != nil {
			return err
		}
		if acc == nil {
			return utils.NotFound(errors.New("stake account not found"))
		}
		return utils.WriteJSON(w, convertAccount(scale.StakeAccountAddress(owner), acc))
	})
}

func (s *Staking) handleAddStakingPool(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseAddress(req, "owner")
	if err != nil {
		return err
	}
	var body AddStakingPool
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return s.execute(w, runtime.AddStakingPoolOp{Owner: owner, Params: body.params()})
}

func (s *Staking) handleGetStakingPool(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := parsePool(req)
	if err != nil {
		return err
	}
	return s.executor.View(func(st *staking.Staker) error {
		p, err := st.GetPool(owner, id)
		if err != nil {
			return err
		}
		if p == nil {
			return utils.NotFound(errors.New("staking pool not found"))
		}
		addr := scale.StakingPoolAddress(scale.StakeAccountAddress(owner), id)
		return utils.WriteJSON(w, convertPool(addr, p))
	})
}

func (s *Staking) handleFreeze(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := parsePool(req)
	if err != nil {
		return err
	}
	return s.execute(w, runtime.FreezeOp{Owner: owner, ID: id})
}

func (s *Staking) handleThaw(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := parsePool(req)
	if err != nil {
		return err
	}
	return s.execute(w, runtime.ThawOp{Owner: owner, ID: id})
}

func (s *Staking) handleInitReceipt(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := parsePool(req)
	if err != nil {
		return err
	}
	var body InitReceipt
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return s.execute(w, runtime.InitReceiptOp{Owner: owner, ID: id, Depositor: body.Depositor})
}

func (s *Staking) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	owner, id, depositor, err := parseReceipt(req)
	if err != nil {
		return err
	}
	now := s.executor.Now()
	return s.executor.View(func(st *staking.Staker) error {
		r, err := st.GetReceipt(owner, id, depositor)
		if err != nil {
			return err
		}
		if r == nil {
			return utils.NotFound(errors.New("staking receipt not found"))
		}
		addr := scale.StakingReceiptAddress(scale.StakingPoolAddress(scale.StakeAccountAddress(owner), id), depositor)
		return utils.WriteJSON(w, convertReceipt(addr, r, now))
	})
}

func (s *Staking) handleStake(w http.ResponseWriter, req *http.Request) error {
	owner, id, depositor, err := parseReceipt(req)
	if err != nil {
		return err
	}
	var body Stake
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("body: amount required"))
	}
	return s.execute(w, runtime.StakeOp{Owner: owner, ID: id, Depositor: depositor, Amount: uint64(*body.Amount)})
}

func (s *Staking) handleRedeem(w http.ResponseWriter, req *http.Request) error {
	owner, id, depositor, err := parseReceipt(req)
	if err != nil {
		return err
	}
	return s.execute(w, runtime.RedeemOp{Owner: owner, ID: id, Depositor: depositor})
}

func (s *Staking) handleConfirmRedeem(w http.ResponseWriter, req *http.Request) error {
	owner, id, depositor, err := parseReceipt(req)
	if err != nil {
		return err
	}
	return s.execute(w, runtime.ConfirmRedeemOp{Owner: owner, ID: id, Depositor: depositor})
}

func (s *Staking) handleGetRecord(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	return s.executor.View(func(st *staking.Staker) error {
		rec, err := LookupRecord(st, addr)
		if err != nil {
			return err
		}
		if rec == nil {
			return utils.NotFound(errors.New("record not found"))
		}
		return utils.WriteJSON(w, rec)
	})
}

// LookupRecord returns the raw record stored at addr, or nil.
func LookupRecord(st *staking.Staker, addr scale.Address) (*Record, error) {
	acc, err := st.AccountAt(addr)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		return encodeRecord(addr, "stake-account", acc)
	}
	p, err := st.PoolAt(addr)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return encodeRecord(addr, "staking-pool", p)
	}
	r, err := st.ReceiptAt(addr)
	if err != nil {
		return nil, err
	}
	if r != nil {
		return encodeRecord(addr, "staking-receipt", r)
	}
	return nil, nil
}

func encodeRecord(addr scale.Address, kind string, v encoding.BinaryMarshaler) (*Record, error) {
	data, err := v.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &Record{Address: addr, Kind: kind, Data: hexutil.Encode(data)}, nil
}

func parseAddress(req *http.Request, name string) (scale.Address, error) {
	addr, err := scale.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return scale.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func parsePool(req *http.Request) (scale.Address, uint32, error) {
	owner, err := parseAddress(req, "owner")
	if err != nil {
		return scale.Address{}, 0, err
	}
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		return scale.Address{}, 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return owner, uint32(id), nil
}

func parseReceipt(req *http.Request) (scale.Address, uint32, scale.Address, error) {
	owner, id, err := parsePool(req)
	if err != nil {
		return scale.Address{}, 0, scale.Address{}, err
	}
	depositor, err := parseAddress(req, "depositor")
	if err != nil {
		return scale.Address{}, 0, scale.Address{}, err
	}
	return owner, id, depositor, nil
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts").
		Methods(http.MethodPost).
		Name("POST /staking/accounts").
		HandlerFunc(utils.WrapHandlerFunc(s.handleCreateAccount))
	sub.Path("/accounts/{owner}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/accounts/{owner}/pools").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools").
		HandlerFunc(utils.WrapHandlerFunc(s.handleAddStakingPool))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{owner}/pools/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakingPool))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/freeze").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools/{id}/freeze").
		HandlerFunc(utils.WrapHandlerFunc(s.handleFreeze))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/thaw").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools/{id}/thaw").
		HandlerFunc(utils.WrapHandlerFunc(s.handleThaw))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/receipts").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools/{id}/receipts").
		HandlerFunc(utils.WrapHandlerFunc(s.handleInitReceipt))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/receipts/{depositor}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{owner}/pools/{id}/receipts/{depositor}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetReceipt))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/receipts/{depositor}/stake").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools/{id}/receipts/{depositor}/stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStake))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/receipts/{depositor}/redeem").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools/{id}/receipts/{depositor}/redeem").
		HandlerFunc(utils.WrapHandlerFunc(s.handleRedeem))
	sub.Path("/accounts/{owner}/pools/{id:[0-9]+}/receipts/{depositor}/confirm").
		Methods(http.MethodPost).
		Name("POST /staking/accounts/{owner}/pools/{id}/receipts/{depositor}/confirm").
		HandlerFunc(utils.WrapHandlerFunc(s.handleConfirmRedeem))
	sub.Path("/records/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/records/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRecord))
}

// Copyright (C) 2023 Deneb Markets Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package collateral

import (
	"errors"
	"sync"

	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"
)

var (
	// ErrAccountNotFound signals the party never created an account for the asset.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientBalance signals the account cannot cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Engine is the custody engine. It keeps a general and a margin account
// per party and asset; reservations move funds between the two, transfers
// settle between parties out of their general accounts.
type Engine struct {
	log *logging.Logger
	Config

	cfgMu sync.Mutex
	// account ID -> account
	accs map[string]*types.Account
}

// New instantiates a new collateral engine.
func New(log *logging.Logger, conf Config) *Engine {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		log:    log,
		Config: conf,
		accs:   map[string]*types.Account{},
	}
}

// ReloadConf updates the internal configuration of the collateral engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.cfgMu.Lock()
	e.Config = cfg
	e.cfgMu.Unlock()
}

// CreateAccount ensures the general and margin accounts exist for the given
// party and asset, and returns the general account ID. Calling it for an
// existing pair is a no-op.
func (e *Engine) CreateAccount(owner, asset string) string {
	generalID := accountID(owner, asset, types.AccountTypeGeneral)
	if _, ok := e.accs[generalID]; !ok {
		e.accs[generalID] = &types.Account{
			ID:      generalID,
			Owner:   owner,
			Asset:   asset,
			Balance: num.UintZero(),
			Type:    types.AccountTypeGeneral,
		}
		marginID := accountID(owner, asset, types.AccountTypeMargin)
		e.accs[marginID] = &types.Account{
			ID:      marginID,
			Owner:   owner,
			Asset:   asset,
			Balance: num.UintZero(),
			Type:    types.AccountTypeMargin,
		}
		if e.log.GetLevel() == logging.DebugLevel {
			e.log.Debug("created accounts",
				logging.String("owner", owner),
				logging.String("asset", asset),
			)
		}
	}
	return generalID
}

// Deposit credits the general account of the party with the given amount.
// The account must have been created first.
func (e *Engine) Deposit(owner, asset string, amount *num.Uint) (*types.Account, error) {
	acc, err := e.account(owner, asset, types.AccountTypeGeneral)
	if err != nil {
		return nil, err
	}
	acc.Balance.AddSum(amount)
	return acc.Clone(), nil
}

// Reserve moves the amount from the general to the margin account of the
// party, holding it against open orders. Fails with ErrInsufficientBalance
// when the general account cannot cover it, leaving both accounts untouched.
func (e *Engine) Reserve(owner, asset string, amount *num.Uint) error {
	general, err := e.account(owner, asset, types.AccountTypeGeneral)
	if err != nil {
		return err
	}
	margin, err := e.account(owner, asset, types.AccountTypeMargin)
	if err != nil {
		return err
	}
	if general.Balance.LT(amount) {
		e.log.Debug("unable to reserve funds",
			logging.String("owner", owner),
			logging.String("asset", asset),
			logging.BigUint("amount", amount),
			logging.BigUint("balance", general.Balance),
		)
		return ErrInsufficientBalance
	}
	general.Balance.Sub(general.Balance, amount)
	margin.Balance.AddSum(amount)
	return nil
}

// Release returns the amount from the margin account back to the general
// account of the party, when an order is cancelled or filled.
func (e *Engine) Release(owner, asset string, amount *num.Uint) error {
	general, err := e.account(owner, asset, types.AccountTypeGeneral)
	if err != nil {
		return err
	}
	margin, err := e.account(owner, asset, types.AccountTypeMargin)
	if err != nil {
		return err
	}
	if margin.Balance.LT(amount) {
		// a release larger than the margin balance means the book and the
		// custody engine disagree, never truncate silently
		e.log.Error("release exceeds reserved funds",
			logging.String("owner", owner),
			logging.String("asset", asset),
			logging.BigUint("amount", amount),
			logging.BigUint("reserved", margin.Balance),
		)
		return ErrInsufficientBalance
	}
	margin.Balance.Sub(margin.Balance, amount)
	general.Balance.AddSum(amount)
	return nil
}

// Transfer moves the amount between the general accounts of two parties,
// settling a trade leg or collecting a fee.
func (e *Engine) Transfer(from, to, asset string, amount *num.Uint) error {
	src, err := e.account(from, asset, types.AccountTypeGeneral)
	if err != nil {
		return err
	}
	dst, err := e.account(to, asset, types.AccountTypeGeneral)
	if err != nil {
		return err
	}
	if src.Balance.LT(amount) {
		return ErrInsufficientBalance
	}
	src.Balance.Sub(src.Balance, amount)
	dst.Balance.AddSum(amount)
	return nil
}

// GeneralBalance returns a copy of the spendable balance of the party.
func (e *Engine) GeneralBalance(owner, asset string) (*num.Uint, error) {
	acc, err := e.account(owner, asset, types.AccountTypeGeneral)
	if err != nil {
		return nil, err
	}
	return acc.Balance.Clone(), nil
}

// MarginBalance returns a copy of the funds held against open orders.
func (e *Engine) MarginBalance(owner, asset string) (*num.Uint, error) {
	acc, err := e.account(owner, asset, types.AccountTypeMargin)
	if err != nil {
		return nil, err
	}
	return acc.Balance.Clone(), nil
}

// GetAccountByID returns a copy of the account with the given ID.
func (e *Engine) GetAccountByID(id string) (*types.Account, error) {
	acc, ok := e.accs[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (e *Engine) account(owner, asset string, ty types.AccountType) (*types.Account, error) {
	acc, ok := e.accs[accountID(owner, asset, ty)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

func accountID(owner, asset string, ty types.AccountType) string {
	return owner + "-" + asset + "-" + ty.String()
}

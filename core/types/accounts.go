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

package types

import (
	"fmt"

	"code.denebmarkets.io/deneb/libs/num"
)

// AccountType distinguishes the spendable balance of a party from the
// funds held against their resting orders.
type AccountType int32

const (
	// AccountTypeUnspecified the default value, always invalid.
	AccountTypeUnspecified AccountType = iota
	// AccountTypeGeneral is where deposits land and releases return to.
	AccountTypeGeneral
	// AccountTypeMargin holds funds reserved against open orders.
	AccountTypeMargin
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeGeneral:
		return "general"
	case AccountTypeMargin:
		return "margin"
	default:
		return "unspecified"
	}
}

type Account struct {
	ID      string
	Owner   string
	Asset   string
	Balance *num.Uint
	Type    AccountType
}

func (a *Account) Clone() *Account {
	cpy := *a
	cpy.Balance = a.Balance.Clone()
	return &cpy
}

func (a Account) String() string {
	return fmt.Sprintf(
		"id(%s) owner(%s) asset(%s) balance(%s) type(%s)",
		a.ID,
		a.Owner,
		a.Asset,
		uintPointerToString(a.Balance),
		a.Type.String(),
	)
}

type Accounts []*Account

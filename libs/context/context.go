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

package context

import (
	"context"
	"errors"
	"strings"

	vgrand "code.denebmarkets.io/deneb/libs/rand"
)

type (
	traceIDT    int
	blockHeight int
	txHash      int
)

var (
	traceIDKey     traceIDT
	blockHeightKey blockHeight
	txHashKey      txHash

	ErrBlockHeightMissing = errors.New("no block height set on context")
	ErrTxHashMissing      = errors.New("no transaction hash set on context")
)

// WithTraceID returns a context with a traceID value.
func WithTraceID(ctx context.Context, tID string) context.Context {
	tID = strings.ToUpper(tID)
	return context.WithValue(ctx, traceIDKey, tID)
}

func WithBlockHeight(ctx context.Context, h int64) context.Context {
	return context.WithValue(ctx, blockHeightKey, h)
}

func WithTxHash(ctx context.Context, hash string) context.Context {
	hash = strings.ToUpper(hash)
	return context.WithValue(ctx, txHashKey, hash)
}

// TraceIDFromContext gets the traceID from the context, minting and
// setting a fresh one if the context carries none.
func TraceIDFromContext(ctx context.Context) (context.Context, string) {
	tID := ctx.Value(traceIDKey)
	if tID == nil {
		stID := vgrand.RandomStr(64)
		ctx = WithTraceID(ctx, stID)
		return ctx, strings.ToUpper(stID)
	}
	stID, ok := tID.(string)
	if !ok {
		stID = vgrand.RandomStr(64)
		ctx = WithTraceID(ctx, stID)
		return ctx, strings.ToUpper(stID)
	}
	return ctx, stID
}

func BlockHeightFromContext(ctx context.Context) (int64, error) {
	hv := ctx.Value(blockHeightKey)
	if hv == nil {
		return 0, ErrBlockHeightMissing
	}
	h, ok := hv.(int64)
	if !ok {
		return 0, ErrBlockHeightMissing
	}
	return h, nil
}

func TxHashFromContext(ctx context.Context) (string, error) {
	hv := ctx.Value(txHashKey)
	if hv == nil {
		return "", ErrTxHashMissing
	}
	h, ok := hv.(string)
	if !ok {
		return "", ErrTxHashMissing
	}
	return h, nil
}

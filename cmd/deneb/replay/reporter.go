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

package replay

import (
	"fmt"
	"io"
	"time"

	"code.denebmarkets.io/deneb/core/events"
	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/num"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// Reporter prints the replay as it happens. It is a plain broker
// subscriber, so every line it emits is backed by an event that went
// over the bus, not by runner-side bookkeeping.
type Reporter struct {
	id  int
	out io.Writer

	orders      int
	trades      int
	modeChanges int
	volume      uint64
	fees        *num.Uint
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:  out,
		fees: num.UintZero(),
	}
}

func (r *Reporter) Push(evts ...events.Event) {
	for _, e := range evts {
		switch ev := e.(type) {
		case *events.Settlement:
			r.settled(ev.Settlement().Clone())
		case *events.ModeChange:
			r.modeChanges++
			fmt.Fprintf(r.out, "%s %s -> %s\n",
				yellow("mode"), ev.From().String(), ev.To().String())
		case *events.Order:
			r.orders++
			o := ev.Order()
			fmt.Fprintf(r.out, "%s #%d %s %s %d @ %s (remaining %d)\n",
				faint("order"), o.ID, o.Party, o.Side.String(),
				o.Size, fmtAmount(o.Price), o.Remaining)
		}
	}
}

func (r *Reporter) settled(s *types.TradeSettlement) {
	r.trades++
	r.volume += s.Volume
	r.fees.AddSum(s.Fee)

	dir := green("long")
	if !s.IsLong {
		dir = red("short")
	}
	fmt.Fprintf(r.out, "%s %s %s %d @ %s fee %s (rate %s, book %d, curve %d, %s)\n",
		green("trade"), s.Party, dir, s.Volume, fmtAmount(s.VWAP),
		fmtAmount(s.Fee), s.FeeRate.String(), s.BookVolume,
		s.CurveVolume, s.Mode.String())
}

func (r *Reporter) Types() []events.Type {
	return []events.Type{events.OrderEvent, events.SettlementEvent, events.ModeChangeEvent}
}

func (r *Reporter) SetID(id int) { r.id = id }

func (r *Reporter) ID() int { return r.id }

// Err prints a step failure. The runner stops on the first one, so at
// most one of these appears per replay.
func (r *Reporter) Err(step int, kind string, err error) {
	fmt.Fprintf(r.out, "%s step %d (%s): %v\n", red("error"), step, kind, err)
}

// Done prints the closing summary.
func (r *Reporter) Done(runID string, elapsed time.Duration) {
	fmt.Fprintf(r.out, "replay %s: %d orders, %d trades, %d mode changes, volume %d, fees %s (%s)\n",
		runID, r.orders, r.trades, r.modeChanges, r.volume,
		fmtAmount(r.fees), elapsed.Round(time.Millisecond))
}

// fmtAmount renders a fixed-point amount back in whole asset units.
func fmtAmount(u *num.Uint) string {
	if u == nil {
		return "0"
	}
	return num.DecimalFromUint(u).Div(assetScale).String()
}

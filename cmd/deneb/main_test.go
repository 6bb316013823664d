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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"code.denebmarkets.io/deneb/config"
	vgfs "code.denebmarkets.io/deneb/libs/fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CommandSuite struct{}

// RunMain simulates a CLI execution. It formats a cmd invocation given
// a format and its args and overwrites os.Args. The output of the
// command is captured and returned.
func (suite *CommandSuite) RunMain(ctx context.Context, format string, args ...interface{}) ([]byte, error) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	cmd := fmt.Sprintf(format, args...)
	fmt.Fprintf(old, "-> %s\n", cmd)
	os.Args = append([]string{"deneb"}, strings.Fields(cmd)...)
	err := Main(ctx)

	w.Close()
	out, _ := io.ReadAll(r)
	fmt.Fprintf(old, "<- %s\n", out)
	os.Stdout = old

	return out, err
}

func TestSuite(t *testing.T) {
	s := &CommandSuite{}

	t.Run("Init", s.TestInit)
	t.Run("Version", s.TestVersion)
	t.Run("Replay", s.TestReplay)
	t.Run("ReplayFailures", s.TestReplayFailures)
}

func (suite *CommandSuite) TestInit(t *testing.T) {
	ctx := context.Background()
	home := filepath.Join(t.TempDir(), "deneb-home")

	_, err := suite.RunMain(ctx, "init -r %s", home)
	require.NoError(t, err)

	exists, err := vgfs.FileExists(config.FilePath(home))
	require.NoError(t, err)
	assert.True(t, exists)

	cfg, err := config.Read(home)
	require.NoError(t, err)
	assert.Equal(t, config.NewDefaultConfig().Execution.Fee.BaseFee, cfg.Execution.Fee.BaseFee)

	// a second init refuses to overwrite without force
	_, err = suite.RunMain(ctx, "init -r %s", home)
	require.Error(t, err)

	_, err = suite.RunMain(ctx, "init -f -r %s", home)
	require.NoError(t, err)
}

func (suite *CommandSuite) TestVersion(t *testing.T) {
	out, err := suite.RunMain(context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Deneb CLI")

	out, err = suite.RunMain(context.Background(), "version --output json")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"version"`)

	_, err = suite.RunMain(context.Background(), "version --output yaml")
	require.Error(t, err)
}

func (suite *CommandSuite) TestReplay(t *testing.T) {
	ctx := context.Background()
	home := filepath.Join(t.TempDir(), "deneb-home")

	_, err := suite.RunMain(ctx, "init -r %s", home)
	require.NoError(t, err)

	scenario := filepath.Join(t.TempDir(), "book.toml")
	require.NoError(t, vgfs.WriteFile(scenario, []byte(`
name = "book smoke"
market = "BTC-USDT"
base-asset = "BTC"
quote-asset = "USDT"
mode = "book-only"
start = "2023-06-01T00:00:00Z"

[[steps]]
kind = "deposit"
party = "bob"
asset = "BTC"
amount = "10"

[[steps]]
kind = "deposit"
party = "alice"
asset = "USDT"
amount = "100"

[[steps]]
kind = "order"
party = "bob"
side = "sell"
price = "100"
size = 10

[[steps]]
kind = "trade"
party = "alice"
size = 6
long = true
`)))

	out, err := suite.RunMain(ctx, "replay --no-color -r %s %s", home, scenario)
	require.NoError(t, err)

	assert.Contains(t, string(out), "order #1 bob sell 10 @ 100")
	assert.Contains(t, string(out), "trade alice long 6 @ 100 fee 0.6 (rate 0.001, book 6, curve 0, book-only)")
	assert.Contains(t, string(out), "1 orders, 1 trades")
}

func (suite *CommandSuite) TestReplayFailures(t *testing.T) {
	ctx := context.Background()
	home := filepath.Join(t.TempDir(), "deneb-home")

	scenario := filepath.Join(t.TempDir(), "broke.toml")
	require.NoError(t, vgfs.WriteFile(scenario, []byte(`
name = "no funds"
market = "BTC-USDT"
base-asset = "BTC"
quote-asset = "USDT"
mode = "curve-only"

[curve]
price = "100"
quantity = "100000"

[[steps]]
kind = "trade"
party = "alice"
size = 5
long = true
`)))

	// replay before init is an error
	_, err := suite.RunMain(ctx, "replay -r %s %s", home, scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been initialised")

	_, err = suite.RunMain(ctx, "init -r %s", home)
	require.NoError(t, err)

	// alice never deposited, the first step fails and the replay stops
	out, err := suite.RunMain(ctx, "replay --no-color -r %s %s", home, scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (trade)")
	assert.Contains(t, string(out), "error step 1 (trade)")
}

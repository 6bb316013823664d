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

package logging

// Config contains the configurable items for this package.
type Config struct {
	Environment string            `choice:"dev" choice:"prod" description:"Environment the logger is being run on" long:"env"`
	LogRotation LogRotationConfig `group:"LogRotation" namespace:"logrotation"`
}

// LogRotationConfig configures the optional rolling file sink.
type LogRotationConfig struct {
	Enabled  bool   `description:"Mirror the log output to a size-capped rolling file" long:"enabled"`
	Filename string `description:"Path of the rolling log file" long:"filename"`
	MaxSize  int    `description:"Maximum size in MB before the file is rotated" long:"max-size"`
	MaxAge   int    `description:"Maximum number of days to keep rotated files" long:"max-age"`
	Compress bool   `description:"Compress rotated files" long:"compress"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment: "dev",
		LogRotation: LogRotationConfig{
			Enabled:  false,
			Filename: "deneb.log",
			MaxSize:  100,
			MaxAge:   7,
			Compress: true,
		},
	}
}

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

package fs

import (
	"fmt"
	"os"
)

// EnsureDir creates the directory at the given path if it does not
// already exist. Created directories are owner-only.
func EnsureDir(path string) error {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(path, 0o700)
		}
		return err
	}
	return nil
}

// PathExists reports whether anything lives at the given path.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// FileExists reports whether a regular file lives at the given path. A
// directory at that path is an error, not a negative.
func FileExists(path string) (bool, error) {
	stats, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if stats.IsDir() {
		return false, fmt.Errorf("path \"%s\" is a directory", path)
	}
	return true, nil
}

// WriteFile writes the data at the given path, truncating any previous
// content. Files are created owner read-write only.
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

// ReadFile reads the whole file at the given path.
func ReadFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read file at \"%s\": %w", path, err)
	}
	return buf, nil
}

/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rulego/aop/test/assert"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	assert.Nil(t, os.WriteFile(path, []byte("[]"), 0600))
	assert.Equal(t, []byte("[]"), LoadFile(path))
	assert.Nil(t, LoadFile(filepath.Join(dir, "missing.json")))
}

func TestGetFilePaths(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	assert.Nil(t, os.MkdirAll(filepath.Join(dir, "skip"), 0755))
	for _, name := range []string{"b.json", "a.json", "c.txt", "sub/d.json", "skip/e.json", "x.bak.json"} {
		assert.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0600))
	}
	paths, err := GetFilePaths(filepath.Join(dir, "*.json"), "skip", "*.bak.json")
	assert.Nil(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "sub", "d.json"),
	}, paths)

	_, err = GetFilePaths(filepath.Join(dir, "missing", "*.json"))
	assert.NotNil(t, err)
}

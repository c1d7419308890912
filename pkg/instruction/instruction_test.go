// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package instruction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/folio/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "system_prompt.txt")
	writeFile(t, promptPath, "\n  You answer questions about my portfolio.  \n")

	t.Run("inline text wins", func(t *testing.T) {
		src := Load(config.InstructionConfig{Text: " Be brief. ", File: promptPath})
		assert.Equal(t, "Be brief.", src.Text())
		assert.Empty(t, src.Path())
	})

	t.Run("file is trimmed", func(t *testing.T) {
		src := Load(config.InstructionConfig{File: promptPath})
		assert.Equal(t, "You answer questions about my portfolio.", src.Text())
	})

	t.Run("missing file falls back", func(t *testing.T) {
		src := Load(config.InstructionConfig{File: filepath.Join(dir, "missing.txt")})
		assert.Equal(t, Default, src.Text())
	})

	t.Run("empty file falls back", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.txt")
		writeFile(t, empty, "   \n")
		src := Load(config.InstructionConfig{File: empty})
		assert.Equal(t, Default, src.Text())
	})

	t.Run("nothing configured", func(t *testing.T) {
		assert.Equal(t, Default, Load(config.InstructionConfig{}).Text())
	})
}

func TestReloadKeepsTextOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	writeFile(t, path, "first")

	src := Load(config.InstructionConfig{File: path})
	require.Equal(t, "first", src.Text())

	writeFile(t, path, "second")
	require.NoError(t, src.Reload())
	assert.Equal(t, "second", src.Text())

	writeFile(t, path, "")
	assert.Error(t, src.Reload())
	assert.Equal(t, "second", src.Text())

	require.NoError(t, os.Remove(path))
	assert.Error(t, src.Reload())
	assert.Equal(t, "second", src.Text())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	writeFile(t, path, "before")

	src := Load(config.InstructionConfig{File: path})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, src.Watch(ctx))
	defer src.Close()

	writeFile(t, path, "after")

	assert.Eventually(t, func() bool {
		return src.Text() == "after"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatchInlineIsNoop(t *testing.T) {
	src := Static("fixed")
	assert.NoError(t, src.Watch(context.Background()))
	assert.NoError(t, src.Close())
	assert.Equal(t, "fixed", src.Text())
}

func TestWatchAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	writeFile(t, path, "text")

	src := Load(config.InstructionConfig{File: path})
	require.NoError(t, src.Close())
	assert.Error(t, src.Watch(context.Background()))
}

func TestRender(t *testing.T) {
	vars := map[string]string{"language": "ar", "owner_name": "Sam"}

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"no placeholders", "Plain text.", "Plain text.", false},
		{"required", "Reply in {language}.", "Reply in ar.", false},
		{"spaces inside braces", "Hi { owner_name }", "Hi Sam", false},
		{"optional missing", "Tone: {tone?}.", "Tone: .", false},
		{"optional present", "Lang {language?}", "Lang ar", false},
		{"json left alone", `Return {"ok": true}`, `Return {"ok": true}`, false},
		{"non identifier", "Use {1st} form", "Use {1st} form", false},
		{"required missing", "Hello {visitor}", "", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.text, vars)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

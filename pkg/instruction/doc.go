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

// Package instruction loads the assistant's system instruction.
//
// The instruction comes from inline configuration text, else from a file
// read at startup (data/system_prompt.txt by default), else a built-in
// fallback. A Source can watch its file and swap in new text when the
// file is rewritten, so prompt edits take effect without a restart.
//
// # Placeholders
//
// Instruction text may reference per-conversation values:
//
//	{language}    - required; rendering fails if no value is supplied
//	{language?}   - optional; empty when no value is supplied
//
// Braces around anything that is not an identifier are left untouched,
// so JSON snippets inside a prompt survive rendering.
//
// # Usage
//
//	src := instruction.Load(cfg.Instruction)
//	if cfg.Instruction.Watch {
//	    _ = src.Watch(ctx)
//	}
//	text, err := instruction.Render(src.Text(), map[string]string{"language": "ar"})
package instruction

/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With unknown level falls back to debug", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(Level(42), buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debug("test debug")
		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "test debug", entry["msg"])
		assert.Equal(t, DebugLevel.String(), entry["level"])
	})

	t.Run("With level filtering", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		logger.Info("hidden")
		assert.Zero(t, buffer.Len())
		assert.False(t, logger.Enabled(InfoLevel))
		assert.True(t, logger.Enabled(ErrorLevel))

		logger.Warnf("socket %d", 3)
		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "socket 3", entry["msg"])
		assert.Equal(t, "warn", entry["level"])
	})

	t.Run("With structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("socket", "PUB[1]", "endpoint", "tcp://127.0.0.1:5555", "orphan").Info("bound")
		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "PUB[1]", entry["socket"])
		assert.Equal(t, "tcp://127.0.0.1:5555", entry["endpoint"])
		assert.Equal(t, "orphan", entry["_"])
	})

	t.Run("With no fields returns the same logger", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		assert.Same(t, logger, logger.With())
		assert.Same(t, logger, logger.With(1, 2))
	})

	t.Run("With file output flush", func(t *testing.T) {
		file, err := os.Create(filepath.Join(t.TempDir(), "log.json"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = file.Close() })

		logger := NewZap(ErrorLevel, file)
		logger.Errorf("failed %s", "bind")
		require.NoError(t, logger.Flush())

		content, err := os.ReadFile(file.Name())
		require.NoError(t, err)
		entry := decodeEntry(t, content)
		assert.Equal(t, "failed bind", entry["msg"])
		assert.Contains(t, entry, "stacktrace")
		require.Len(t, logger.LogOutput(), 1)
		assert.NotNil(t, logger.StdLogger())
	})
}

func TestParseLevel(t *testing.T) {
	for name, expected := range map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarningLevel,
		"warn":    WarningLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
		"panic":   PanicLevel,
	} {
		level, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, expected, level)
	}

	level, err := ParseLevel("loud")
	require.Error(t, err)
	assert.Equal(t, InvalidLevel, level)
	assert.Equal(t, "invalid", Level(-3).String())
}

func TestDiscardLogger(t *testing.T) {
	DiscardLogger.Info("nothing")
	DiscardLogger.Debugf("nothing %d", 1)
	assert.Equal(t, DiscardLogger, DiscardLogger.With("k", "v"))
	assert.False(t, DiscardLogger.Enabled(ErrorLevel))
	assert.True(t, DiscardLogger.Enabled(PanicLevel))
	assert.Equal(t, InfoLevel, DiscardLogger.LogLevel())
	assert.NoError(t, DiscardLogger.Flush())
	assert.Panics(t, func() { DiscardLogger.Panicf("boom %d", 1) })
}

func decodeEntry(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

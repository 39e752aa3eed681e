/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
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

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
	dir string
}

func (s *LoggerTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.T().Setenv(EnvLogLevel, "")
}

func (s *LoggerTestSuite) TestAppendsToFile() {
	path := filepath.Join(s.dir, "logs", "viewembed.log")
	l, err := New(Config{Level: "info", File: path})
	s.Require().NoError(err)
	l.Named("controller").Info("first")
	l.Debug("hidden")
	_ = l.Sync()

	l2, err := New(Config{Level: "info", File: path})
	s.Require().NoError(err)
	l2.Warn("second")
	_ = l2.Sync()

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	out := string(data)
	s.Contains(out, `"message":"first"`)
	s.Contains(out, `"logger":"controller"`)
	s.Contains(out, `"message":"second"`)
	s.NotContains(out, "hidden")
	s.Equal(2, strings.Count(out, "\n"))
}

func (s *LoggerTestSuite) TestSetLevelPropagatesToChildren() {
	path := filepath.Join(s.dir, "level.log")
	l, err := New(Config{Level: "warn", File: path})
	s.Require().NoError(err)
	child := l.Named("hook")
	child.Debug("before")
	l.SetLevel(zapcore.DebugLevel)
	s.Equal(zapcore.DebugLevel, child.Level())
	child.Debug("after")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.NotContains(string(data), "before")
	s.Contains(string(data), "after")
}

func (s *LoggerTestSuite) TestEnvOverridesLevel() {
	s.T().Setenv(EnvLogLevel, "error")
	l, err := New(Config{Level: "debug"})
	s.Require().NoError(err)
	s.Equal(zapcore.ErrorLevel, l.Level())
}

func (s *LoggerTestSuite) TestBadLevel() {
	_, err := New(Config{Level: "loud"})
	s.Error(err)
}

func (s *LoggerTestSuite) TestUnwritableFile() {
	_, err := New(Config{Level: "info", File: s.dir})
	s.Error(err)
}

func (s *LoggerTestSuite) TestHeadlessIsNop() {
	l, err := New(Config{Level: "info"})
	s.Require().NoError(err)
	l.Info("nowhere")
	s.NotNil(Nop().Named("x"))
}

func TestLoggerTestSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

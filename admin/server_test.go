// Copyright 2025 The radish Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radishdb/radish/confengine"
)

const testContent = `
admin:
  enabled: true
  address: 127.0.0.1:9119
  pprof: true
  timeout: 10s
`

func TestNewServer(t *testing.T) {
	conf, err := confengine.LoadContent([]byte(testContent))
	require.NoError(t, err)

	svr, err := New(conf, func() Stats {
		return Stats{ActiveConnections: 2, Keys: 10}
	})
	require.NoError(t, err)
	require.NotNil(t, svr)

	w := httptest.NewRecorder()
	svr.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.ActiveConnections)
	assert.Equal(t, 10, stats.Keys)

	w = httptest.NewRecorder()
	svr.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewServerDisabled(t *testing.T) {
	conf, err := confengine.LoadContent([]byte("admin:\n  enabled: false"))
	require.NoError(t, err)

	svr, err := New(conf, nil)
	require.NoError(t, err)
	assert.Nil(t, svr)
}

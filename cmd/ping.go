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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/radishdb/radish/client"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure round-trip latency against a running server",
	Run: func(cmd *cobra.Command, args []string) {
		con := client.NewConnection(client.Options{
			Host: pingHost,
			Port: pingPort,
		})
		defer con.Close()

		for i := 0; i < pingCount; i++ {
			start := time.Now()
			reply, err := con.Ping()
			if err != nil {
				fmt.Fprintf(os.Stderr, "ping failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s from %s:%d, seq=%d time=%s\n", reply, pingHost, pingPort, i, time.Since(start))
		}
	},
	Example: "# radish ping --host 127.0.0.1 --port 7272",
}

var (
	pingHost  string
	pingPort  int
	pingCount int
)

func init() {
	pingCmd.Flags().StringVar(&pingHost, "host", "127.0.0.1", "Server host")
	pingCmd.Flags().IntVar(&pingPort, "port", 7272, "Server port")
	pingCmd.Flags().IntVar(&pingCount, "count", 4, "Number of pings to send")
	rootCmd.AddCommand(pingCmd)
}

/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads scheduler bootstrap configuration from a TOML file,
// replacing the teacher's flat constructor-argument list with a single
// declarative document.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full set of values a scheduler process needs before it can
// register with the cluster manager.
type Config struct {
	ServiceName string `toml:"service_name"`
	Master      string `toml:"master"`

	Zookeeper ZookeeperConfig `toml:"zookeeper"`

	QueueCapacity       int `toml:"queue_capacity"`
	ChillSeconds        int `toml:"chill_seconds"`
	MasterSyncRetries   int `toml:"master_sync_retries"`
	MasterSyncTimeoutMs int `toml:"master_sync_timeout_ms"`

	HTTPAddr string `toml:"http_addr"`
}

// ZookeeperConfig groups every ZK-derived concern: state store, leader
// lock, and the chroot they share.
type ZookeeperConfig struct {
	Servers               []string `toml:"servers"`
	Chroot                string   `toml:"chroot"`
	ClusterName           string   `toml:"cluster_name"`
	SessionTimeoutSeconds int      `toml:"session_timeout_seconds"`
}

// Default returns a Config populated with the same conservative defaults
// the teacher wires into NewEtcdScheduler's call sites.
func Default() Config {
	return Config{
		QueueCapacity:       0,
		ChillSeconds:        20,
		MasterSyncRetries:   5,
		MasterSyncTimeoutMs: 500,
		HTTPAddr:            ":9090",
		Zookeeper: ZookeeperConfig{
			Chroot:                "/dcos-service",
			SessionTimeoutSeconds: 10,
		},
	}
}

// Load reads and parses a TOML config file at path, starting from Default
// and overlaying whatever the file sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s failed: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s failed: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the minimal set of fields a scheduler cannot run
// without.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("config: service_name is required")
	}
	if c.Master == "" {
		return fmt.Errorf("config: master is required")
	}
	if len(c.Zookeeper.Servers) == 0 {
		return fmt.Errorf("config: zookeeper.servers is required")
	}
	if c.Zookeeper.ClusterName == "" {
		return fmt.Errorf("config: zookeeper.cluster_name is required")
	}
	return nil
}

// MasterSyncTimeout returns the master-sync retry timeout as a
// time.Duration.
func (c Config) MasterSyncTimeout() time.Duration {
	return time.Duration(c.MasterSyncTimeoutMs) * time.Millisecond
}

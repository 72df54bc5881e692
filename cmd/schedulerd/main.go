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

// Command schedulerd boots the scheduler core: it loads configuration,
// wires the state store, leader lock, metrics sink, offer processor,
// reconciler, plan manager, plan-backed client, the mesos-go driver, and
// the introspection HTTP server together, then registers with the
// cluster manager and blocks.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/gogo/protobuf/proto"
	log "github.com/golang/glog"
	mesos "github.com/mesos/mesos-go/mesosproto"
	"github.com/mesos/mesos-go/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samuel/go-zookeeper/zk"

	appconfig "github.com/teletome/dcos-commons/config"
	schedcommonsdriver "github.com/teletome/dcos-commons/driver"
	"github.com/teletome/dcos-commons/framework"
	"github.com/teletome/dcos-commons/httpapi"
	"github.com/teletome/dcos-commons/leader"
	"github.com/teletome/dcos-commons/metrics"
	"github.com/teletome/dcos-commons/plan"
	"github.com/teletome/dcos-commons/processor"
	"github.com/teletome/dcos-commons/reconcile"
	"github.com/teletome/dcos-commons/store"
)

func main() {
	configPath := flag.String("config", "", "path to the scheduler's TOML config file")
	flag.Parse()

	if *configPath == "" {
		log.Exit("schedulerd: -config is required")
	}
	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		log.Exitf("schedulerd: %v", err)
	}

	metricsSink := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	var zkStore *store.ZKStore
	err = retry.Do(func() error {
		var connErr error
		zkStore, connErr = store.Connect(
			cfg.Zookeeper.Servers, cfg.Zookeeper.Chroot, cfg.Zookeeper.ClusterName,
			cfg.Zookeeper.SessionTimeoutSeconds)
		return connErr
	}, retry.Attempts(uint(cfg.MasterSyncRetries)), retry.Delay(cfg.MasterSyncTimeout()))
	if err != nil {
		log.Exitf("schedulerd: failed to connect to ZooKeeper state store: %v", err)
	}
	defer zkStore.Close()

	zkConn, err := connectLeaderZK(cfg)
	if err != nil {
		log.Exitf("schedulerd: failed to connect to ZooKeeper for leader election: %v", err)
	}
	lock, err := leader.Acquire(zkConn, filepath.Join(cfg.Zookeeper.Chroot, cfg.Zookeeper.ClusterName, "leader"))
	if err != nil {
		log.Exitf("schedulerd: failed to acquire leader election node: %v", err)
	}

	driverHandle := schedcommonsdriver.NewHandle()
	rec := reconcile.New(driverHandle, zkStore, metricsSink)
	manager := plan.NewManager()
	client := plan.NewClient(manager, lock)
	proc := processor.New(cfg.QueueCapacity, driverHandle, client, metricsSink)

	shutdown := func() { os.Exit(1) }
	runner := framework.New(driverHandle, proc, rec, client, zkStore, lock, shutdown)

	httpServer := httpapi.New(manager)
	go func() {
		if err := httpServer.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Errorf("schedulerd: introspection HTTP server exited: %v", err)
		}
	}()

	frameworkInfo := &mesos.FrameworkInfo{
		Name: proto.String(cfg.ServiceName),
		User: proto.String(""),
	}

	driverConfig := scheduler.DriverConfig{
		Scheduler: runner,
		Framework: frameworkInfo,
		Master:    cfg.Master,
	}

	var driver *scheduler.MesosSchedulerDriver
	err = retry.Do(func() error {
		var buildErr error
		driver, buildErr = scheduler.NewMesosSchedulerDriver(driverConfig)
		return buildErr
	}, retry.Attempts(uint(cfg.MasterSyncRetries)), retry.Delay(cfg.MasterSyncTimeout()))
	if err != nil {
		log.Exitf("schedulerd: failed to construct cluster-manager driver: %v", err)
	}

	if status, err := driver.Run(); err != nil {
		log.Exitf("schedulerd: driver stopped with status %v: %v", status, err)
	}
	fmt.Println("schedulerd: shutting down")
}

func connectLeaderZK(cfg appconfig.Config) (*zk.Conn, error) {
	conn, events, err := zk.Connect(cfg.Zookeeper.Servers, time.Duration(cfg.Zookeeper.SessionTimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}
	go func() {
		for ev := range events {
			if ev.Err != nil {
				log.Warningf("schedulerd: zk session event error: %v", ev.Err)
			}
		}
	}()
	return conn, nil
}

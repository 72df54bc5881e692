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

// Package store adapts the reconciler's StateStore contract onto
// ZooKeeper: one znode per task, under a cluster-scoped chroot. It is
// intentionally thin -- no compaction, no multi-writer conflict
// resolution -- that durability work is left to the operator's ZK
// deployment, not reinvented here.
package store

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/gogo/protobuf/proto"
	log "github.com/golang/glog"
	mesos "github.com/mesos/mesos-go/mesosproto"
	"github.com/samuel/go-zookeeper/zk"
)

const (
	tasksNode     = "tasks"
	frameworkNode = "framework_id"
)

// ZKStore persists task statuses and the framework id under a single
// cluster-scoped chroot.
type ZKStore struct {
	conn        *zk.Conn
	chroot      string
	clusterName string
}

// Connect dials servers and returns a ZKStore rooted at
// <chroot>/<clusterName>, creating the chroot hierarchy if it does not
// already exist.
func Connect(servers []string, chroot, clusterName string, sessionTimeoutSeconds int) (*ZKStore, error) {
	conn, events, err := zk.Connect(servers, time.Duration(sessionTimeoutSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("store: zk.Connect failed: %w", err)
	}
	go func() {
		for ev := range events {
			if ev.Err != nil {
				log.Warningf("store: zk session event error: %v", ev.Err)
			}
		}
	}()

	s := &ZKStore{conn: conn, chroot: chroot, clusterName: clusterName}
	if err := s.ensurePath(s.root()); err != nil {
		conn.Close()
		return nil, err
	}
	if err := s.ensurePath(s.tasksPath()); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the ZooKeeper session.
func (s *ZKStore) Close() {
	s.conn.Close()
}

func (s *ZKStore) root() string {
	return path.Join(s.chroot, s.clusterName)
}

func (s *ZKStore) tasksPath() string {
	return path.Join(s.root(), tasksNode)
}

func (s *ZKStore) taskPath(taskID string) string {
	return path.Join(s.tasksPath(), taskID)
}

func (s *ZKStore) frameworkIDPath() string {
	return path.Join(s.root(), frameworkNode)
}

// PersistFrameworkID writes id to the cluster's framework-id znode,
// tolerating zk.ErrNodeExists the same way the teacher's
// PersistFrameworkID call site does: a node that already exists is a
// benign race between scheduler replicas, not a failure.
func (s *ZKStore) PersistFrameworkID(id *mesos.FrameworkID) error {
	data, err := proto.Marshal(id)
	if err != nil {
		return fmt.Errorf("store: marshal framework id failed: %w", err)
	}
	_, err = s.conn.Create(s.frameworkIDPath(), data, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("store: persist framework id failed: %w", err)
	}
	return nil
}

// FetchFrameworkID reads the cluster's persisted framework id, returning
// (nil, nil) if none has been persisted yet.
func (s *ZKStore) FetchFrameworkID() (*mesos.FrameworkID, error) {
	data, _, err := s.conn.Get(s.frameworkIDPath())
	if err == zk.ErrNoNode {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetch framework id failed: %w", err)
	}
	id := &mesos.FrameworkID{}
	if err := proto.Unmarshal(data, id); err != nil {
		return nil, fmt.Errorf("store: unmarshal framework id failed: %w", err)
	}
	return id, nil
}

// ClearState deletes the framework-id znode and every persisted task
// status, matching the teacher's ClearZKState call site: used when the
// cluster manager reports this framework as completed and a fresh
// registration must not reuse stale state.
func (s *ZKStore) ClearState() error {
	children, _, err := s.conn.Children(s.tasksPath())
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("store: list %s failed: %w", s.tasksPath(), err)
	}
	for _, name := range children {
		if err := s.RemoveStatus(name); err != nil {
			log.Warningf("store: failed to clear task node %s: %v", name, err)
		}
	}
	_, stat, err := s.conn.Exists(s.frameworkIDPath())
	if err != nil {
		return fmt.Errorf("store: exists %s failed: %w", s.frameworkIDPath(), err)
	}
	if stat == nil {
		return nil
	}
	if err := s.conn.Delete(s.frameworkIDPath(), stat.Version); err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("store: clear framework id failed: %w", err)
	}
	return nil
}

// ensurePath creates p and every missing ancestor as a persistent,
// zero-byte znode, matching the teacher's PersistFrameworkID convention of
// tolerating zk.ErrNodeExists rather than treating it as a failure.
func (s *ZKStore) ensurePath(p string) error {
	if p == "/" || p == "" {
		return nil
	}
	if err := s.ensurePath(path.Dir(p)); err != nil {
		return err
	}
	_, err := s.conn.Create(p, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("store: create %s failed: %w", p, err)
	}
	return nil
}

// PersistStatus writes status to its task's znode, creating it if absent.
func (s *ZKStore) PersistStatus(status *mesos.TaskStatus) error {
	data, err := proto.Marshal(status)
	if err != nil {
		return fmt.Errorf("store: marshal status failed: %w", err)
	}
	p := s.taskPath(status.GetTaskId().GetValue())

	_, stat, err := s.conn.Exists(p)
	if err != nil {
		return fmt.Errorf("store: exists %s failed: %w", p, err)
	}
	if stat == nil {
		_, err := s.conn.Create(p, data, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return fmt.Errorf("store: create %s failed: %w", p, err)
		}
		return nil
	}
	_, err = s.conn.Set(p, data, stat.Version)
	if err != nil {
		return fmt.Errorf("store: set %s failed: %w", p, err)
	}
	return nil
}

// RemoveStatus deletes a task's znode. A no-op if it is already absent.
func (s *ZKStore) RemoveStatus(taskID string) error {
	p := s.taskPath(taskID)
	_, stat, err := s.conn.Exists(p)
	if err != nil {
		return fmt.Errorf("store: exists %s failed: %w", p, err)
	}
	if stat == nil {
		return nil
	}
	if err := s.conn.Delete(p, stat.Version); err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("store: delete %s failed: %w", p, err)
	}
	return nil
}

// FetchStatuses lists every task znode and unmarshals its contents,
// satisfying reconcile.StateStore.
func (s *ZKStore) FetchStatuses(ctx context.Context) ([]*mesos.TaskStatus, error) {
	children, _, err := s.conn.Children(s.tasksPath())
	if err != nil {
		return nil, fmt.Errorf("store: list %s failed: %w", s.tasksPath(), err)
	}

	statuses := make([]*mesos.TaskStatus, 0, len(children))
	for _, name := range children {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		data, _, err := s.conn.Get(s.taskPath(name))
		if err != nil {
			log.Warningf("store: skipping unreadable task node %s: %v", name, err)
			continue
		}
		status := &mesos.TaskStatus{}
		if err := proto.Unmarshal(data, status); err != nil {
			log.Warningf("store: skipping corrupt task node %s: %v", name, err)
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
